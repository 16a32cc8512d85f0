package repository

import (
	"bingohall/internal/cache"
	"bingohall/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Stored field names of a room. Player records live under PlayerKeyPrefix + userId.
const (
	keyRoomID            = "roomId"
	keyCaller            = "caller"
	keyBingoCard         = "bingoCard"
	keyGameStatus        = "gameStatus"
	keyCallItems         = "callItems"
	keyOriginalCallItems = "orignalCallItems"
	keyCalledItems       = "calledItems"
	keyPlayerList        = "playerList"
	keyPlayerCapacity    = "playerCapacity"
	keyIsRoomFull        = "isRoomFull"
	keyGameSettings      = "gameSettings"
	keyGameOptions       = "gameOptions"
	keyBlacklisted       = "blackListedPlayers"
	keyWinnerList        = "winnerList"
	keyBingoRequests     = "bingoRequests"
	keyRejoinRequests    = "rejoinRequestsList"
	keyTotalGamesPlayed  = "totalGamePlayed"

	PlayerKeyPrefix = "userState-"
)

// roomField binds one stored key to its slot on the aggregate
type roomField struct {
	key string
	ptr func(r *model.Room) any
}

var roomFields = []roomField{
	{keyRoomID, func(r *model.Room) any { return &r.RoomID }},
	{keyCaller, func(r *model.Room) any { return &r.Caller }},
	{keyBingoCard, func(r *model.Room) any { return &r.BingoCard }},
	{keyGameStatus, func(r *model.Room) any { return &r.GameStatus }},
	{keyCallItems, func(r *model.Room) any { return &r.CallItems }},
	{keyOriginalCallItems, func(r *model.Room) any { return &r.OriginalCallItems }},
	{keyCalledItems, func(r *model.Room) any { return &r.CalledItems }},
	{keyPlayerList, func(r *model.Room) any { return &r.PlayerList }},
	{keyPlayerCapacity, func(r *model.Room) any { return &r.PlayerCapacity }},
	{keyIsRoomFull, func(r *model.Room) any { return &r.IsRoomFull }},
	{keyGameSettings, func(r *model.Room) any { return &r.GameSettings }},
	{keyGameOptions, func(r *model.Room) any { return &r.GameOptions }},
	{keyBlacklisted, func(r *model.Room) any { return &r.BlacklistedPlayers }},
	{keyWinnerList, func(r *model.Room) any { return &r.WinnerList }},
	{keyBingoRequests, func(r *model.Room) any { return &r.BingoRequests }},
	{keyRejoinRequests, func(r *model.Room) any { return &r.RejoinRequests }},
	{keyTotalGamesPlayed, func(r *model.Room) any { return &r.TotalGamesPlayed }},
}

func PlayerKey(userID string) string {
	return PlayerKeyPrefix + userID
}

// RoomRepo maps the room aggregate onto a RoomStore, one stored key per field
type RoomRepo interface {
	// Load returns the stored room, or model.EmptyRoom when nothing is stored
	Load(ctx context.Context, roomID string) (*model.Room, error)
	// Save writes the room and any given players in one batch
	Save(ctx context.Context, room *model.Room, players ...*model.PlayerState) error
	SavePlayers(ctx context.Context, roomID string, players ...*model.PlayerState) error
	LoadPlayer(ctx context.Context, roomID, userID string) (*model.PlayerState, error)
	// ListPlayers returns every player record of the room ordered by user id
	ListPlayers(ctx context.Context, roomID string) ([]*model.PlayerState, error)
	Delete(ctx context.Context, roomID string) error
}

type roomRepo struct {
	store cache.RoomStore
}

func NewRoomRepo(store cache.RoomStore) RoomRepo {
	return &roomRepo{store: store}
}

func (r *roomRepo) Load(ctx context.Context, roomID string) (*model.Room, error) {
	keys := make([]string, len(roomFields))
	for i, f := range roomFields {
		keys[i] = f.key
	}
	data, err := r.store.GetMany(ctx, roomID, keys)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}

	room := model.EmptyRoom()
	for _, f := range roomFields {
		raw, ok := data[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, f.ptr(room)); err != nil {
			return nil, fmt.Errorf("decode room field %s: %w", f.key, err)
		}
	}
	normalize(room)
	return room, nil
}

// normalize replaces nulls read back from storage with empty values
func normalize(room *model.Room) {
	if room.CallItems == nil {
		room.CallItems = model.CallItems{}
	}
	if room.OriginalCallItems == nil {
		room.OriginalCallItems = model.CallItems{}
	}
	if room.CalledItems == nil {
		room.CalledItems = model.CallItems{}
	}
	if room.PlayerList == nil {
		room.PlayerList = []model.Player{}
	}
	if room.GameSettings == nil {
		room.GameSettings = model.Settings{}
	}
	if len(room.GameOptions) == 0 || string(room.GameOptions) == "null" {
		room.GameOptions = json.RawMessage(`{}`)
	}
	if room.BlacklistedPlayers == nil {
		room.BlacklistedPlayers = []string{}
	}
	if room.WinnerList == nil {
		room.WinnerList = []model.WinnerEntry{}
	}
	if room.BingoRequests == nil {
		room.BingoRequests = []*model.PlayerState{}
	}
	if room.RejoinRequests == nil {
		room.RejoinRequests = []model.Player{}
	}
}

func (r *roomRepo) Save(ctx context.Context, room *model.Room, players ...*model.PlayerState) error {
	entries := make(map[string][]byte, len(roomFields)+len(players))
	for _, f := range roomFields {
		raw, err := json.Marshal(f.ptr(room))
		if err != nil {
			return fmt.Errorf("encode room field %s: %w", f.key, err)
		}
		entries[f.key] = raw
	}
	if err := addPlayers(entries, players); err != nil {
		return err
	}
	if err := r.store.PutMany(ctx, room.RoomID, entries); err != nil {
		return fmt.Errorf("save room %s: %w", room.RoomID, err)
	}
	return nil
}

func (r *roomRepo) SavePlayers(ctx context.Context, roomID string, players ...*model.PlayerState) error {
	entries := make(map[string][]byte, len(players))
	if err := addPlayers(entries, players); err != nil {
		return err
	}
	if err := r.store.PutMany(ctx, roomID, entries); err != nil {
		return fmt.Errorf("save players of %s: %w", roomID, err)
	}
	return nil
}

func addPlayers(entries map[string][]byte, players []*model.PlayerState) error {
	for _, p := range players {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode player %s: %w", p.UserID, err)
		}
		entries[PlayerKey(p.UserID)] = raw
	}
	return nil
}

func (r *roomRepo) LoadPlayer(ctx context.Context, roomID, userID string) (*model.PlayerState, error) {
	raw, err := r.store.Get(ctx, roomID, PlayerKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", userID, err)
	}
	if raw == nil {
		return nil, nil
	}
	return decodePlayer(raw)
}

func (r *roomRepo) ListPlayers(ctx context.Context, roomID string) ([]*model.PlayerState, error) {
	data, err := r.store.List(ctx, roomID, PlayerKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list players of %s: %w", roomID, err)
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*model.PlayerState, 0, len(keys))
	for _, k := range keys {
		p, err := decodePlayer(data[k])
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", strings.TrimPrefix(k, PlayerKeyPrefix), err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePlayer(raw []byte) (*model.PlayerState, error) {
	var p model.PlayerState
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	if p.MarkedKeys == nil {
		p.MarkedKeys = []int{}
	}
	if p.CardItems == nil {
		p.CardItems = model.CallItems{}
	}
	if p.UserGameSettings == nil {
		p.UserGameSettings = model.Settings{}
	}
	return &p, nil
}

func (r *roomRepo) Delete(ctx context.Context, roomID string) error {
	if err := r.store.DeleteAll(ctx, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}
