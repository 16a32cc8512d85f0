package service

import (
	"bingohall/internal/engine"
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RoomService drives the room state machine: creation, calls and game flow
type RoomService struct {
	repo    repository.RoomRepo
	history repository.HistoryRepo
	router  Router
	options OptionsProvider
	rng     engine.Rand
	now     func() time.Time
}

// NewRoomService creates a new room service
func NewRoomService(
	repo repository.RoomRepo,
	history repository.HistoryRepo,
	router Router,
	options OptionsProvider,
	rng engine.Rand,
) *RoomService {
	if history == nil {
		history = repository.NopHistory{}
	}
	if rng == nil {
		rng = engine.DefaultRand()
	}
	return &RoomService{
		repo:    repo,
		history: history,
		router:  router,
		options: options,
		rng:     rng,
		now:     time.Now,
	}
}

// loadExisting returns the room or a ROOM_NOT_FOUND error
func (s *RoomService) loadExisting(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.repo.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Exists() {
		return nil, NotFound()
	}
	return room, nil
}

// roster refreshes PlayerList and IsRoomFull from the stored player records
func roster(ctx context.Context, repo repository.RoomRepo, room *model.Room) ([]*model.PlayerState, error) {
	players, err := repo.ListPlayers(ctx, room.RoomID)
	if err != nil {
		return nil, err
	}
	joined := model.FilterByStatus(players, model.PlayerJoined)
	room.PlayerList = model.Summaries(joined)
	room.RecomputeFull(len(joined))
	return players, nil
}

// CreateGame builds the deck for the caller's card and (re)initializes the room
func (s *RoomService) CreateGame(ctx context.Context, req Request, ev model.CreateGame) error {
	if req.User == nil {
		return Unauthorized("missing identity")
	}
	if ev.BingoCard == nil {
		return Validation("bingoCard is required", engine.ErrMissingCard)
	}
	if ev.BingoCard.UserID != req.User.ID {
		return Unauthorized("User ID mismatch")
	}
	if ev.RoomID != "" && ev.RoomID != req.RoomID {
		return Validation("roomId does not match the connection's room", nil)
	}
	if err := engine.ValidateCard(ev.BingoCard); err != nil {
		return Validation("invalid bingo card", err)
	}
	original, card := engine.BuildDeck(s.rng, ev.BingoCard)
	if err := engine.ValidateDeck(card, original); err != nil {
		return Validation("invalid bingo card", err)
	}

	options, err := s.options.FetchGameOptions(ctx)
	if err != nil {
		return Upstream(err)
	}

	prev, err := s.repo.Load(ctx, req.RoomID)
	if err != nil {
		return err
	}

	room := model.EmptyRoom()
	room.RoomID = req.RoomID
	room.Caller = &model.Caller{
		UserID:   req.User.ID,
		Username: req.User.Username,
		Status:   string(model.PlayerJoined),
		Role:     string(model.RoleCaller),
	}
	room.BingoCard = card
	room.GameStatus = model.StatusNotStarted
	room.OriginalCallItems = original
	room.CallItems = engine.Shuffle(s.rng, original)
	room.PlayerCapacity = ev.PlayerCapacity
	if room.PlayerCapacity <= 0 {
		room.PlayerCapacity = model.DefaultPlayerCapacity
	}
	room.GameSettings = card.PlayingSettings.Clone()
	room.GameOptions = options
	room.TotalGamesPlayed = prev.TotalGamesPlayed
	room.BlacklistedPlayers = prev.BlacklistedPlayers

	// cards drawn from a previous deck are meaningless now
	players, err := s.repo.ListPlayers(ctx, req.RoomID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if p.Status == model.PlayerBlacklisted {
			continue
		}
		p.Status = model.PlayerNotJoined
		p.ResetCard(model.CallItems{})
	}

	if err := s.repo.Save(ctx, room, players...); err != nil {
		return err
	}

	s.router.SetRole(req.ConnID, model.RoleCaller)
	s.router.Broadcast(room.RoomID, msg(model.MsgGameCreated, room.View(false, nil)))
	log.Info().Str("room", room.RoomID).Str("user", req.User.ID).Int("deck", len(original)).Msg("game created")
	return nil
}

// StartGame moves a NOT_STARTED room into play and places the first call
func (s *RoomService) StartGame(ctx context.Context, req Request) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	switch room.GameStatus {
	case model.StatusNotStarted:
	case model.StatusInProgress:
		return CallerError("Game is already in progress")
	default:
		return CallerError("Game has already started; resume or finish it first")
	}

	if room.GameSettings.GameMode() != model.GameModeNoCalls {
		room.CallFirst()
	}
	room.GameStatus = model.StatusInProgress
	room.TotalGamesPlayed++
	room.WinnerList = []model.WinnerEntry{}
	room.BingoRequests = []*model.PlayerState{}
	room.RejoinRequests = []model.Player{}

	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.router.Broadcast(room.RoomID, msg(model.MsgGameStarted, gameStartedPayload{
		GameStatus:     room.GameStatus,
		CallItems:      room.CallItems,
		CalledItems:    room.CalledItems,
		WinnerList:     room.WinnerList,
		BingoRequests:  room.PublicBingoRequests(),
		RejoinRequests: room.RejoinRequests,
	}))
	return nil
}

// NextCall marks the next deck item as called
func (s *RoomService) NextCall(ctx context.Context, req Request) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	room.NextCall()
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.router.Broadcast(room.RoomID, msg(model.MsgCallPlaced, callPlacedPayload{
		CallItems:   room.CallItems,
		CalledItems: room.CalledItems,
		IsLastCall:  room.IsLastCall(),
	}))
	return nil
}

// ShuffleCallItems permutes the uncalled part of the deck; called items keep their slots
func (s *RoomService) ShuffleCallItems(ctx context.Context, req Request) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}

	slots := make([]int, 0, len(room.CallItems))
	uncalled := make(model.CallItems, 0, len(room.CallItems))
	for i, it := range room.CallItems {
		if !it.Called {
			slots = append(slots, i)
			uncalled = append(uncalled, it)
		}
	}
	for i, it := range engine.Shuffle(s.rng, uncalled) {
		room.CallItems[slots[i]] = it
	}

	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.router.Broadcast(room.RoomID, msg(model.MsgCallShuffled, callItemsPayload{CallItems: room.CallItems}))
	return nil
}

// CallReorder moves one deck item; only the requester sees the result
func (s *RoomService) CallReorder(ctx context.Context, req Request, ev model.CallReorder) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if err := room.Reorder(ev.OldIndex, ev.NewIndex); err != nil {
		return Validation("invalid reorder indices", err)
	}
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.router.SendTo(req.ConnID, msg(model.MsgCallReordered, callItemsPayload{CallItems: room.CallItems}))
	return nil
}

func (s *RoomService) PauseGame(ctx context.Context, req Request) error {
	return s.setStatus(ctx, req, model.StatusInProgress, model.StatusPaused, "Game is not in progress", model.MsgGamePaused)
}

func (s *RoomService) ResumeGame(ctx context.Context, req Request) error {
	return s.setStatus(ctx, req, model.StatusPaused, model.StatusInProgress, "Game is not paused", model.MsgGameResumed)
}

func (s *RoomService) setStatus(ctx context.Context, req Request, from, to model.GameStatus, guard, msgType string) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	if room.GameStatus != from {
		return Validation(guard, nil)
	}
	room.GameStatus = to
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.router.Broadcast(room.RoomID, msg(msgType, statusPayload{GameStatus: room.GameStatus}))
	return nil
}

// RestartGame deals every joined player a fresh card and starts over with a reshuffled deck
func (s *RoomService) RestartGame(ctx context.Context, req Request) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	switch room.GameStatus {
	case model.StatusInProgress, model.StatusInReview, model.StatusPaused:
	default:
		return CallerError("Game has not started")
	}

	players, err := s.repo.ListPlayers(ctx, room.RoomID)
	if err != nil {
		return err
	}
	joined := model.FilterByStatus(players, model.PlayerJoined)
	for _, p := range joined {
		p.ResetCard(engine.CreateCardItems(s.rng, room.BingoCard, room.OriginalCallItems))
	}

	room.ResetCalls()
	room.CallItems = engine.Shuffle(s.rng, room.CallItems)
	room.CalledItems = model.CallItems{}
	room.WinnerList = []model.WinnerEntry{}
	room.BingoRequests = []*model.PlayerState{}
	room.GameStatus = model.StatusInProgress
	room.PlayerList = model.Summaries(joined)
	room.RecomputeFull(len(joined))

	if err := s.repo.Save(ctx, room, joined...); err != nil {
		return err
	}
	s.fanOut(room, joined, model.MsgGameRestarted)
	return nil
}

// FinishGame ends the current game: the room returns to NOT_STARTED and every
// non-blacklisted player must join again with a new card
func (s *RoomService) FinishGame(ctx context.Context, req Request) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	return s.finish(ctx, room)
}

func (s *RoomService) finish(ctx context.Context, room *model.Room) error {
	players, err := s.repo.ListPlayers(ctx, room.RoomID)
	if err != nil {
		return err
	}
	s.archive(ctx, room, players)

	reset := make([]*model.PlayerState, 0, len(players))
	for _, p := range players {
		if p.Status == model.PlayerBlacklisted {
			continue
		}
		p.Status = model.PlayerNotJoined
		p.ResetCard(engine.CreateCardItems(s.rng, room.BingoCard, room.OriginalCallItems))
		reset = append(reset, p)
	}

	room.ResetCalls()
	room.CallItems = engine.Shuffle(s.rng, room.CallItems)
	room.GameStatus = model.StatusNotStarted
	room.PlayerList = []model.Player{}
	room.IsRoomFull = false
	room.BingoRequests = []*model.PlayerState{}
	room.RejoinRequests = []model.Player{}

	if err := s.repo.Save(ctx, room, reset...); err != nil {
		return err
	}
	s.fanOut(room, reset, model.MsgGameFinished)
	log.Info().Str("room", room.RoomID).Int("winners", len(room.WinnerList)).Msg("game finished")
	return nil
}

// archive records the finished game; failures are only logged
func (s *RoomService) archive(ctx context.Context, room *model.Room, players []*model.PlayerState) {
	rec := &model.GameRecord{
		ID:          uuid.New().String(),
		RoomID:      room.RoomID,
		GameNumber:  room.TotalGamesPlayed,
		Winners:     append([]model.WinnerEntry{}, room.WinnerList...),
		CalledCount: len(room.CalledItems),
		TotalCalls:  len(room.CallItems),
		PlayerCount: len(model.FilterByStatus(players, model.PlayerJoined)),
		FinishedAt:  s.now().UTC(),
	}
	if room.Caller != nil {
		rec.CallerID = room.Caller.UserID
	}
	if room.BingoCard != nil {
		rec.CardType = room.BingoCard.CardType
		rec.CardGrid = room.BingoCard.CardGrid
	}
	if err := s.history.Insert(ctx, rec); err != nil {
		log.Warn().Err(err).Str("room", room.RoomID).Msg("failed to archive finished game")
	}
}

// fanOut sends each player their own state, then the room view to everyone else
func (s *RoomService) fanOut(room *model.Room, players []*model.PlayerState, msgType string) {
	served := toCallers(s.router, room.RoomID, msg(msgType, room.View(true, nil)))
	for _, p := range players {
		ids := playerConns(s.router, room.RoomID, p.UserID)
		sendAll(s.router, ids, msg(msgType, room.View(false, p)))
		served = append(served, ids...)
	}
	s.router.Broadcast(room.RoomID, msg(msgType, room.View(false, nil)), served...)
}

// UpdateGameSettings merges the patch into the room settings
func (s *RoomService) UpdateGameSettings(ctx context.Context, req Request, ev model.UpdateGameSettings) error {
	room, err := s.loadExisting(ctx, req.RoomID)
	if err != nil {
		return err
	}
	room.GameSettings = room.GameSettings.Merge(ev.GameSettings)
	if err := s.repo.Save(ctx, room); err != nil {
		return err
	}
	s.router.Broadcast(room.RoomID, msg(model.MsgGameSettingsUpdated, settingsPayload{GameSettings: room.GameSettings}))
	return nil
}

// DeleteGame wipes every stored key of the room, whether or not it was created
func (s *RoomService) DeleteGame(ctx context.Context, req Request) error {
	if err := s.repo.Delete(ctx, req.RoomID); err != nil {
		return fmt.Errorf("delete room %s: %w", req.RoomID, err)
	}
	empty := model.EmptyRoom()
	s.router.Broadcast(req.RoomID, msg(model.MsgGameDeleted, empty.View(false, nil)))
	return nil
}

// SyncGame sends the requester the full snapshot they are allowed to see
func (s *RoomService) SyncGame(ctx context.Context, req Request) error {
	room, err := s.repo.Load(ctx, req.RoomID)
	if err != nil {
		return &GameError{Type: model.ErrTypeSyncGame, Message: "Failed to sync game", Err: err}
	}
	var ps *model.PlayerState
	if req.User != nil {
		ps, err = s.repo.LoadPlayer(ctx, req.RoomID, req.User.ID)
		if err != nil {
			return &GameError{Type: model.ErrTypeSyncGame, Message: "Failed to sync game", Err: err}
		}
	}
	isCaller := s.router.Role(req.ConnID) == model.RoleCaller
	s.router.SendTo(req.ConnID, msg(model.MsgGameSynced, room.View(isCaller, ps)))
	return nil
}
