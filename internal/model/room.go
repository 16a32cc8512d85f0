package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GameStatus is the room lifecycle state
type GameStatus int

const (
	StatusWaiting    GameStatus = iota // no room created yet
	StatusNotStarted                   // created, not started
	StatusInProgress
	StatusInReview // at least one bingo claim awaits the caller
	StatusPaused
)

func (s GameStatus) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusInReview:
		return "IN_REVIEW"
	case StatusPaused:
		return "PAUSED"
	}
	return fmt.Sprintf("GameStatus(%d)", int(s))
}

// DefaultPlayerCapacity applies when CREATE_GAME carries no capacity
const DefaultPlayerCapacity = 5

var ErrIndexOutOfRange = errors.New("index out of range")

// Caller identifies the room owner
type Caller struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Status   string `json:"status"`
	Role     string `json:"role"`
}

// Room is the durable aggregate of one bingo session
type Room struct {
	RoomID             string          `json:"roomId"`
	Caller             *Caller         `json:"caller"`
	BingoCard          *BingoCard      `json:"bingoCard,omitempty"`
	GameStatus         GameStatus      `json:"gameStatus"`
	CallItems          CallItems       `json:"callItems"`
	OriginalCallItems  CallItems       `json:"-"`
	CalledItems        CallItems       `json:"calledItems"`
	PlayerList         []Player        `json:"playerList"`
	PlayerCapacity     int             `json:"playerCapacity"`
	IsRoomFull         bool            `json:"isRoomFull"`
	GameSettings       Settings        `json:"gameSettings"`
	GameOptions        json.RawMessage `json:"gameOptions"`
	BlacklistedPlayers []string        `json:"blackListedPlayers"`
	WinnerList         []WinnerEntry   `json:"winnerList"`
	BingoRequests      []*PlayerState  `json:"bingoRequests"`
	RejoinRequests     []Player        `json:"rejoinRequestsList"`
	TotalGamesPlayed   int             `json:"totalGamePlayed"`
}

// EmptyRoom is the canonical snapshot of a room that was never created or was deleted
func EmptyRoom() *Room {
	return &Room{
		GameStatus:         StatusWaiting,
		CallItems:          CallItems{},
		OriginalCallItems:  CallItems{},
		CalledItems:        CallItems{},
		PlayerList:         []Player{},
		PlayerCapacity:     DefaultPlayerCapacity,
		GameSettings:       Settings{},
		GameOptions:        json.RawMessage(`{}`),
		BlacklistedPlayers: []string{},
		WinnerList:         []WinnerEntry{},
		BingoRequests:      []*PlayerState{},
		RejoinRequests:     []Player{},
	}
}

// Exists reports whether CREATE_GAME has run for this room
func (r *Room) Exists() bool {
	return r.RoomID != ""
}

// RecomputeFull derives IsRoomFull from the joined player count
func (r *Room) RecomputeFull(joined int) {
	r.IsRoomFull = joined >= r.PlayerCapacity
}

// IsLastCall reports whether every deck item has been called
func (r *Room) IsLastCall() bool {
	return len(r.CalledItems) == len(r.CallItems)
}

// NextCall marks the first uncalled deck item and prepends it to CalledItems
func (r *Room) NextCall() (CallItem, bool) {
	for i := range r.CallItems {
		if r.CallItems[i].Called {
			continue
		}
		r.CallItems[i].Called = true
		r.CalledItems = append(CallItems{r.CallItems[i]}, r.CalledItems...)
		return r.CallItems[i], true
	}
	return CallItem{}, false
}

// CallFirst marks the head of the deck called, as START_GAME does
func (r *Room) CallFirst() bool {
	if len(r.CallItems) == 0 || r.CallItems[0].Called {
		return false
	}
	r.CallItems[0].Called = true
	r.CalledItems = append(r.CalledItems, r.CallItems[0])
	return true
}

// Reorder moves one deck item from oldIndex to newIndex
func (r *Room) Reorder(oldIndex, newIndex int) error {
	n := len(r.CallItems)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return fmt.Errorf("reorder %d -> %d of %d items: %w", oldIndex, newIndex, n, ErrIndexOutOfRange)
	}
	item := r.CallItems[oldIndex]
	rest := append(r.CallItems[:oldIndex:oldIndex], r.CallItems[oldIndex+1:]...)
	out := make(CallItems, 0, n)
	out = append(out, rest[:newIndex]...)
	out = append(out, item)
	out = append(out, rest[newIndex:]...)
	r.CallItems = out
	return nil
}

// ResetCalls clears every called flag and the called history
func (r *Room) ResetCalls() {
	for i := range r.CallItems {
		r.CallItems[i].Called = false
	}
	r.CalledItems = CallItems{}
}

func (r *Room) HasBingoRequest(userID string) bool {
	for _, p := range r.BingoRequests {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// RemoveBingoRequest drops the user's claim and reports whether one existed
func (r *Room) RemoveBingoRequest(userID string) bool {
	out := make([]*PlayerState, 0, len(r.BingoRequests))
	found := false
	for _, p := range r.BingoRequests {
		if p.UserID == userID {
			found = true
			continue
		}
		out = append(out, p)
	}
	r.BingoRequests = out
	return found
}

// DropClaim removes the user's pending claim, leaving review once the queue empties
func (r *Room) DropClaim(userID string) bool {
	if !r.RemoveBingoRequest(userID) {
		return false
	}
	if r.GameStatus == StatusInReview {
		r.GameStatus = r.ReviewStatus()
	}
	return true
}

// ReviewStatus is the status a room returns to after a claim is settled
func (r *Room) ReviewStatus() GameStatus {
	if len(r.BingoRequests) > 0 {
		return StatusInReview
	}
	return StatusInProgress
}

// PublicBingoRequests is the identity-only view of the review queue
func (r *Room) PublicBingoRequests() []Player {
	return Summaries(r.BingoRequests)
}

func (r *Room) HasRejoinRequest(userID string) bool {
	for _, p := range r.RejoinRequests {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Room) RemoveRejoinRequest(userID string) {
	out := make([]Player, 0, len(r.RejoinRequests))
	for _, p := range r.RejoinRequests {
		if p.UserID != userID {
			out = append(out, p)
		}
	}
	r.RejoinRequests = out
}

// Blacklist records the user as barred from the room
func (r *Room) Blacklist(userID string) {
	for _, id := range r.BlacklistedPlayers {
		if id == userID {
			return
		}
	}
	r.BlacklistedPlayers = append(r.BlacklistedPlayers, userID)
}

// RoomView is a room snapshot addressed to one recipient
type RoomView struct {
	*Room
	BingoRequests any          `json:"bingoRequests"`
	PlayerState   *PlayerState `json:"playerState,omitempty"`
}

// View builds the snapshot a recipient may see; non-callers get the redacted review queue
func (r *Room) View(forCaller bool, ps *PlayerState) RoomView {
	v := RoomView{Room: r, PlayerState: ps}
	if forCaller {
		v.BingoRequests = r.BingoRequests
	} else {
		v.BingoRequests = r.PublicBingoRequests()
	}
	return v
}
