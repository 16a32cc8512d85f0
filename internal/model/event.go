package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType names an inbound client event
type EventType string

const (
	EventCreateGame             EventType = "CREATE_GAME"
	EventJoinGame               EventType = "JOIN_GAME"
	EventStartGame              EventType = "START_GAME"
	EventRestartGame            EventType = "RESTART_GAME"
	EventFinishGame             EventType = "FINISH_GAME"
	EventEndGame                EventType = "END_GAME"
	EventPauseGame              EventType = "PAUSE_GAME"
	EventResumeGame             EventType = "RESUME_GAME"
	EventDeleteGame             EventType = "DELETE_GAME"
	EventSyncGame               EventType = "SYNC_GAME"
	EventNextCall               EventType = "NEXT_CALL"
	EventShuffleCallItems       EventType = "SHUFFLE_CALL_ITEMS"
	EventCallReorder            EventType = "CALL_REORDER"
	EventUpdateGameSettings     EventType = "UPDATE_GAME_SETTINGS"
	EventUpdatePlayerState      EventType = "UPDATE_PLAYER_STATE"
	EventBingoReviewRequest     EventType = "BINGO_REVIEW_REQUEST"
	EventUpdateReviewRequest    EventType = "UPDATE_REVIEW_REQUEST"
	EventRejectBingo            EventType = "REJECT_BINGO"
	EventRemovePlayer           EventType = "REMOVE_PLAYER"
	EventRejoinGame             EventType = "REJOIN_GAME"
	EventRejoinRequestProcessed EventType = "REJOIN_REQUEST_PROCESSED"
)

// Outbound message types
const (
	MsgGameCreated                 = "GAME_CREATED"
	MsgSuccessfullyJoined          = "SUCCESSFULLY_JOINED"
	MsgPlayerJoined                = "PLAYER_JOINED"
	MsgGameRoomFull                = "GAME_ROOM_FULL"
	MsgGameStarted                 = "GAME_STARTED"
	MsgGameRestarted               = "GAME_RESTARTED"
	MsgGameFinished                = "GAME_FINISHED"
	MsgCallPlaced                  = "CALL_PLACED"
	MsgCallShuffled                = "CALL_SHUFFLED"
	MsgCallReordered               = "CALL_REORDERED"
	MsgGameSettingsUpdated         = "GAME_SETTINGS_UPDATED"
	MsgGameDeleted                 = "GAME_DELETED"
	MsgGamePaused                  = "GAME_PAUSED"
	MsgGameResumed                 = "GAME_RESUMED"
	MsgGameSynced                  = "GAME_SYNCED"
	MsgPlayerStateUpdated          = "PLAYER_STATE_UPDATED"
	MsgReviewRequestUpdated        = "REVIEW_REQUEST_UPDATED"
	MsgBingoInReview               = "BINGO_IN_REVIEW"
	MsgBingoAccepted               = "BINGO_ACCEPTED"
	MsgBingoRejected               = "BINGO_REJECTED"
	MsgPlayerWon                   = "PLAYER_WON"
	MsgPlayerRemoved               = "PLAYER_REMOVED"
	MsgPlayerListUpdated           = "PLAYER_LIST_UPDATED"
	MsgVacancyCreated              = "VACANCY_CREATED"
	MsgPlayerRejoinRequestReceived = "PLAYER_REJOIN_REQUEST_RECEIVED"
	MsgRejoinRequestSent           = "REJOIN_REQUEST_SENT_SUCCESSFULLY"
	MsgRejoinRequestReceived       = "REJOIN_REQUEST_RECEIVED"
	MsgPlayerRejoined              = "PLAYER_REJOINED"
	MsgPlayerBlacklisted           = "PLAYER_BLACKLISTED"
)

// Error message types
const (
	ErrTypeGeneric             = "ERROR"
	ErrTypeCaller              = "CALLER_ERROR"
	ErrTypeReviewRequest       = "REVIEW_REQUEST_ERROR"
	ErrTypeSyncGame            = "SYNC_GAME_ERROR"
	ErrTypeJoin                = "JOIN_ERROR"
	ErrTypeAlreadyJoined       = "ALREADY_JOINED"
	ErrTypeBlacklisted         = "BLACKLISTED"
	ErrTypeRejoinRequestExists = "REJOIN_REQUEST_ALREADY_EXISTS"
	ErrTypeNoMarkedKeys        = "NO_MARKED_KEYS"
	ErrTypeRoomNotFound        = "ROOM_NOT_FOUND"
	ErrTypeAlreadyInReview     = "ALREADY_IN_REVIEW"
	ErrTypeProcessing          = "PROCESSING_ERROR"
)

// Review and rejoin arbitration actions
const (
	ActionContinueGame = "CONTINUE_GAME"
	ActionAccept       = "accept"
	ActionReject       = "reject"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// Message is the wire envelope for every frame in both directions
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type inboundMessage struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is one decoded inbound variant
type Event interface {
	Type() EventType
}

type CreateGame struct {
	RoomID         string     `json:"roomId"`
	BingoCard      *BingoCard `json:"bingoCard"`
	PlayerCapacity int        `json:"playerCapacity"`
}

type JoinGame struct {
	Username string `json:"username"`
}

type StartGame struct{}
type RestartGame struct{}
type FinishGame struct{}
type PauseGame struct{}
type ResumeGame struct{}
type DeleteGame struct{}
type SyncGame struct{}
type NextCall struct{}
type ShuffleCallItems struct{}
type BingoReviewRequest struct{}

type CallReorder struct {
	OldIndex int `json:"oldIndex"`
	NewIndex int `json:"newIndex"`
}

type UpdateGameSettings struct {
	GameSettings Settings `json:"gameSettings"`
}

type UpdatePlayerState struct {
	PlayerStateUpdate
}

type UpdateReviewRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

type RejectBingo struct {
	UserID string `json:"userId"`
}

type RemovePlayer struct {
	UserID string `json:"userId"`
}

// RejoinGame always applies to the requesting connection's own user
type RejoinGame struct{}

type RejoinRequestProcessed struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

func (CreateGame) Type() EventType             { return EventCreateGame }
func (JoinGame) Type() EventType               { return EventJoinGame }
func (StartGame) Type() EventType              { return EventStartGame }
func (RestartGame) Type() EventType            { return EventRestartGame }
func (FinishGame) Type() EventType             { return EventFinishGame }
func (PauseGame) Type() EventType              { return EventPauseGame }
func (ResumeGame) Type() EventType             { return EventResumeGame }
func (DeleteGame) Type() EventType             { return EventDeleteGame }
func (SyncGame) Type() EventType               { return EventSyncGame }
func (NextCall) Type() EventType               { return EventNextCall }
func (ShuffleCallItems) Type() EventType       { return EventShuffleCallItems }
func (CallReorder) Type() EventType            { return EventCallReorder }
func (UpdateGameSettings) Type() EventType     { return EventUpdateGameSettings }
func (UpdatePlayerState) Type() EventType      { return EventUpdatePlayerState }
func (BingoReviewRequest) Type() EventType     { return EventBingoReviewRequest }
func (UpdateReviewRequest) Type() EventType    { return EventUpdateReviewRequest }
func (RejectBingo) Type() EventType            { return EventRejectBingo }
func (RemovePlayer) Type() EventType           { return EventRemovePlayer }
func (RejoinGame) Type() EventType             { return EventRejoinGame }
func (RejoinRequestProcessed) Type() EventType { return EventRejoinRequestProcessed }

var callerOnly = map[EventType]bool{
	EventStartGame:              true,
	EventEndGame:                true,
	EventFinishGame:             true,
	EventNextCall:               true,
	EventShuffleCallItems:       true,
	EventCallReorder:            true,
	EventPauseGame:              true,
	EventResumeGame:             true,
	EventRestartGame:            true,
	EventUpdateGameSettings:     true,
	EventDeleteGame:             true,
	EventUpdateReviewRequest:    true,
	EventRejectBingo:            true,
	EventRemovePlayer:           true,
	EventRejoinRequestProcessed: true,
}

// IsCallerOnly reports whether only a caller connection may send t
func IsCallerOnly(t EventType) bool {
	return callerOnly[t]
}

// DecodeEvent parses a client frame into its typed variant.
// END_GAME decodes to FinishGame.
func DecodeEvent(data []byte) (Event, error) {
	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var ev Event
	switch in.Type {
	case EventCreateGame:
		ev = &CreateGame{}
	case EventJoinGame:
		ev = &JoinGame{}
	case EventStartGame:
		return StartGame{}, nil
	case EventRestartGame:
		return RestartGame{}, nil
	case EventFinishGame, EventEndGame:
		return FinishGame{}, nil
	case EventPauseGame:
		return PauseGame{}, nil
	case EventResumeGame:
		return ResumeGame{}, nil
	case EventDeleteGame:
		return DeleteGame{}, nil
	case EventSyncGame:
		return SyncGame{}, nil
	case EventNextCall:
		return NextCall{}, nil
	case EventShuffleCallItems:
		return ShuffleCallItems{}, nil
	case EventBingoReviewRequest:
		return BingoReviewRequest{}, nil
	case EventRejoinGame:
		return RejoinGame{}, nil
	case EventCallReorder:
		ev = &CallReorder{}
	case EventUpdateGameSettings:
		ev = &UpdateGameSettings{}
	case EventUpdatePlayerState:
		ev = &UpdatePlayerState{}
	case EventUpdateReviewRequest:
		ev = &UpdateReviewRequest{}
	case EventRejectBingo:
		ev = &RejectBingo{}
	case EventRemovePlayer:
		ev = &RemovePlayer{}
	case EventRejoinRequestProcessed:
		ev = &RejoinRequestProcessed{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, in.Type)
	}

	if len(in.Payload) > 0 && string(in.Payload) != "null" {
		if err := json.Unmarshal(in.Payload, ev); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedEvent, in.Type, err)
		}
	}
	return deref(ev), nil
}

// deref returns pointer variants by value so handlers switch on one shape
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *CreateGame:
		return *e
	case *JoinGame:
		return *e
	case *CallReorder:
		return *e
	case *UpdateGameSettings:
		return *e
	case *UpdatePlayerState:
		return *e
	case *UpdateReviewRequest:
		return *e
	case *RejectBingo:
		return *e
	case *RemovePlayer:
		return *e
	case *RejoinRequestProcessed:
		return *e
	}
	return ev
}
