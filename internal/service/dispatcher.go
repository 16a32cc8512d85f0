package service

import (
	"bingohall/internal/model"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Dispatcher routes one decoded event to the service that owns it
type Dispatcher struct {
	rooms   *RoomService
	players *PlayerService
	router  Router
}

func NewDispatcher(rooms *RoomService, players *PlayerService, router Router) *Dispatcher {
	return &Dispatcher{rooms: rooms, players: players, router: router}
}

// Handle runs ev for the requester. A *GameError is returned as-is so the
// caller can reply with it; other errors are unexpected faults.
func (d *Dispatcher) Handle(ctx context.Context, req Request, ev model.Event) error {
	if model.IsCallerOnly(ev.Type()) && d.router.Role(req.ConnID) != model.RoleCaller {
		return Unauthorized("only the caller can " + string(ev.Type()))
	}

	switch e := ev.(type) {
	case model.CreateGame:
		return d.rooms.CreateGame(ctx, req, e)
	case model.StartGame:
		return d.rooms.StartGame(ctx, req)
	case model.NextCall:
		return d.rooms.NextCall(ctx, req)
	case model.ShuffleCallItems:
		return d.rooms.ShuffleCallItems(ctx, req)
	case model.CallReorder:
		return d.rooms.CallReorder(ctx, req, e)
	case model.PauseGame:
		return d.rooms.PauseGame(ctx, req)
	case model.ResumeGame:
		return d.rooms.ResumeGame(ctx, req)
	case model.RestartGame:
		return d.rooms.RestartGame(ctx, req)
	case model.FinishGame:
		return d.rooms.FinishGame(ctx, req)
	case model.UpdateGameSettings:
		return d.rooms.UpdateGameSettings(ctx, req, e)
	case model.DeleteGame:
		return d.rooms.DeleteGame(ctx, req)
	case model.SyncGame:
		return d.rooms.SyncGame(ctx, req)

	case model.JoinGame:
		return d.players.JoinGame(ctx, req, e)
	case model.RemovePlayer:
		return d.players.RemovePlayer(ctx, req, e)
	case model.RejoinGame:
		return d.players.RejoinGame(ctx, req)
	case model.RejoinRequestProcessed:
		return d.players.ProcessRejoinRequest(ctx, req, e)
	case model.UpdatePlayerState:
		return d.players.UpdatePlayerState(ctx, req, e)
	case model.BingoReviewRequest:
		return d.players.RequestBingoReview(ctx, req)
	case model.UpdateReviewRequest:
		return d.players.UpdateReviewRequest(ctx, req, e)
	case model.RejectBingo:
		return d.players.RejectBingo(ctx, req, e)
	}
	return fmt.Errorf("%w: %s", model.ErrUnknownEvent, ev.Type())
}

// Reply reports err to the requesting connection. Unexpected errors are
// logged and replaced with a generic processing error.
func (d *Dispatcher) Reply(req Request, ev model.EventType, err error) {
	if err == nil {
		return
	}
	var gerr *GameError
	if !errors.As(err, &gerr) {
		l := log.Error().Err(err).Str("room", req.RoomID).Str("event", string(ev))
		if req.User != nil {
			l = l.Str("user", req.User.ID)
		}
		l.Msg("event failed")
		gerr = Processing()
	}
	d.router.SendTo(req.ConnID, gerr.Envelope())
}
