package service

import (
	"bingohall/internal/model"
	"fmt"
)

// GameError is a failure reported to the requesting connection only.
// Type is the machine readable tag sent as the message type.
type GameError struct {
	Type    string
	Message string
	Extra   map[string]any
	Err     error
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return e.Type + ": " + e.Message
}

func (e *GameError) Unwrap() error { return e.Err }

// Payload is the body sent to the client
func (e *GameError) Payload() map[string]any {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["message"] = e.Message
	if e.Err != nil {
		out["error"] = e.Err.Error()
	}
	return out
}

// Envelope wraps the error in the wire message
func (e *GameError) Envelope() model.Message {
	return model.Message{Type: e.Type, Payload: e.Payload()}
}

func Unauthorized(msg string) *GameError {
	return &GameError{Type: model.ErrTypeGeneric, Message: "Unauthorized: " + msg}
}

func Validation(msg string, err error) *GameError {
	return &GameError{Type: model.ErrTypeGeneric, Message: msg, Err: err}
}

func CallerError(msg string) *GameError {
	return &GameError{Type: model.ErrTypeCaller, Message: msg}
}

func Conflict(tag, msg string) *GameError {
	return &GameError{Type: tag, Message: msg}
}

func NotFound() *GameError {
	return &GameError{Type: model.ErrTypeRoomNotFound, Message: "Room not created"}
}

func Upstream(err error) *GameError {
	return &GameError{Type: model.ErrTypeGeneric, Message: err.Error()}
}

func ReviewError(msg string) *GameError {
	return &GameError{Type: model.ErrTypeReviewRequest, Message: msg}
}

// Processing is the generic reply for a fault the requester cannot act on
func Processing() *GameError {
	return &GameError{Type: model.ErrTypeProcessing, Message: "Error processing game event"}
}
