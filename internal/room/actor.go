// Package room serializes event processing per room: every room is owned by one
// goroutine that drains its inbox, so handlers never race on the same room.
package room

import (
	"bingohall/internal/model"
	"bingohall/internal/service"
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
)

// Handler processes one event for a room. Reply reports a failure back to the requester.
type Handler interface {
	Handle(ctx context.Context, req service.Request, ev model.Event) error
	Reply(req service.Request, ev model.EventType, err error)
}

// Envelope is one queued event with the connection it came from
type Envelope struct {
	Req   service.Request
	Event model.Event
}

type actor struct {
	id      string
	inbox   chan Envelope
	done    chan struct{}
	stopped chan struct{}
	handler Handler
	timeout time.Duration
	// after is closed once the room's previous actor has drained its inbox
	after <-chan struct{}
}

func newActor(id string, h Handler, inboxSize int, timeout time.Duration, after <-chan struct{}) *actor {
	return &actor{
		id:      id,
		inbox:   make(chan Envelope, inboxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		handler: h,
		timeout: timeout,
		after:   after,
	}
}

func (a *actor) run() {
	defer close(a.stopped)
	if a.after != nil {
		<-a.after
	}
	for {
		select {
		case env := <-a.inbox:
			a.process(env)
		case <-a.done:
			// finish what was already accepted
			for {
				select {
				case env := <-a.inbox:
					a.process(env)
				default:
					return
				}
			}
		}
	}
}

func (a *actor) process(env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	start := time.Now()
	err := a.safeHandle(ctx, env)
	a.handler.Reply(env.Req, env.Event.Type(), err)
	log.Debug().
		Str("room", a.id).
		Str("event", string(env.Event.Type())).
		Dur("took", time.Since(start)).
		Bool("ok", err == nil).
		Msg("event processed")
}

func (a *actor) safeHandle(ctx context.Context, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("room", a.id).
				Str("event", string(env.Event.Type())).
				Bytes("stack", debug.Stack()).
				Msgf("panic in room handler: %v", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.handler.Handle(ctx, env.Req, env.Event)
}

func (a *actor) stop() {
	close(a.done)
}
