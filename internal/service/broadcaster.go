package service

import "bingohall/internal/model"

// Router delivers messages to live connections (avoids import cycle with ws).
// Delivery is best effort: a connection that cannot take a message right now
// simply misses it, and nothing is retried.
type Router interface {
	SendTo(connID string, msg model.Message)
	// Broadcast reaches every connection of the room except the excluded ids
	Broadcast(roomID string, msg model.Message, exclude ...string)
	ConnectionsByRole(roomID string, role model.Role) []string
	ConnectionsByUser(roomID, userID string) []string
	Role(connID string) model.Role
	SetRole(connID string, role model.Role)
}

// Request identifies the connection an event arrived on
type Request struct {
	ConnID string
	RoomID string
	User   *model.Identity
}

func sendAll(r Router, ids []string, msg model.Message) {
	for _, id := range ids {
		r.SendTo(id, msg)
	}
}

func toCallers(r Router, roomID string, msg model.Message) []string {
	ids := r.ConnectionsByRole(roomID, model.RoleCaller)
	sendAll(r, ids, msg)
	return ids
}

// playerConns are the user's connections that are not acting as caller
func playerConns(r Router, roomID, userID string) []string {
	all := r.ConnectionsByUser(roomID, userID)
	out := make([]string, 0, len(all))
	for _, id := range all {
		if r.Role(id) != model.RoleCaller {
			out = append(out, id)
		}
	}
	return out
}

func msg(t string, payload any) model.Message {
	return model.Message{Type: t, Payload: payload}
}
