package model

import "slices"

// PlayerStatus is a player's standing in one room
type PlayerStatus string

const (
	PlayerNotJoined   PlayerStatus = "NOT_JOINED"
	PlayerJoined      PlayerStatus = "JOINED"
	PlayerLeft        PlayerStatus = "LEFT"
	PlayerRemoved     PlayerStatus = "REMOVED"
	PlayerBlacklisted PlayerStatus = "BLACKLISTED"
)

// Player is the public, identity-only view of a participant
type Player struct {
	UserID   string       `json:"userId" bson:"userId"`
	Username string       `json:"username" bson:"username"`
	Picture  string       `json:"picture" bson:"picture"`
	Status   PlayerStatus `json:"status" bson:"status"`
}

// PlayerState is the durable per-user record of a room, independent of any connection
type PlayerState struct {
	UserID           string       `json:"userId"`
	Username         string       `json:"username"`
	Picture          string       `json:"picture"`
	Status           PlayerStatus `json:"status"`
	CardItems        CallItems    `json:"cardItems"`
	MarkedKeys       []int        `json:"markedKeys"`
	HasWon           bool         `json:"hasWon"`
	WonAt            int          `json:"wonAt"`
	UserGameSettings Settings     `json:"userGameSettings"`
}

// Summary returns the redacted view other participants may see
func (p *PlayerState) Summary() Player {
	return Player{
		UserID:   p.UserID,
		Username: p.Username,
		Picture:  p.Picture,
		Status:   p.Status,
	}
}

// Clone returns a deep copy of the state
func (p *PlayerState) Clone() *PlayerState {
	c := *p
	c.CardItems = p.CardItems.Clone()
	c.MarkedKeys = slices.Clone(p.MarkedKeys)
	if c.MarkedKeys == nil {
		c.MarkedKeys = []int{}
	}
	c.UserGameSettings = p.UserGameSettings.Clone()
	return &c
}

// ResetCard gives the player a fresh card and clears win progress
func (p *PlayerState) ResetCard(card CallItems) {
	p.CardItems = card
	p.MarkedKeys = []int{}
	p.HasWon = false
	p.WonAt = 0
}

// PlayerStateUpdate is the partial state a player may merge into their own record
type PlayerStateUpdate struct {
	MarkedKeys       *[]int   `json:"markedKeys,omitempty"`
	UserGameSettings Settings `json:"userGameSettings,omitempty"`
}

// Apply merges u into p
func (p *PlayerState) Apply(u PlayerStateUpdate) {
	if u.MarkedKeys != nil {
		p.MarkedKeys = slices.Clone(*u.MarkedKeys)
		if p.MarkedKeys == nil {
			p.MarkedKeys = []int{}
		}
	}
	if u.UserGameSettings != nil {
		p.UserGameSettings = p.UserGameSettings.Merge(u.UserGameSettings)
	}
}

// WinnerEntry is appended to a room's winner list when a claim is accepted
type WinnerEntry struct {
	Player `bson:",inline"`
	WonAt  int `json:"wonAt" bson:"wonAt"`
}

// Summaries maps states to their public views
func Summaries(states []*PlayerState) []Player {
	out := make([]Player, 0, len(states))
	for _, s := range states {
		out = append(out, s.Summary())
	}
	return out
}

// FilterByStatus returns the states with the given status, preserving order
func FilterByStatus(states []*PlayerState, status PlayerStatus) []*PlayerState {
	out := make([]*PlayerState, 0, len(states))
	for _, s := range states {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}
