package model

import "github.com/golang-jwt/jwt/v5"

// Role is the routing tag a connection carries inside its room
type Role string

const (
	RoleCaller Role = "caller"
	RolePlayer Role = "player"
)

// Identity is the verified user behind a connection, trusted for its lifetime
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Picture  string `json:"picture"`
}

// TokenClaims are the JWT claims issued by the account service
type TokenClaims struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Picture   *string `json:"picture"`
	CreatedAt string  `json:"createdAt,omitempty"`
	jwt.RegisteredClaims
}

// Identity extracts the connection identity from verified claims
func (c *TokenClaims) Identity() *Identity {
	id := &Identity{ID: c.ID, Username: c.Username}
	if c.Picture != nil {
		id.Picture = *c.Picture
	}
	return id
}
