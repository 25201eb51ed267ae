// Package player tracks who is playing: it mints bearer tokens, maps
// them back to dogs and sessions, and forgets players when their dogs
// retire.
package player

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"

	"github.com/lootcity/gameserver/game/model"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// NewToken returns a fresh 32-character lowercase hex token with 128
// bits of CSPRNG entropy.
func NewToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// IsValidToken reports whether s has the shape of an auth token.
func IsValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// Player binds an auth token to a dog and the session it plays in.
type Player struct {
	id      int
	token   string
	dog     *model.Dog
	session *model.Session
}

// ID returns the player id.
func (p *Player) ID() int { return p.id }

// Token returns the bearer token.
func (p *Player) Token() string { return p.token }

// Dog returns the player's avatar.
func (p *Player) Dog() *model.Dog { return p.dog }

// Session returns the session the player's dog lives in.
func (p *Player) Session() *model.Session { return p.session }

// Registry owns every live player. It is not safe for concurrent use;
// the service layer serializes access.
type Registry struct {
	players []*Player
	byToken map[string]*Player
	nextID  int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byToken: make(map[string]*Player)}
}

// Add mints a player with a fresh token for the given dog and session.
func (r *Registry) Add(dog *model.Dog, session *model.Session) *Player {
	p := &Player{
		id:      r.nextID,
		token:   NewToken(),
		dog:     dog,
		session: session,
	}
	r.nextID++
	r.players = append(r.players, p)
	r.byToken[p.token] = p
	return p
}

// Restore re-creates a player from snapshot data, keeping its original
// id and token. The id counter resumes above every restored id.
func (r *Registry) Restore(id int, token string, dog *model.Dog, session *model.Session) *Player {
	p := &Player{id: id, token: token, dog: dog, session: session}
	if id >= r.nextID {
		r.nextID = id + 1
	}
	r.players = append(r.players, p)
	r.byToken[token] = p
	return p
}

// FindByToken resolves a token by exact match.
func (r *Registry) FindByToken(token string) (*Player, bool) {
	p, ok := r.byToken[token]
	return p, ok
}

// RemoveByDogID drops every player whose dog has the given id.
func (r *Registry) RemoveByDogID(dogID int) {
	remaining := r.players[:0]
	for _, p := range r.players {
		if p.dog.ID() == dogID {
			delete(r.byToken, p.token)
		} else {
			remaining = append(remaining, p)
		}
	}
	r.players = remaining
}

// All returns every live player in registration order.
func (r *Registry) All() []*Player {
	return r.players
}

// Clear drops all players; used before a snapshot restore.
func (r *Registry) Clear() {
	r.players = nil
	r.byToken = make(map[string]*Player)
}

// Count returns the number of live players.
func (r *Registry) Count() int {
	return len(r.players)
}
