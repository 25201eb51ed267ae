package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lootcity/gameserver/game/model"
)

// Typed failures the HTTP layer maps onto stable error codes.
var (
	ErrInvalidName   = errors.New("invalid user name")
	ErrUnknownToken  = errors.New("player token has not been found")
	ErrInvalidMove   = errors.New("invalid move command")
	ErrNotInTestMode = errors.New("external ticks are disabled")
)

// RecordSink is the retired-record store: append a record when a dog
// retires, read a page for the leaderboard. Production wires the
// PostgreSQL store; tests wire an in-memory fake.
type RecordSink interface {
	SaveRecord(ctx context.Context, record model.PlayerRecord) error
	Records(ctx context.Context, start, maxItems int) ([]model.PlayerRecord, error)
}

// StatePublisher receives every session's state after each tick. The
// websocket hub implements it.
type StatePublisher interface {
	PublishState(sessionID int, state any)
}

// MapSummary is one row of the map list.
type MapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoadView is a road in the shape it was authored in: exactly one of
// X1 or Y1 is present.
type RoadView struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

// BuildingView is a building rectangle.
type BuildingView struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// OfficeView is a deposit office.
type OfficeView struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// MapView is the full map payload. Loot type descriptors are echoed
// exactly as they were authored in the game description file.
type MapView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Roads     []RoadView        `json:"roads"`
	Buildings []BuildingView    `json:"buildings"`
	Offices   []OfficeView      `json:"offices"`
	LootTypes []json.RawMessage `json:"lootTypes"`
}

// JoinResult is the response to a successful join.
type JoinResult struct {
	AuthToken string `json:"authToken"`
	PlayerID  int    `json:"playerId"`
}

// BagItem is one carried loot item.
type BagItem struct {
	ID   int `json:"id"`
	Type int `json:"type"`
}

// PlayerView is one dog's public state.
type PlayerView struct {
	Pos   [2]float64 `json:"pos"`
	Speed [2]float64 `json:"speed"`
	Dir   string     `json:"dir"`
	Bag   []BagItem  `json:"bag"`
	Score int        `json:"score"`
}

// LostObject is one loot item lying on the ground.
type LostObject struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

// StateView is the full session view returned by the state query and
// streamed to websocket subscribers: dogs keyed by dog id, ground loot
// keyed by loot id.
type StateView struct {
	Players     map[string]PlayerView `json:"players"`
	LostObjects map[string]LostObject `json:"lostObjects"`
}

// RecordEntry is one leaderboard row. Play time is in seconds.
type RecordEntry struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}
