package model

import "github.com/lootcity/gameserver/game/geom"

// Loot is a collectible. While on the ground it is owned by a session;
// once picked up it lives in a dog's bag until deposited at an office.
// Ids are unique across the process.
type Loot struct {
	ID       int
	Type     int
	Position geom.Point2D
}
