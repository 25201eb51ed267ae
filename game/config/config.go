// Package config loads the game description file: the world defaults,
// the loot generator parameters and every map with its roads, buildings,
// offices and loot table.
package config

import "encoding/json"

// Config is the top level of the game description file. Optional fields
// are pointers so an absent value can be told apart from an explicit
// zero.
type Config struct {
	DefaultDogSpeed    *float64        `json:"defaultDogSpeed,omitempty"`
	DefaultBagCapacity *int            `json:"defaultBagCapacity,omitempty"`
	DogRetirementTime  *float64        `json:"dogRetirementTime,omitempty"` // seconds
	LootGenerator      LootGenConfig   `json:"lootGeneratorConfig"`
	Maps               []MapConfig     `json:"maps"`
}

// LootGenConfig parameterizes the loot spawner.
type LootGenConfig struct {
	PeriodMS    float64 `json:"period"`
	Probability float64 `json:"probability"`
}

// MapConfig describes one map. DogSpeed and BagCapacity are per-map
// overrides of the game defaults.
type MapConfig struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DogSpeed    *float64          `json:"dogSpeed,omitempty"`
	BagCapacity *int              `json:"bagCapacity,omitempty"`
	Roads       []RoadConfig      `json:"roads"`
	Buildings   []BuildingConfig  `json:"buildings"`
	Offices     []OfficeConfig    `json:"offices"`
	LootTypes   []json.RawMessage `json:"lootTypes"`
}

// RoadConfig is an authored road: exactly one of X1 (horizontal) or Y1
// (vertical) is present.
type RoadConfig struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

// BuildingConfig is an authored building rectangle.
type BuildingConfig struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// OfficeConfig is an authored deposit office.
type OfficeConfig struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// lootTypeFields is the subset of a loot descriptor the simulation
// needs; the rest of the descriptor is echoed to clients untouched.
type lootTypeFields struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}
