package model

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/lootcity/gameserver/game/geom"
)

// Building is a decorative rectangle; it does not take part in the
// simulation but is echoed back to clients on map queries.
type Building struct {
	X int
	Y int
	W int
	H int
}

// IntOffset is the rendering offset of an office sign.
type IntOffset struct {
	DX int
	DY int
}

// Office is a stationary deposit point: a dog touching it empties its
// bag into its score.
type Office struct {
	ID       string
	Position IntPoint
	Offset   IntOffset
}

// LootType describes one collectible kind on a map. Raw carries the
// descriptor exactly as authored in the config so map queries can echo
// it back verbatim.
type LootType struct {
	Name  string
	Value int
	Raw   json.RawMessage
}

// Map is an immutable description of one game world: the road network,
// buildings, offices and loot table, plus optional per-map overrides of
// the game defaults.
type Map struct {
	id   string
	name string

	roads     []Road
	buildings []Building
	offices   []Office

	officeIndex map[string]int

	lootTypes  []LootType
	lootByName map[string]int

	// Per-map overrides; nil means "use the game default".
	dogSpeed    *float64
	bagCapacity *int
}

// NewMap creates an empty map with the given id and display name.
func NewMap(id, name string) *Map {
	return &Map{
		id:          id,
		name:        name,
		officeIndex: make(map[string]int),
		lootByName:  make(map[string]int),
	}
}

// ID returns the map id.
func (m *Map) ID() string {
	return m.id
}

// Name returns the display name.
func (m *Map) Name() string {
	return m.name
}

// Roads returns the road network.
func (m *Map) Roads() []Road {
	return m.roads
}

// Buildings returns the building list.
func (m *Map) Buildings() []Building {
	return m.buildings
}

// Offices returns the deposit offices.
func (m *Map) Offices() []Office {
	return m.offices
}

// AddRoad appends a road to the network.
func (m *Map) AddRoad(r Road) {
	m.roads = append(m.roads, r)
}

// AddBuilding appends a building.
func (m *Map) AddBuilding(b Building) {
	m.buildings = append(m.buildings, b)
}

// AddOffice appends an office; office ids must be unique within a map.
func (m *Map) AddOffice(o Office) error {
	if _, exists := m.officeIndex[o.ID]; exists {
		return fmt.Errorf("duplicate office %q on map %q", o.ID, m.id)
	}
	m.officeIndex[o.ID] = len(m.offices)
	m.offices = append(m.offices, o)
	return nil
}

// AddLootType appends a loot descriptor; the type index is its position
// in the table.
func (m *Map) AddLootType(lt LootType) {
	m.lootByName[lt.Name] = len(m.lootTypes)
	m.lootTypes = append(m.lootTypes, lt)
}

// LootTypes returns the loot table in index order.
func (m *Map) LootTypes() []LootType {
	return m.lootTypes
}

// LootTypeCount returns the number of loot kinds on this map.
func (m *Map) LootTypeCount() int {
	return len(m.lootTypes)
}

// LootValue returns the score value of the given loot type index.
func (m *Map) LootValue(typeIndex int) int {
	if typeIndex < 0 || typeIndex >= len(m.lootTypes) {
		return 0
	}
	return m.lootTypes[typeIndex].Value
}

// LootTypeIndex resolves a loot display name to its type index.
func (m *Map) LootTypeIndex(name string) (int, bool) {
	i, ok := m.lootByName[name]
	return i, ok
}

// SetDogSpeed sets the per-map speed override.
func (m *Map) SetDogSpeed(speed float64) {
	m.dogSpeed = &speed
}

// DogSpeed returns the per-map speed override, if present.
func (m *Map) DogSpeed() (float64, bool) {
	if m.dogSpeed == nil {
		return 0, false
	}
	return *m.dogSpeed, true
}

// SetBagCapacity sets the per-map bag capacity override.
func (m *Map) SetBagCapacity(capacity int) {
	m.bagCapacity = &capacity
}

// BagCapacity returns the per-map bag capacity override, if present.
func (m *Map) BagCapacity() (int, bool) {
	if m.bagCapacity == nil {
		return 0, false
	}
	return *m.bagCapacity, true
}

// RandomPoint picks a road uniformly by index and a distance uniformly
// along it.
func (m *Map) RandomPoint(rng *rand.Rand) geom.Point2D {
	road := m.roads[rng.Intn(len(m.roads))]
	return road.PointAt(rng.Float64() * road.Len())
}

// FirstPoint returns the start of the first road: the deterministic
// spawn used when spawn randomization is off.
func (m *Map) FirstPoint() geom.Point2D {
	start := m.roads[0].Start()
	return geom.Point2D{X: float64(start.X), Y: float64(start.Y)}
}
