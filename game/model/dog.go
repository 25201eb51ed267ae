package model

import "github.com/lootcity/gameserver/game/geom"

const millisecondsInSecond = 1000.0

// Direction is a dog's facing on the map. North is negative Y.
type Direction int

const (
	North Direction = iota
	South
	West
	East
)

// String returns the wire encoding of the direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "U"
	case South:
		return "D"
	case West:
		return "L"
	case East:
		return "R"
	}
	return "U"
}

// Defaults applied to every dog unless the game or its map overrides
// them.
const (
	DefaultDogSpeed    = 1.0
	DefaultBagCapacity = 3
)

// Dog is one player's avatar. It is mutated only by its owning session
// during a tick or by a direction command dispatched on the same
// serialized path.
type Dog struct {
	id   int
	name string

	pos   geom.Point2D
	speed geom.Vec2D
	dir   Direction

	mapSpeed    float64
	bagCapacity int

	bag   []Loot
	score int

	fullTimeMS int64
	idleTimeMS int64
}

// NewDog creates a dog with the default speed and bag capacity.
func NewDog(id int, name string) *Dog {
	return &Dog{
		id:          id,
		name:        name,
		dir:         North,
		mapSpeed:    DefaultDogSpeed,
		bagCapacity: DefaultBagCapacity,
	}
}

// ID returns the dog id.
func (d *Dog) ID() int { return d.id }

// Name returns the player name the dog was created with.
func (d *Dog) Name() string { return d.name }

// Position returns the current map position.
func (d *Dog) Position() geom.Point2D { return d.pos }

// SetPosition places the dog; used on spawn and on snapshot restore.
func (d *Dog) SetPosition(p geom.Point2D) { d.pos = p }

// Speed returns the current velocity.
func (d *Dog) Speed() geom.Vec2D { return d.speed }

// SetSpeed overrides the velocity; used on snapshot restore.
func (d *Dog) SetSpeed(v geom.Vec2D) { d.speed = v }

// Facing returns the current direction.
func (d *Dog) Facing() Direction { return d.dir }

// SetFacing overrides the direction; used on snapshot restore.
func (d *Dog) SetFacing(dir Direction) { d.dir = dir }

// MapSpeed returns the speed magnitude applied to direction commands.
func (d *Dog) MapSpeed() float64 { return d.mapSpeed }

// SetMapSpeed sets the speed magnitude for this dog.
func (d *Dog) SetMapSpeed(speed float64) { d.mapSpeed = speed }

// BagCapacity returns the bag size limit.
func (d *Dog) BagCapacity() int { return d.bagCapacity }

// SetBagCapacity sets the bag size limit.
func (d *Dog) SetBagCapacity(capacity int) { d.bagCapacity = capacity }

// Bag returns the carried loot in pickup order.
func (d *Dog) Bag() []Loot { return d.bag }

// SetBag replaces the bag contents; used on snapshot restore.
func (d *Dog) SetBag(bag []Loot) { d.bag = bag }

// Score returns the accumulated score.
func (d *Dog) Score() int { return d.score }

// SetScore overrides the score; used on snapshot restore.
func (d *Dog) SetScore(score int) { d.score = score }

// FullTimeMS returns the total lifetime of the dog in milliseconds.
func (d *Dog) FullTimeMS() int64 { return d.fullTimeMS }

// IdleTimeMS returns how long the dog has been stationary.
func (d *Dog) IdleTimeMS() int64 { return d.idleTimeMS }

// SetTimes overrides the lifetime counters; used on snapshot restore.
func (d *Dog) SetTimes(fullMS, idleMS int64) {
	d.fullTimeMS = fullMS
	d.idleTimeMS = idleMS
}

// SetDirection applies a movement command. A non-empty command sets the
// facing and the velocity to the map speed on the matching axis; the
// empty command stops the dog but leaves its facing unchanged.
func (d *Dog) SetDirection(cmd string) bool {
	switch cmd {
	case "L":
		d.dir = West
		d.speed = geom.Vec2D{X: -d.mapSpeed}
	case "R":
		d.dir = East
		d.speed = geom.Vec2D{X: d.mapSpeed}
	case "U":
		d.dir = North
		d.speed = geom.Vec2D{Y: -d.mapSpeed}
	case "D":
		d.dir = South
		d.speed = geom.Vec2D{Y: d.mapSpeed}
	case "":
		d.speed = geom.Vec2D{}
	default:
		return false
	}
	return true
}

// BagIsFull reports whether the dog can take more loot.
func (d *Dog) BagIsFull() bool {
	return len(d.bag) >= d.bagCapacity
}

// TakeLoot moves a loot item into the bag. It reports false when the
// bag is already full.
func (d *Dog) TakeLoot(l Loot) bool {
	if d.BagIsFull() {
		return false
	}
	d.bag = append(d.bag, l)
	return true
}

// UnloadBag converts every carried item into score using the map's loot
// values and empties the bag.
func (d *Dog) UnloadBag(m *Map) {
	for _, l := range d.bag {
		d.score += m.LootValue(l.Type)
	}
	d.bag = nil
}

// IsRetiring reports whether the dog has been idle at least the retire
// threshold.
func (d *Dog) IsRetiring(thresholdMS int64) bool {
	return d.idleTimeMS >= thresholdMS
}

// Tick advances the dog by dt milliseconds: lifetime counters first,
// then movement clamped to the map's road network.
func (d *Dog) Tick(dtMS int64, m *Map) {
	d.fullTimeMS += dtMS
	if d.speed.IsZero() {
		d.idleTimeMS += dtMS
	} else {
		d.idleTimeMS = 0
	}

	d.move(dtMS, m)
}

// move resolves one tick of motion. If any single road contains both the
// start and the candidate end, the move commits unchanged; crossing into
// an adjoining road at a junction is allowed this way. Otherwise the dog
// stops at the farthest reachable point on any road it currently stands
// on and its velocity is zeroed so later ticks do not drift into the
// wall.
func (d *Dog) move(dtMS int64, m *Map) {
	if d.speed.IsZero() {
		return
	}

	dt := float64(dtMS) / millisecondsInSecond
	target := d.pos.Add(d.speed.Scale(dt))

	roads := m.Roads()
	for _, road := range roads {
		if road.Contains(d.pos) && road.Contains(target) {
			d.pos = target
			return
		}
	}

	best := d.pos
	bestDist := -1.0
	for _, road := range roads {
		if !road.Contains(d.pos) {
			continue
		}
		clamped := road.Clamp(d.pos, target)
		dist := abs(clamped.X-d.pos.X) + abs(clamped.Y-d.pos.Y)
		if dist > bestDist {
			best = clamped
			bestDist = dist
		}
	}

	d.pos = best
	d.speed = geom.Vec2D{}
}
