package model

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lootcity/gameserver/game/lootgen"
)

// ErrMapNotFound is returned by Join when the requested map id does not
// exist.
var ErrMapNotFound = errors.New("map not found")

// DefaultRetireThresholdMS is the idle time after which a dog retires.
const DefaultRetireThresholdMS = 60_000

// PlayerRecord is the final record of a retired dog, persisted to the
// retired-record sink.
type PlayerRecord struct {
	Name       string
	Score      int
	PlayTimeMS int64
}

// Retired pairs a retirement record with the id of the dog it belongs
// to, so the caller can drop the matching player from its registry.
type Retired struct {
	DogID  int
	Record PlayerRecord
}

// Game is the world aggregate: the map table, the live sessions, the
// global defaults and the id counters. It performs no locking of its
// own; all access is serialized by the service layer.
type Game struct {
	maps     []*Map
	mapIndex map[string]int

	sessions []*Session

	defaultDogSpeed    float64
	defaultBagCapacity int
	retireThresholdMS  int64

	randomizeSpawn bool
	testMode       bool

	gen      *lootgen.Generator
	counters Counters
	rng      *rand.Rand
}

// NewGame creates a game with the standard defaults and a time-seeded
// simulation RNG.
func NewGame() *Game {
	return &Game{
		mapIndex:           make(map[string]int),
		defaultDogSpeed:    DefaultDogSpeed,
		defaultBagCapacity: DefaultBagCapacity,
		retireThresholdMS:  DefaultRetireThresholdMS,
		testMode:           true,
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddMap registers a map; map ids must be unique.
func (g *Game) AddMap(m *Map) error {
	if _, exists := g.mapIndex[m.ID()]; exists {
		return fmt.Errorf("map with id %q already exists", m.ID())
	}
	g.mapIndex[m.ID()] = len(g.maps)
	g.maps = append(g.maps, m)
	return nil
}

// Maps returns all maps in registration order.
func (g *Game) Maps() []*Map {
	return g.maps
}

// FindMap resolves a map id.
func (g *Game) FindMap(id string) (*Map, bool) {
	i, ok := g.mapIndex[id]
	if !ok {
		return nil, false
	}
	return g.maps[i], true
}

// Sessions returns the live sessions in registration order.
func (g *Game) Sessions() []*Session {
	return g.sessions
}

// SetSessions replaces the session list; used on snapshot restore.
func (g *Game) SetSessions(sessions []*Session) {
	g.sessions = sessions
}

// Counters exposes the id counters for snapshot restore.
func (g *Game) Counters() *Counters {
	return &g.counters
}

// SetDefaultDogSpeed sets the game-wide dog speed default.
func (g *Game) SetDefaultDogSpeed(speed float64) {
	g.defaultDogSpeed = speed
}

// SetDefaultBagCapacity sets the game-wide bag capacity default.
func (g *Game) SetDefaultBagCapacity(capacity int) {
	g.defaultBagCapacity = capacity
}

// SetRetireThreshold sets the idle time after which dogs retire.
func (g *Game) SetRetireThreshold(thresholdMS int64) {
	g.retireThresholdMS = thresholdMS
}

// RetireThresholdMS returns the configured retire threshold.
func (g *Game) RetireThresholdMS() int64 {
	return g.retireThresholdMS
}

// SetRandomizeSpawn toggles random spawn points. When off, every dog
// spawns at the start of its map's first road.
func (g *Game) SetRandomizeSpawn(randomize bool) {
	g.randomizeSpawn = randomize
}

// SetTestMode marks whether external tick requests are honored. The
// server disables test mode when it runs an internal ticker.
func (g *Game) SetTestMode(enabled bool) {
	g.testMode = enabled
}

// InTestMode reports whether external tick requests are honored.
func (g *Game) InTestMode() bool {
	return g.testMode
}

// SetLootGenerator installs the loot spawner shared by all sessions.
func (g *Game) SetLootGenerator(gen *lootgen.Generator) {
	g.gen = gen
}

// SetRand replaces the simulation RNG; tests install a deterministic
// source.
func (g *Game) SetRand(rng *rand.Rand) {
	g.rng = rng
}

// Join creates a dog for the named player on the given map, spawns it,
// and adds it to the map's session, creating the session on first join.
// Map overrides of speed and bag capacity win over the game defaults.
func (g *Game) Join(userName, mapID string) (*Dog, *Session, error) {
	m, ok := g.FindMap(mapID)
	if !ok {
		return nil, nil, ErrMapNotFound
	}

	dog := NewDog(g.counters.NextDog(), userName)

	if speed, ok := m.DogSpeed(); ok {
		dog.SetMapSpeed(speed)
	} else {
		dog.SetMapSpeed(g.defaultDogSpeed)
	}

	if capacity, ok := m.BagCapacity(); ok {
		dog.SetBagCapacity(capacity)
	} else {
		dog.SetBagCapacity(g.defaultBagCapacity)
	}

	if g.randomizeSpawn {
		dog.SetPosition(m.RandomPoint(g.rng))
	} else {
		dog.SetPosition(m.FirstPoint())
	}

	session := g.findSession(mapID)
	if session == nil {
		session = NewSession(g.counters.NextSession(), m)
		g.sessions = append(g.sessions, session)
	}
	session.AddDog(dog)

	return dog, session, nil
}

func (g *Game) findSession(mapID string) *Session {
	for _, s := range g.sessions {
		if s.Map().ID() == mapID {
			return s
		}
	}
	return nil
}

// Tick advances every session by dt milliseconds in registration order
// and returns the records of every dog that retired this tick.
func (g *Game) Tick(dtMS int64) []Retired {
	var retired []Retired
	for _, session := range g.sessions {
		for _, dog := range session.Tick(dtMS, g.gen, &g.counters, g.rng, g.retireThresholdMS) {
			retired = append(retired, Retired{
				DogID: dog.ID(),
				Record: PlayerRecord{
					Name:       dog.Name(),
					Score:      dog.Score(),
					PlayTimeMS: dog.FullTimeMS(),
				},
			})
		}
	}
	return retired
}
