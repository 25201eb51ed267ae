package model

import (
	"math/rand"

	"github.com/lootcity/gameserver/game/geom"
	"github.com/lootcity/gameserver/game/lootgen"
)

// Session is the live world of one map: the dogs playing on it and the
// loot lying on the ground. A session is created on the first join to
// its map and lives for the rest of the process.
type Session struct {
	id    int
	m     *Map
	dogs  []*Dog
	loots []Loot
}

// NewSession creates an empty session bound to a map.
func NewSession(id int, m *Map) *Session {
	return &Session{id: id, m: m}
}

// ID returns the session id.
func (s *Session) ID() int { return s.id }

// Map returns the map this session runs on.
func (s *Session) Map() *Map { return s.m }

// Dogs returns the dogs currently in the session.
func (s *Session) Dogs() []*Dog { return s.dogs }

// Loots returns the loot currently on the ground.
func (s *Session) Loots() []Loot { return s.loots }

// AddDog places a dog into the session.
func (s *Session) AddDog(d *Dog) {
	s.dogs = append(s.dogs, d)
}

// SetDogs replaces the dog list; used on snapshot restore.
func (s *Session) SetDogs(dogs []*Dog) {
	s.dogs = dogs
}

// SetLoots replaces the ground loot; used on snapshot restore.
func (s *Session) SetLoots(loots []Loot) {
	s.loots = loots
}

// Tick advances the session by dt milliseconds: every dog moves, the
// collision detector pairs the swept dogs with ground loot and offices
// in time order, pickups and deposits are applied, fresh loot spawns,
// and dogs idle past the retire threshold are removed. Removed dogs are
// returned so the caller can persist their records and drop their
// players.
//
// Loot spawned this tick lands after collision detection ran, so it
// cannot be picked up before the next tick.
func (s *Session) Tick(dtMS int64, gen *lootgen.Generator, counters *Counters, rng *rand.Rand, retireThresholdMS int64) []*Dog {
	gatherers := make([]geom.Gatherer, 0, len(s.dogs))
	for _, dog := range s.dogs {
		before := dog.Position()
		dog.Tick(dtMS, s.m)
		gatherers = append(gatherers, geom.Gatherer{
			Start: before,
			End:   dog.Position(),
			Width: DogWidth,
		})
	}

	// Items are ground loot first, offices after; an item index below
	// lootCount is a pickup, anything else is a deposit.
	lootCount := len(s.loots)
	items := make([]geom.Item, 0, lootCount+len(s.m.Offices()))
	for _, l := range s.loots {
		items = append(items, geom.Item{Position: l.Position, Width: LootWidth})
	}
	for _, office := range s.m.Offices() {
		items = append(items, geom.Item{
			Position: geom.Point2D{X: float64(office.Position.X), Y: float64(office.Position.Y)},
			Width:    OfficeWidth,
		})
	}

	taken := make(map[int]bool)
	for _, event := range geom.FindGatherEvents(gatherers, items) {
		dog := s.dogs[event.GathererID]

		if event.ItemID < lootCount {
			if taken[event.ItemID] || dog.BagIsFull() {
				continue
			}
			if dog.TakeLoot(s.loots[event.ItemID]) {
				taken[event.ItemID] = true
			}
		} else {
			dog.UnloadBag(s.m)
		}
	}

	if len(taken) > 0 {
		remaining := s.loots[:0]
		for i, l := range s.loots {
			if !taken[i] {
				remaining = append(remaining, l)
			}
		}
		s.loots = remaining
	}

	s.spawnLoot(dtMS, gen, counters, rng)

	return s.retireIdle(retireThresholdMS)
}

func (s *Session) spawnLoot(dtMS int64, gen *lootgen.Generator, counters *Counters, rng *rand.Rand) {
	if gen == nil || s.m.LootTypeCount() == 0 || len(s.m.Roads()) == 0 {
		return
	}

	count := gen.Generate(dtMS, len(s.loots), len(s.dogs))
	for i := 0; i < count; i++ {
		s.loots = append(s.loots, Loot{
			ID:       counters.NextLoot(),
			Type:     rng.Intn(s.m.LootTypeCount()),
			Position: s.m.RandomPoint(rng),
		})
	}
}

func (s *Session) retireIdle(thresholdMS int64) []*Dog {
	var retired []*Dog
	remaining := s.dogs[:0]
	for _, dog := range s.dogs {
		if dog.IsRetiring(thresholdMS) {
			retired = append(retired, dog)
		} else {
			remaining = append(remaining, dog)
		}
	}
	s.dogs = remaining
	return retired
}
