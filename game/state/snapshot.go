// Package state captures and restores the whole world: every loot item,
// dog, session and player, plus the id counters. The archive is an
// implementation-private gob stream; its only contract is that a save
// followed by a load reproduces the same world.
package state

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/lootcity/gameserver/game/geom"
	"github.com/lootcity/gameserver/game/model"
	"github.com/lootcity/gameserver/game/player"
)

type lootRepr struct {
	ID   int
	Type int
	X, Y float64
}

type dogRepr struct {
	ID          int
	Name        string
	X, Y        float64
	SpeedX      float64
	SpeedY      float64
	Dir         int
	MapSpeed    float64
	BagCapacity int
	Score       int
	BagLootIDs  []int
	FullTimeMS  int64
	IdleTimeMS  int64
}

type sessionRepr struct {
	ID      int
	MapID   string
	LootIDs []int
	DogIDs  []int
}

type playerRepr struct {
	ID        int
	Token     string
	DogID     int
	SessionID int
}

// archive is the on-disk layout: loot first, then dogs, sessions and
// players, exactly the order the loader rebuilds them in.
type archive struct {
	Loots    []lootRepr
	Dogs     []dogRepr
	Sessions []sessionRepr
	Players  []playerRepr
}

// Save writes a point-in-time capture of the world to path. The archive
// is written to a temp file and renamed over the destination, so a
// failed save leaves any previous snapshot intact.
func Save(path string, game *model.Game, registry *player.Registry) error {
	var a archive

	for _, session := range game.Sessions() {
		for _, l := range session.Loots() {
			a.Loots = append(a.Loots, lootRepr{ID: l.ID, Type: l.Type, X: l.Position.X, Y: l.Position.Y})
		}
		for _, dog := range session.Dogs() {
			for _, l := range dog.Bag() {
				a.Loots = append(a.Loots, lootRepr{ID: l.ID, Type: l.Type, X: l.Position.X, Y: l.Position.Y})
			}
		}
	}

	for _, session := range game.Sessions() {
		for _, dog := range session.Dogs() {
			a.Dogs = append(a.Dogs, dumpDog(dog))
		}
	}

	for _, session := range game.Sessions() {
		sr := sessionRepr{ID: session.ID(), MapID: session.Map().ID()}
		for _, l := range session.Loots() {
			sr.LootIDs = append(sr.LootIDs, l.ID)
		}
		for _, dog := range session.Dogs() {
			sr.DogIDs = append(sr.DogIDs, dog.ID())
		}
		a.Sessions = append(a.Sessions, sr)
	}

	for _, p := range registry.All() {
		a.Players = append(a.Players, playerRepr{
			ID:        p.ID(),
			Token:     p.Token(),
			DogID:     p.Dog().ID(),
			SessionID: p.Session().ID(),
		})
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(&a); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// Load restores the world from a snapshot at path. Loot is rebuilt
// first, then dogs pick up their bags by loot id, sessions reattach
// their dogs and ground loot, and players reattach their dogs and
// sessions. The id counters resume above the highest restored ids.
func Load(path string, game *model.Game, registry *player.Registry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	var a archive
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	lootByID := make(map[int]model.Loot, len(a.Loots))
	maxLoot := -1
	for _, lr := range a.Loots {
		lootByID[lr.ID] = model.Loot{ID: lr.ID, Type: lr.Type, Position: geom.Point2D{X: lr.X, Y: lr.Y}}
		if lr.ID > maxLoot {
			maxLoot = lr.ID
		}
	}

	dogByID := make(map[int]*model.Dog, len(a.Dogs))
	maxDog := -1
	for _, dr := range a.Dogs {
		dog, err := restoreDog(dr, lootByID)
		if err != nil {
			return err
		}
		dogByID[dr.ID] = dog
		if dr.ID > maxDog {
			maxDog = dr.ID
		}
	}

	sessionByID := make(map[int]*model.Session, len(a.Sessions))
	sessions := make([]*model.Session, 0, len(a.Sessions))
	maxSession := -1
	for _, sr := range a.Sessions {
		m, ok := game.FindMap(sr.MapID)
		if !ok {
			return fmt.Errorf("snapshot references unknown map %q", sr.MapID)
		}
		session := model.NewSession(sr.ID, m)

		dogs := make([]*model.Dog, 0, len(sr.DogIDs))
		for _, id := range sr.DogIDs {
			dog, ok := dogByID[id]
			if !ok {
				return fmt.Errorf("snapshot session %d references unknown dog %d", sr.ID, id)
			}
			dogs = append(dogs, dog)
		}
		session.SetDogs(dogs)

		loots := make([]model.Loot, 0, len(sr.LootIDs))
		for _, id := range sr.LootIDs {
			l, ok := lootByID[id]
			if !ok {
				return fmt.Errorf("snapshot session %d references unknown loot %d", sr.ID, id)
			}
			loots = append(loots, l)
		}
		session.SetLoots(loots)

		sessionByID[sr.ID] = session
		sessions = append(sessions, session)
		if sr.ID > maxSession {
			maxSession = sr.ID
		}
	}
	game.SetSessions(sessions)

	registry.Clear()
	for _, pr := range a.Players {
		dog, ok := dogByID[pr.DogID]
		if !ok {
			return fmt.Errorf("snapshot player %d references unknown dog %d", pr.ID, pr.DogID)
		}
		session, ok := sessionByID[pr.SessionID]
		if !ok {
			return fmt.Errorf("snapshot player %d references unknown session %d", pr.ID, pr.SessionID)
		}
		registry.Restore(pr.ID, pr.Token, dog, session)
	}

	game.Counters().Resume(maxDog+1, maxLoot+1, maxSession+1)

	return nil
}

func dumpDog(dog *model.Dog) dogRepr {
	dr := dogRepr{
		ID:          dog.ID(),
		Name:        dog.Name(),
		X:           dog.Position().X,
		Y:           dog.Position().Y,
		SpeedX:      dog.Speed().X,
		SpeedY:      dog.Speed().Y,
		Dir:         int(dog.Facing()),
		MapSpeed:    dog.MapSpeed(),
		BagCapacity: dog.BagCapacity(),
		Score:       dog.Score(),
		FullTimeMS:  dog.FullTimeMS(),
		IdleTimeMS:  dog.IdleTimeMS(),
	}
	for _, l := range dog.Bag() {
		dr.BagLootIDs = append(dr.BagLootIDs, l.ID)
	}
	return dr
}

func restoreDog(dr dogRepr, lootByID map[int]model.Loot) (*model.Dog, error) {
	dog := model.NewDog(dr.ID, dr.Name)
	dog.SetPosition(geom.Point2D{X: dr.X, Y: dr.Y})
	dog.SetSpeed(geom.Vec2D{X: dr.SpeedX, Y: dr.SpeedY})
	dog.SetFacing(model.Direction(dr.Dir))
	dog.SetMapSpeed(dr.MapSpeed)
	dog.SetBagCapacity(dr.BagCapacity)
	dog.SetScore(dr.Score)
	dog.SetTimes(dr.FullTimeMS, dr.IdleTimeMS)

	bag := make([]model.Loot, 0, len(dr.BagLootIDs))
	for _, id := range dr.BagLootIDs {
		l, ok := lootByID[id]
		if !ok {
			return nil, fmt.Errorf("snapshot dog %d references unknown loot %d", dr.ID, id)
		}
		bag = append(bag, l)
	}
	dog.SetBag(bag)

	return dog, nil
}
