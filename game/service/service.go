// Package service is the application layer of the game server. It owns
// the single lock serializing all access to the world, translates the
// model into wire-shaped views, persists retirement records and
// snapshots, and fans session states out to websocket subscribers.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/lootcity/gameserver/game/model"
	"github.com/lootcity/gameserver/game/player"
	"github.com/lootcity/gameserver/game/state"
)

// GameService is the serialized facade over the world. Every public
// method takes the lock; nothing below this layer locks.
type GameService struct {
	mu      sync.RWMutex
	world   *model.Game
	players *player.Registry
	sink    RecordSink
	log     *zap.Logger

	publisher StatePublisher

	statePath  string
	saveOnTick bool
}

// New creates the service over a built world. The sink must not be nil;
// the publisher and snapshot path are optional and set separately.
func New(world *model.Game, players *player.Registry, sink RecordSink, log *zap.Logger) *GameService {
	return &GameService{
		world:   world,
		players: players,
		sink:    sink,
		log:     log,
	}
}

// SetPublisher installs the post-tick state publisher.
func (s *GameService) SetPublisher(p StatePublisher) {
	s.publisher = p
}

// SetSnapshotPath configures where SaveState writes. When saveOnTick is
// set the service also snapshots after every tick; the server uses that
// when a save period is configured without an internal ticker.
func (s *GameService) SetSnapshotPath(path string, saveOnTick bool) {
	s.statePath = path
	s.saveOnTick = saveOnTick
}

// MapSummaries lists every map as an id/name pair in registration order.
func (s *GameService) MapSummaries() []MapSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maps := s.world.Maps()
	result := make([]MapSummary, 0, len(maps))
	for _, m := range maps {
		result = append(result, MapSummary{ID: m.ID(), Name: m.Name()})
	}
	return result
}

// MapByID returns the full view of one map.
func (s *GameService) MapByID(id string) (*MapView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.world.FindMap(id)
	if !ok {
		return nil, model.ErrMapNotFound
	}

	view := &MapView{
		ID:        m.ID(),
		Name:      m.Name(),
		Roads:     make([]RoadView, 0, len(m.Roads())),
		Buildings: make([]BuildingView, 0, len(m.Buildings())),
		Offices:   make([]OfficeView, 0, len(m.Offices())),
	}

	for _, road := range m.Roads() {
		rv := RoadView{X0: road.Start().X, Y0: road.Start().Y}
		if road.IsHorizontal() {
			x1 := road.End().X
			rv.X1 = &x1
		} else {
			y1 := road.End().Y
			rv.Y1 = &y1
		}
		view.Roads = append(view.Roads, rv)
	}

	for _, b := range m.Buildings() {
		view.Buildings = append(view.Buildings, BuildingView{X: b.X, Y: b.Y, W: b.W, H: b.H})
	}

	for _, o := range m.Offices() {
		view.Offices = append(view.Offices, OfficeView{
			ID:      o.ID,
			X:       o.Position.X,
			Y:       o.Position.Y,
			OffsetX: o.Offset.DX,
			OffsetY: o.Offset.DY,
		})
	}

	for _, lt := range m.LootTypes() {
		view.LootTypes = append(view.LootTypes, lt.Raw)
	}

	return view, nil
}

// Join puts a new dog on the requested map and returns the player's
// token and id. The user name must be non-empty.
func (s *GameService) Join(userName, mapID string) (JoinResult, error) {
	if userName == "" {
		return JoinResult{}, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dog, session, err := s.world.Join(userName, mapID)
	if err != nil {
		return JoinResult{}, err
	}

	p := s.players.Add(dog, session)
	s.log.Info("player joined",
		zap.Int("player_id", p.ID()),
		zap.String("map_id", mapID),
		zap.String("name", userName))

	return JoinResult{AuthToken: p.Token(), PlayerID: p.ID()}, nil
}

// Players lists the dogs sharing the caller's session: dog id mapped to
// player name.
func (s *GameService) Players(token string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players.FindByToken(token)
	if !ok {
		return nil, ErrUnknownToken
	}

	result := make(map[string]string)
	for _, dog := range p.Session().Dogs() {
		result[strconv.Itoa(dog.ID())] = dog.Name()
	}
	return result, nil
}

// State returns the caller's session state: every dog and every loot
// item on the ground.
func (s *GameService) State(token string) (StateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players.FindByToken(token)
	if !ok {
		return StateView{}, ErrUnknownToken
	}
	return buildStateView(p.Session()), nil
}

// SessionID resolves a token to its session id; the websocket handler
// uses it to subscribe the connection.
func (s *GameService) SessionID(token string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players.FindByToken(token)
	if !ok {
		return 0, ErrUnknownToken
	}
	return p.Session().ID(), nil
}

// Move applies a direction command to the caller's dog. Valid commands
// are "L", "R", "U", "D" and "" (stop).
func (s *GameService) Move(token, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players.FindByToken(token)
	if !ok {
		return ErrUnknownToken
	}
	if !p.Dog().SetDirection(cmd) {
		return ErrInvalidMove
	}
	return nil
}

// Tick advances the world by dt milliseconds on behalf of an external
// tick request. It is rejected when the server runs its own clock.
func (s *GameService) Tick(ctx context.Context, dtMS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.world.InTestMode() {
		return ErrNotInTestMode
	}
	s.advance(ctx, dtMS)
	return nil
}

// TickInternal advances the world from the server's own clock.
func (s *GameService) TickInternal(ctx context.Context, dtMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(ctx, dtMS)
}

// advance runs one simulation step under the already-held write lock:
// the world ticks, retirement records are persisted, retired players
// are dropped, the optional per-tick snapshot is written and session
// states are published.
func (s *GameService) advance(ctx context.Context, dtMS int64) {
	for _, r := range s.world.Tick(dtMS) {
		if err := s.sink.SaveRecord(ctx, r.Record); err != nil {
			// The dog is already gone from its session; losing the
			// record must not take the server down.
			s.log.Error("failed to persist retirement record",
				zap.String("name", r.Record.Name),
				zap.Error(err))
		} else {
			s.log.Info("dog retired",
				zap.String("name", r.Record.Name),
				zap.Int("score", r.Record.Score),
				zap.Int64("play_time_ms", r.Record.PlayTimeMS))
		}
		s.players.RemoveByDogID(r.DogID)
	}

	if s.saveOnTick && s.statePath != "" {
		if err := state.Save(s.statePath, s.world, s.players); err != nil {
			s.log.Error("failed to write snapshot", zap.Error(err))
		}
	}

	if s.publisher != nil {
		for _, session := range s.world.Sessions() {
			s.publisher.PublishState(session.ID(), buildStateView(session))
		}
	}
}

// Records returns a leaderboard page.
func (s *GameService) Records(ctx context.Context, start, maxItems int) ([]RecordEntry, error) {
	records, err := s.sink.Records(ctx, start, maxItems)
	if err != nil {
		return nil, err
	}

	result := make([]RecordEntry, 0, len(records))
	for _, r := range records {
		result = append(result, RecordEntry{
			Name:     r.Name,
			Score:    r.Score,
			PlayTime: float64(r.PlayTimeMS) / 1000.0,
		})
	}
	return result, nil
}

// SaveState writes a snapshot of the world to the configured path.
func (s *GameService) SaveState() error {
	if s.statePath == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := state.Save(s.statePath, s.world, s.players); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState restores the world from the configured snapshot path. A
// missing snapshot file is not an error; a corrupt one is.
func (s *GameService) LoadState() error {
	if s.statePath == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := state.Load(s.statePath, s.world, s.players); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load state: %w", err)
	}
	s.log.Info("world restored from snapshot", zap.String("path", s.statePath))
	return nil
}

func buildStateView(session *model.Session) StateView {
	view := StateView{
		Players:     make(map[string]PlayerView),
		LostObjects: make(map[string]LostObject),
	}

	for _, dog := range session.Dogs() {
		bag := make([]BagItem, 0, len(dog.Bag()))
		for _, l := range dog.Bag() {
			bag = append(bag, BagItem{ID: l.ID, Type: l.Type})
		}
		view.Players[strconv.Itoa(dog.ID())] = PlayerView{
			Pos:   [2]float64{dog.Position().X, dog.Position().Y},
			Speed: [2]float64{dog.Speed().X, dog.Speed().Y},
			Dir:   dog.Facing().String(),
			Bag:   bag,
			Score: dog.Score(),
		}
	}

	for _, l := range session.Loots() {
		view.LostObjects[strconv.Itoa(l.ID)] = LostObject{
			Type: l.Type,
			Pos:  [2]float64{l.Position.X, l.Position.Y},
		}
	}

	return view
}
