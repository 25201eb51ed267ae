package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lootcity/gameserver/game/model"
	"github.com/lootcity/gameserver/game/player"
)

// fakeSink is an in-memory RecordSink.
type fakeSink struct {
	records []model.PlayerRecord
	saveErr error
}

func (f *fakeSink) SaveRecord(_ context.Context, record model.PlayerRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeSink) Records(_ context.Context, start, maxItems int) ([]model.PlayerRecord, error) {
	if start >= len(f.records) {
		return nil, nil
	}
	end := start + maxItems
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[start:end], nil
}

// capturingPublisher records every published state.
type capturingPublisher struct {
	sessionIDs []int
	states     []any
}

func (c *capturingPublisher) PublishState(sessionID int, state any) {
	c.sessionIDs = append(c.sessionIDs, sessionID)
	c.states = append(c.states, state)
}

func newTestWorld(t *testing.T) *model.Game {
	t.Helper()

	m := model.NewMap("town", "Town")
	m.AddRoad(model.NewHorizontalRoad(model.IntPoint{X: 0, Y: 0}, 10))
	if err := m.AddOffice(model.Office{ID: "o0", Position: model.IntPoint{X: 9, Y: 0}}); err != nil {
		t.Fatalf("AddOffice: %v", err)
	}
	m.AddLootType(model.LootType{Name: "key", Value: 10, Raw: json.RawMessage(`{"name":"key","value":10}`)})

	world := model.NewGame()
	if err := world.AddMap(m); err != nil {
		t.Fatalf("AddMap: %v", err)
	}
	return world
}

func newTestService(t *testing.T) (*GameService, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	svc := New(newTestWorld(t), player.NewRegistry(), sink, zap.NewNop())
	return svc, sink
}

func TestJoinAndState(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Join("Sharik", "town")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !player.IsValidToken(result.AuthToken) {
		t.Errorf("AuthToken = %q, not a valid token", result.AuthToken)
	}
	if result.PlayerID != 0 {
		t.Errorf("PlayerID = %d, want 0", result.PlayerID)
	}

	state, err := svc.State(result.AuthToken)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	view, ok := state.Players["0"]
	if !ok {
		t.Fatalf("state has players %v, want key \"0\"", state.Players)
	}
	if view.Pos != [2]float64{0, 0} {
		t.Errorf("Pos = %v, want the first road's start", view.Pos)
	}
	if view.Dir != "U" {
		t.Errorf("Dir = %q, want U", view.Dir)
	}
	if view.Score != 0 || len(view.Bag) != 0 {
		t.Errorf("fresh dog has score %d and bag %v", view.Score, view.Bag)
	}
}

func TestJoinRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Join("", "town"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Join with empty name: err = %v, want ErrInvalidName", err)
	}
}

func TestJoinUnknownMap(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Join("Sharik", "nowhere"); !errors.Is(err, model.ErrMapNotFound) {
		t.Errorf("Join on unknown map: err = %v, want ErrMapNotFound", err)
	}
}

func TestStateUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.State("0123456789abcdef0123456789abcdef"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("State with unowned token: err = %v, want ErrUnknownToken", err)
	}
}

func TestPlayersListsSessionMates(t *testing.T) {
	svc, _ := newTestService(t)

	a, _ := svc.Join("Harry", "town")
	if _, err := svc.Join("Hermione", "town"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	players, err := svc.Players(a.AuthToken)
	if err != nil {
		t.Fatalf("Players: %v", err)
	}

	if len(players) != 2 || players["0"] != "Harry" || players["1"] != "Hermione" {
		t.Errorf("Players = %v, want both dogs keyed by id", players)
	}
}

func TestMoveAndTick(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Join("Sharik", "town")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := svc.Move(result.AuthToken, "R"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := svc.Tick(context.Background(), 1000); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	state, err := svc.State(result.AuthToken)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	view := state.Players["0"]
	if view.Pos != [2]float64{1, 0} {
		t.Errorf("Pos after 1s at default speed = %v, want (1,0)", view.Pos)
	}
	if view.Dir != "R" {
		t.Errorf("Dir = %q, want R", view.Dir)
	}
}

func TestMoveRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)
	result, _ := svc.Join("Sharik", "town")

	if err := svc.Move(result.AuthToken, "X"); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("Move(X): err = %v, want ErrInvalidMove", err)
	}
	if err := svc.Move("0123456789abcdef0123456789abcdef", "R"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("Move with unowned token: err = %v, want ErrUnknownToken", err)
	}
}

func TestTickRejectedOutsideTestMode(t *testing.T) {
	world := newTestWorld(t)
	world.SetTestMode(false)
	svc := New(world, player.NewRegistry(), &fakeSink{}, zap.NewNop())

	if err := svc.Tick(context.Background(), 1000); !errors.Is(err, ErrNotInTestMode) {
		t.Errorf("Tick with internal clock: err = %v, want ErrNotInTestMode", err)
	}
}

func TestRetirementFlow(t *testing.T) {
	world := newTestWorld(t)
	world.SetRetireThreshold(1000)
	sink := &fakeSink{}
	svc := New(world, player.NewRegistry(), sink, zap.NewNop())

	result, err := svc.Join("Sharik", "town")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := svc.Tick(context.Background(), 1000); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("sink has %d records, want 1", len(sink.records))
	}
	r := sink.records[0]
	if r.Name != "Sharik" || r.PlayTimeMS != 1000 {
		t.Errorf("record = %+v, want Sharik with 1000ms play time", r)
	}

	// The retired player's token no longer resolves.
	if _, err := svc.State(result.AuthToken); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("State after retirement: err = %v, want ErrUnknownToken", err)
	}
}

func TestRetirementSurvivesSinkFailure(t *testing.T) {
	world := newTestWorld(t)
	world.SetRetireThreshold(1000)
	sink := &fakeSink{saveErr: errors.New("db down")}
	svc := New(world, player.NewRegistry(), sink, zap.NewNop())

	result, err := svc.Join("Sharik", "town")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	// The tick must not fail and the player must still be dropped.
	if err := svc.Tick(context.Background(), 1000); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, err := svc.State(result.AuthToken); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("State after failed record save: err = %v, want ErrUnknownToken", err)
	}
}

func TestTickPublishesStates(t *testing.T) {
	svc, _ := newTestService(t)
	pub := &capturingPublisher{}
	svc.SetPublisher(pub)

	if _, err := svc.Join("Sharik", "town"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := svc.Tick(context.Background(), 100); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(pub.states) != 1 || pub.sessionIDs[0] != 0 {
		t.Fatalf("published %d states for sessions %v, want one for session 0",
			len(pub.states), pub.sessionIDs)
	}
	if _, ok := pub.states[0].(StateView); !ok {
		t.Errorf("published state has type %T, want StateView", pub.states[0])
	}
}

func TestRecordsConvertsPlayTime(t *testing.T) {
	svc, sink := newTestService(t)
	sink.records = []model.PlayerRecord{
		{Name: "A", Score: 10, PlayTimeMS: 1500},
		{Name: "B", Score: 5, PlayTimeMS: 500},
	}

	records, err := svc.Records(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].PlayTime != 1.5 || records[1].PlayTime != 0.5 {
		t.Errorf("play times = %v, %v, want seconds 1.5 and 0.5",
			records[0].PlayTime, records[1].PlayTime)
	}
}

func TestMapViews(t *testing.T) {
	svc, _ := newTestService(t)

	summaries := svc.MapSummaries()
	if len(summaries) != 1 || summaries[0].ID != "town" || summaries[0].Name != "Town" {
		t.Errorf("MapSummaries = %v", summaries)
	}

	view, err := svc.MapByID("town")
	if err != nil {
		t.Fatalf("MapByID: %v", err)
	}
	if len(view.Roads) != 1 || view.Roads[0].X1 == nil || *view.Roads[0].X1 != 10 {
		t.Errorf("Roads = %+v, want one horizontal road ending at 10", view.Roads)
	}
	if view.Roads[0].Y1 != nil {
		t.Error("horizontal road carries a y1")
	}
	if len(view.LootTypes) != 1 || string(view.LootTypes[0]) != `{"name":"key","value":10}` {
		t.Errorf("LootTypes = %s, want the verbatim descriptor", view.LootTypes)
	}

	if _, err := svc.MapByID("nowhere"); !errors.Is(err, model.ErrMapNotFound) {
		t.Errorf("MapByID unknown: err = %v, want ErrMapNotFound", err)
	}
}

func TestSaveAndLoadStateThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	path := filepath.Join(t.TempDir(), "state.dat")
	svc.SetSnapshotPath(path, false)

	joined, err := svc.Join("Sharik", "town")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := svc.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	restored := New(newTestWorld(t), player.NewRegistry(), &fakeSink{}, zap.NewNop())
	restored.SetSnapshotPath(path, false)
	if err := restored.LoadState(); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	state, err := restored.State(joined.AuthToken)
	if err != nil {
		t.Fatalf("State after restore: %v", err)
	}
	if _, ok := state.Players["0"]; !ok {
		t.Errorf("restored state players = %v, want dog 0", state.Players)
	}
}

func TestLoadStateMissingSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetSnapshotPath(filepath.Join(t.TempDir(), "missing.dat"), false)

	if err := svc.LoadState(); err != nil {
		t.Errorf("LoadState with no snapshot file: %v, want nil", err)
	}
}
