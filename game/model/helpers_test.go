package model

import (
	"encoding/json"
	"testing"
)

// newCrossMap builds a map with a horizontal road (0,0)-(10,0), a
// vertical road (5,0)-(5,10), an office at (9,0) and two loot types
// worth 10 and 50.
func newCrossMap(t *testing.T) *Map {
	t.Helper()

	m := NewMap("town", "Town")
	m.AddRoad(NewHorizontalRoad(IntPoint{X: 0, Y: 0}, 10))
	m.AddRoad(NewVerticalRoad(IntPoint{X: 5, Y: 0}, 10))

	if err := m.AddOffice(Office{ID: "o0", Position: IntPoint{X: 9, Y: 0}}); err != nil {
		t.Fatalf("AddOffice: %v", err)
	}

	m.AddLootType(LootType{Name: "key", Value: 10, Raw: json.RawMessage(`{"name":"key","value":10}`)})
	m.AddLootType(LootType{Name: "wallet", Value: 50, Raw: json.RawMessage(`{"name":"wallet","value":50}`)})

	return m
}
