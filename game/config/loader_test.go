package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lootcity/gameserver/game/model"
)

const sampleConfig = `{
  "defaultDogSpeed": 3.0,
  "defaultBagCapacity": 5,
  "dogRetirementTime": 15.5,
  "lootGeneratorConfig": {
    "period": 5000,
    "probability": 0.5
  },
  "maps": [
    {
      "id": "map1",
      "name": "Map 1",
      "dogSpeed": 4.0,
      "roads": [
        {"x0": 0, "y0": 0, "x1": 40},
        {"x0": 40, "y0": 0, "y1": 30}
      ],
      "buildings": [
        {"x": 5, "y": 5, "w": 30, "h": 20}
      ],
      "offices": [
        {"id": "o0", "x": 40, "y": 30, "offsetX": 5, "offsetY": 0}
      ],
      "lootTypes": [
        {"name": "key", "file": "assets/key.obj", "type": "obj", "rotation": 90, "color": "#338844", "scale": 0.03, "value": 10},
        {"name": "wallet", "file": "assets/wallet.obj", "type": "obj", "rotation": 0, "color": "#883344", "scale": 0.01, "value": 30}
      ]
    }
  ]
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesEverything(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DefaultDogSpeed == nil || *cfg.DefaultDogSpeed != 3.0 {
		t.Errorf("DefaultDogSpeed = %v, want 3.0", cfg.DefaultDogSpeed)
	}
	if cfg.DefaultBagCapacity == nil || *cfg.DefaultBagCapacity != 5 {
		t.Errorf("DefaultBagCapacity = %v, want 5", cfg.DefaultBagCapacity)
	}
	if cfg.DogRetirementTime == nil || *cfg.DogRetirementTime != 15.5 {
		t.Errorf("DogRetirementTime = %v, want 15.5", cfg.DogRetirementTime)
	}
	if cfg.LootGenerator.PeriodMS != 5000 || cfg.LootGenerator.Probability != 0.5 {
		t.Errorf("LootGenerator = %+v, want period 5000 probability 0.5", cfg.LootGenerator)
	}
	if len(cfg.Maps) != 1 {
		t.Fatalf("maps = %d, want 1", len(cfg.Maps))
	}

	mc := cfg.Maps[0]
	if mc.DogSpeed == nil || *mc.DogSpeed != 4.0 {
		t.Errorf("map DogSpeed = %v, want 4.0", mc.DogSpeed)
	}
	if mc.BagCapacity != nil {
		t.Errorf("map BagCapacity = %v, want absent", mc.BagCapacity)
	}
	if len(mc.Roads) != 2 || len(mc.Buildings) != 1 || len(mc.Offices) != 1 || len(mc.LootTypes) != 2 {
		t.Errorf("map contents = %d roads, %d buildings, %d offices, %d loot types",
			len(mc.Roads), len(mc.Buildings), len(mc.Offices), len(mc.LootTypes))
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	valid := func() *Config {
		x1 := 40
		return &Config{
			LootGenerator: LootGenConfig{PeriodMS: 5000, Probability: 0.5},
			Maps: []MapConfig{{
				ID:        "map1",
				Roads:     []RoadConfig{{X0: 0, Y0: 0, X1: &x1}},
				LootTypes: []json.RawMessage{json.RawMessage(`{"name":"key","value":10}`)},
			}},
		}
	}

	if err := Validate(valid()); err != nil {
		t.Fatalf("Validate rejected a valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero period", func(c *Config) { c.LootGenerator.PeriodMS = 0 }},
		{"probability above one", func(c *Config) { c.LootGenerator.Probability = 1.5 }},
		{"zero probability", func(c *Config) { c.LootGenerator.Probability = 0 }},
		{"no maps", func(c *Config) { c.Maps = nil }},
		{"empty map id", func(c *Config) { c.Maps[0].ID = "" }},
		{"no roads", func(c *Config) { c.Maps[0].Roads = nil }},
		{"zero length road", func(c *Config) { *c.Maps[0].Roads[0].X1 = 0 }},
		{"road without endpoint", func(c *Config) { c.Maps[0].Roads[0].X1 = nil }},
		{"no loot types", func(c *Config) { c.Maps[0].LootTypes = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func replaceOne(t *testing.T, s, from, to string) string {
	t.Helper()
	if !strings.Contains(s, from) {
		t.Fatalf("substring %q not found", from)
	}
	return strings.Replace(s, from, to, 1)
}

func TestBuildGameAppliesSettings(t *testing.T) {
	game, err := LoadGame(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}

	// Retirement time in seconds becomes a millisecond threshold.
	if got := game.RetireThresholdMS(); got != 15500 {
		t.Errorf("RetireThresholdMS = %d, want 15500", got)
	}

	m, ok := game.FindMap("map1")
	if !ok {
		t.Fatal("map1 not registered")
	}
	if speed, ok := m.DogSpeed(); !ok || speed != 4.0 {
		t.Errorf("map DogSpeed = %v (%v), want override 4.0", speed, ok)
	}
	if _, ok := m.BagCapacity(); ok {
		t.Error("map BagCapacity override present, want absent")
	}
	if m.LootTypeCount() != 2 {
		t.Errorf("loot types = %d, want 2", m.LootTypeCount())
	}
	if m.LootValue(1) != 30 {
		t.Errorf("LootValue(1) = %d, want 30", m.LootValue(1))
	}
	if len(m.Roads()) != 2 {
		t.Fatalf("roads = %d, want 2", len(m.Roads()))
	}
	if !m.Roads()[0].IsHorizontal() || m.Roads()[1].IsHorizontal() {
		t.Error("road orientations wrong")
	}
}

func TestBuildGameEchoesLootTypesVerbatim(t *testing.T) {
	game, err := LoadGame(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}

	m, _ := game.FindMap("map1")
	raw := string(m.LootTypes()[0].Raw)
	for _, field := range []string{`"file"`, `"rotation"`, `"scale"`, `"color"`} {
		if !strings.Contains(raw, field) {
			t.Errorf("raw loot descriptor lost field %s: %s", field, raw)
		}
	}
}

func TestBuildGameDefaultRetirement(t *testing.T) {
	content := replaceOne(t, sampleConfig, `"dogRetirementTime": 15.5,`, "")
	game, err := LoadGame(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}

	if got := game.RetireThresholdMS(); got != model.DefaultRetireThresholdMS {
		t.Errorf("RetireThresholdMS = %d, want the default %d", got, model.DefaultRetireThresholdMS)
	}
}
