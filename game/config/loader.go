package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lootcity/gameserver/game/lootgen"
	"github.com/lootcity/gameserver/game/model"
)

// Load reads and validates a game description file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the parts of a config the simulation depends on.
func Validate(cfg *Config) error {
	if cfg.LootGenerator.PeriodMS <= 0 {
		return fmt.Errorf("lootGeneratorConfig.period must be positive, got %v", cfg.LootGenerator.PeriodMS)
	}
	if p := cfg.LootGenerator.Probability; p <= 0 || p > 1 {
		return fmt.Errorf("lootGeneratorConfig.probability must be in (0, 1], got %v", p)
	}
	if len(cfg.Maps) == 0 {
		return fmt.Errorf("config defines no maps")
	}

	for _, mc := range cfg.Maps {
		if mc.ID == "" {
			return fmt.Errorf("map with empty id")
		}
		if len(mc.Roads) == 0 {
			return fmt.Errorf("map %q has no roads", mc.ID)
		}
		for i, rc := range mc.Roads {
			switch {
			case rc.X1 != nil && *rc.X1 == rc.X0:
				return fmt.Errorf("map %q road %d has zero length", mc.ID, i)
			case rc.Y1 != nil && *rc.Y1 == rc.Y0:
				return fmt.Errorf("map %q road %d has zero length", mc.ID, i)
			case rc.X1 == nil && rc.Y1 == nil:
				return fmt.Errorf("map %q road %d has neither x1 nor y1", mc.ID, i)
			}
		}
		if len(mc.LootTypes) == 0 {
			return fmt.Errorf("map %q has no loot types", mc.ID)
		}
	}

	return nil
}

// BuildGame assembles the world aggregate from a validated config: the
// maps with their road networks and loot tables, the game defaults and
// the loot generator.
func BuildGame(cfg *Config) (*model.Game, error) {
	game := model.NewGame()

	if cfg.DefaultDogSpeed != nil {
		game.SetDefaultDogSpeed(*cfg.DefaultDogSpeed)
	}
	if cfg.DefaultBagCapacity != nil {
		game.SetDefaultBagCapacity(*cfg.DefaultBagCapacity)
	}
	if cfg.DogRetirementTime != nil {
		game.SetRetireThreshold(int64(*cfg.DogRetirementTime * 1000))
	}

	for _, mc := range cfg.Maps {
		m, err := buildMap(mc)
		if err != nil {
			return nil, err
		}
		if err := game.AddMap(m); err != nil {
			return nil, err
		}
	}

	game.SetLootGenerator(lootgen.New(int64(cfg.LootGenerator.PeriodMS), cfg.LootGenerator.Probability))

	return game, nil
}

// LoadGame is the one-call path used by the server entry point.
func LoadGame(path string) (*model.Game, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return BuildGame(cfg)
}

func buildMap(mc MapConfig) (*model.Map, error) {
	m := model.NewMap(mc.ID, mc.Name)

	if mc.DogSpeed != nil {
		m.SetDogSpeed(*mc.DogSpeed)
	}
	if mc.BagCapacity != nil {
		m.SetBagCapacity(*mc.BagCapacity)
	}

	for _, rc := range mc.Roads {
		start := model.IntPoint{X: rc.X0, Y: rc.Y0}
		if rc.X1 != nil {
			m.AddRoad(model.NewHorizontalRoad(start, *rc.X1))
		} else {
			m.AddRoad(model.NewVerticalRoad(start, *rc.Y1))
		}
	}

	for _, bc := range mc.Buildings {
		m.AddBuilding(model.Building{X: bc.X, Y: bc.Y, W: bc.W, H: bc.H})
	}

	for _, oc := range mc.Offices {
		office := model.Office{
			ID:       oc.ID,
			Position: model.IntPoint{X: oc.X, Y: oc.Y},
			Offset:   model.IntOffset{DX: oc.OffsetX, DY: oc.OffsetY},
		}
		if err := m.AddOffice(office); err != nil {
			return nil, err
		}
	}

	for _, raw := range mc.LootTypes {
		var fields lootTypeFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("map %q has a malformed loot type: %w", mc.ID, err)
		}
		m.AddLootType(model.LootType{Name: fields.Name, Value: fields.Value, Raw: raw})
	}

	return m, nil
}
