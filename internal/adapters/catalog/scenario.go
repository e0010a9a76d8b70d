package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// ScenarioFile is the on-disk layout of a starting world
type ScenarioFile struct {
	Name         string         `yaml:"name"`
	Weather      string         `yaml:"weather,omitempty"`
	Counters     map[string]int `yaml:"counters,omitempty"`
	FloodedTiles []TileDTO      `yaml:"flooded_tiles,omitempty"`
	Facilities   []FacilityDTO  `yaml:"facilities"`
	Vehicles     []VehicleDTO   `yaml:"vehicles,omitempty"`
}

type TileDTO struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type PositionDTO struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type StorageDTO struct {
	Capacity int `yaml:"capacity"`
	Amount   int `yaml:"amount,omitempty"`
}

type FacilityDTO struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Type        string                `yaml:"type"`
	Position    PositionDTO           `yaml:"position"`
	Operational *bool                 `yaml:"operational,omitempty"`
	Storage     map[string]StorageDTO `yaml:"storage,omitempty"`
}

type VehicleDTO struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name,omitempty"`
	Cargo    []string    `yaml:"cargo"`
	Capacity int         `yaml:"capacity"`
	Speed    float64     `yaml:"speed"`
	Position PositionDTO `yaml:"position"`
	Damaged  bool        `yaml:"damaged,omitempty"`
}

// LoadScenario reads a scenario file
func LoadScenario(path string) (simulation.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simulation.Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data, path)
}

// ParseScenario builds facilities, vehicles and counters from a scenario document
func ParseScenario(data []byte, source string) (simulation.Scenario, error) {
	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return simulation.Scenario{}, fmt.Errorf("parse scenario %s: %w", source, err)
	}
	invalid := func(format string, args ...interface{}) error {
		return &ErrInvalidScenario{Source: source, Reason: fmt.Sprintf(format, args...)}
	}
	if len(file.Facilities) == 0 {
		return simulation.Scenario{}, invalid("no facilities")
	}

	scenario := simulation.Scenario{
		Name:     file.Name,
		Weather:  file.Weather,
		Counters: make(map[ledger.Counter]int, len(file.Counters)),
	}

	for _, f := range file.Facilities {
		capacity := make(map[facility.Cargo]int, len(f.Storage))
		for cargo, s := range f.Storage {
			capacity[facility.Cargo(cargo)] = s.Capacity
		}
		b, err := facility.NewBuilding(facility.ID(f.ID), f.Name, facility.Type(f.Type),
			shared.Position{X: f.Position.X, Y: f.Position.Y}, capacity)
		if err != nil {
			return simulation.Scenario{}, invalid("facility %s: %v", f.ID, err)
		}
		for cargo, s := range f.Storage {
			if s.Amount > s.Capacity {
				return simulation.Scenario{}, invalid("facility %s: %s amount %d exceeds capacity %d", f.ID, cargo, s.Amount, s.Capacity)
			}
			b.SetAmount(facility.Cargo(cargo), s.Amount)
		}
		if f.Operational != nil {
			b.SetOperational(*f.Operational)
		}
		scenario.Facilities = append(scenario.Facilities, b)
	}

	for _, v := range file.Vehicles {
		cargo := make([]facility.Cargo, len(v.Cargo))
		for i, c := range v.Cargo {
			cargo[i] = facility.Cargo(c)
		}
		truck, err := fleet.NewTruck(v.ID, v.Name, cargo, v.Capacity, v.Speed, shared.Position{X: v.Position.X, Y: v.Position.Y})
		if err != nil {
			return simulation.Scenario{}, invalid("vehicle %s: %v", v.ID, err)
		}
		if v.Damaged {
			truck.Damage()
		}
		scenario.Vehicles = append(scenario.Vehicles, truck)
	}

	names := make([]string, 0, len(file.Counters))
	for name := range file.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		counter := ledger.Counter(name)
		if !counter.IsValid() {
			return simulation.Scenario{}, invalid("unknown counter %s", name)
		}
		scenario.Counters[counter] = file.Counters[name]
	}

	for _, t := range file.FloodedTiles {
		scenario.FloodedTiles = append(scenario.FloodedTiles, shared.Tile{X: t.X, Y: t.Y})
	}
	return scenario, nil
}
