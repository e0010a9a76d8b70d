package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/catalog"
	"github.com/andrescamacho/reliefops-go/internal/application/delivery"
	"github.com/andrescamacho/reliefops-go/internal/application/events"
	ledgerCmd "github.com/andrescamacho/reliefops-go/internal/application/ledger/commands"
	ledgerQuery "github.com/andrescamacho/reliefops-go/internal/application/ledger/queries"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
	taskCmd "github.com/andrescamacho/reliefops-go/internal/application/tasks/commands"
	taskQuery "github.com/andrescamacho/reliefops-go/internal/application/tasks/queries"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// DefaultRoundsPerDay is how many rounds make up one in-game day
const DefaultRoundsPerDay = 4

// Options tunes a simulation session
type Options struct {
	RoundsPerDay           int
	Seed                   int64
	Random                 shared.RandomSource // Overrides Seed when set
	Clock                  shared.Clock
	DeliveryQueueLimit     int
	DeliveryTimeLimit      time.Duration
	DeliveryFailurePenalty *int // nil keeps the manager default
	PreferShelters         bool
	Entries                ledger.EntryRepository // Optional ledger persistence
}

// Scenario is the starting world of a session
type Scenario struct {
	Name         string
	Facilities   []facility.Facility
	Vehicles     []*fleet.Truck
	Counters     map[ledger.Counter]int
	Weather      string
	FloodedTiles []shared.Tile
}

// floodable is implemented by facilities whose flooded flag can be changed
type floodable interface {
	SetFlooded(flooded bool)
}

// Context wires the task core together and drives it round by round.
// It implements trigger.World for the registry and tasks.RoundSource for the manager.
//
// Thread-Safety:
// mu guards round, running and weather. AdvanceRound and Tick are meant to be
// called from one driver goroutine; adapters talk to the core through Mediator()
// and the event queue.
type Context struct {
	mu           sync.RWMutex
	round        int
	running      bool
	weather      string
	roundsPerDay int

	flood      *FloodMap
	facilities *facility.Directory
	roster     *fleet.Roster
	random     shared.RandomSource
	clock      shared.Clock

	queue      *events.Queue
	scoreboard *ledger.Scoreboard
	registry   *catalog.Registry
	engine     *delivery.Engine
	dispatcher *delivery.Dispatcher
	manager    *tasks.Manager
	mediator   mediator.Mediator
}

// NewContext builds a session over the scenario and loads the templates.
// Invalid templates are logged and skipped; a broken scenario is an error.
func NewContext(ctx context.Context, scenario Scenario, templates []*task.Template, opts Options) (*Context, error) {
	if opts.Clock == nil {
		opts.Clock = shared.NewRealClock()
	}
	if opts.Random == nil {
		opts.Random = shared.NewSeededRandom(opts.Seed)
	}
	if opts.RoundsPerDay <= 0 {
		opts.RoundsPerDay = DefaultRoundsPerDay
	}
	weather := scenario.Weather
	if weather == "" {
		weather = "clear"
	}

	c := &Context{
		round:        0,
		weather:      weather,
		roundsPerDay: opts.RoundsPerDay,
		flood:        NewFloodMap(scenario.FloodedTiles...),
		facilities:   facility.NewDirectory(),
		roster:       fleet.NewRoster(),
		random:       opts.Random,
		clock:        opts.Clock,
		queue:        events.NewQueue(),
		scoreboard:   ledger.NewScoreboard(opts.Clock),
		registry:     catalog.NewRegistry(),
	}

	for _, f := range scenario.Facilities {
		if err := c.facilities.Register(f); err != nil {
			return nil, fmt.Errorf("failed to register facility: %w", err)
		}
		if fl, ok := f.(floodable); ok && c.flood.IsFlooded(f.Position().Tile()) {
			fl.SetFlooded(true)
		}
	}
	for _, v := range scenario.Vehicles {
		if err := c.roster.Add(v); err != nil {
			return nil, fmt.Errorf("failed to add vehicle: %w", err)
		}
	}
	for counter, value := range scenario.Counters {
		if !counter.IsValid() {
			return nil, &ledger.ErrInvalidEntry{Field: "counter", Reason: "unknown counter " + string(counter)}
		}
		c.scoreboard.Set(counter, value)
	}

	publisher := &roundStamper{queue: c.queue, round: c.CurrentRound}
	c.engine = delivery.NewEngine(c.facilities, c.roster, domainDelivery.NewReservationLedger(), publisher, c.clock, delivery.Options{
		QueueLimit:       opts.DeliveryQueueLimit,
		DefaultTimeLimit: opts.DeliveryTimeLimit,
		PreferShelters:   opts.PreferShelters,
	})
	c.dispatcher = delivery.NewDispatcher(c.engine, c.roster, c.facilities)
	c.manager = tasks.NewManager(c.engine, c.scoreboard, opts.Entries, publisher, c.clock, c, tasks.Options{
		DeliveryFailurePenalty: opts.DeliveryFailurePenalty,
		Fleet:                  c.roster,
	})
	c.engine.AddListener(c.manager.DeliveryListener())

	loaded := c.registry.Load(ctx, templates)

	c.mediator = mediator.NewMediator()
	c.mediator.RegisterMiddleware(mediator.LoggingMiddleware())
	if err := c.registerHandlers(opts.Entries, publisher); err != nil {
		return nil, err
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Simulation context ready", map[string]interface{}{
		"scenario":   scenario.Name,
		"facilities": c.facilities.Len(),
		"vehicles":   len(c.roster.Trucks()),
		"templates":  loaded,
		"flooded":    c.flood.Count(),
	})
	return c, nil
}

func (c *Context) registerHandlers(entries ledger.EntryRepository, publisher events.Publisher) error {
	resolve := taskCmd.NewResolveTaskHandler(c.manager)
	registrations := []func() error{
		func() error {
			return mediator.RegisterHandler[*taskCmd.SelectChoiceCommand](c.mediator, taskCmd.NewSelectChoiceHandler(c.manager))
		},
		func() error { return mediator.RegisterHandler[*taskCmd.ConfirmTaskCommand](c.mediator, resolve) },
		func() error { return mediator.RegisterHandler[*taskCmd.IgnoreTaskCommand](c.mediator, resolve) },
		func() error {
			return mediator.RegisterHandler[*taskCmd.SetNumericInputCommand](c.mediator, taskCmd.NewSetNumericInputHandler(c.manager))
		},
		func() error {
			return mediator.RegisterHandler[*taskQuery.ListTasksQuery](c.mediator, taskQuery.NewListTasksHandler(c.manager))
		},
		func() error {
			return mediator.RegisterHandler[*ledgerCmd.AdjustCounterCommand](c.mediator, ledgerCmd.NewAdjustCounterHandler(c.scoreboard, entries, publisher))
		},
		func() error {
			return mediator.RegisterHandler[*AdvanceRoundCommand](c.mediator, &advanceRoundHandler{c})
		},
		func() error { return mediator.RegisterHandler[*SetRunningCommand](c.mediator, &setRunningHandler{c}) },
		func() error { return mediator.RegisterHandler[*GetStatusQuery](c.mediator, &getStatusHandler{c}) },
	}
	if entries != nil {
		registrations = append(registrations, func() error {
			return mediator.RegisterHandler[*ledgerQuery.ListEntriesQuery](c.mediator, ledgerQuery.NewListEntriesHandler(entries))
		})
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return fmt.Errorf("failed to register handler: %w", err)
		}
	}
	return nil
}

// Accessors for adapters and tests

func (c *Context) Mediator() mediator.Mediator      { return c.mediator }
func (c *Context) Events() *events.Queue            { return c.queue }
func (c *Context) Manager() *tasks.Manager          { return c.manager }
func (c *Context) Registry() *catalog.Registry      { return c.registry }
func (c *Context) Engine() *delivery.Engine         { return c.engine }
func (c *Context) Dispatcher() *delivery.Dispatcher { return c.dispatcher }
func (c *Context) Directory() *facility.Directory   { return c.facilities }
func (c *Context) Roster() *fleet.Roster            { return c.roster }
func (c *Context) Scoreboard() *ledger.Scoreboard   { return c.scoreboard }
func (c *Context) FloodMap() *FloodMap              { return c.flood }

// trigger.World

func (c *Context) CurrentRound() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.round
}

// CurrentDay is 1-based; a new day starts every roundsPerDay rounds
func (c *Context) CurrentDay() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.round <= 0 {
		return 1
	}
	return (c.round-1)/c.roundsPerDay + 1
}

func (c *Context) Facilities() []facility.Facility { return c.facilities.All() }
func (c *Context) Vehicles() []fleet.Vehicle       { return c.roster.Vehicles() }
func (c *Context) FloodedTileCount() int           { return c.flood.Count() }

func (c *Context) RouteBlocked(from, to facility.Facility) bool {
	if from == nil || to == nil {
		return false
	}
	return c.flood.LineBlocked(from.Position(), to.Position())
}

func (c *Context) Budget() int       { return c.scoreboard.Value(ledger.CounterBudget) }
func (c *Context) Satisfaction() int { return c.scoreboard.Value(ledger.CounterSatisfaction) }
func (c *Context) Workforce() int    { return c.scoreboard.Value(ledger.CounterWorkforce) }

func (c *Context) Weather() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weather
}

func (c *Context) Roll() float64 { return c.random.Float64() }

// SetWeather changes the current weather label
func (c *Context) SetWeather(weather string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weather = weather
}

// FloodTile floods a tile and every facility standing on it
func (c *Context) FloodTile(tile shared.Tile) {
	c.flood.Flood(tile)
	c.setFacilitiesFlooded(tile, true)
}

// RecedeTile drains a tile and the facilities standing on it
func (c *Context) RecedeTile(tile shared.Tile) {
	c.flood.Recede(tile)
	c.setFacilitiesFlooded(tile, false)
}

func (c *Context) setFacilitiesFlooded(tile shared.Tile, flooded bool) {
	for _, f := range c.facilities.All() {
		if f.Position().Tile() != tile {
			continue
		}
		if fl, ok := f.(floodable); ok {
			fl.SetFlooded(flooded)
		}
	}
}
