package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/andrescamacho/reliefops-go/internal/adapters/catalog"
	"github.com/andrescamacho/reliefops-go/internal/adapters/persistence"
	"github.com/andrescamacho/reliefops-go/internal/application/events"
	ledgerCmd "github.com/andrescamacho/reliefops-go/internal/application/ledger/commands"
	ledgerQuery "github.com/andrescamacho/reliefops-go/internal/application/ledger/queries"
	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
	taskCmd "github.com/andrescamacho/reliefops-go/internal/application/tasks/commands"
	taskQuery "github.com/andrescamacho/reliefops-go/internal/application/tasks/queries"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
	"github.com/andrescamacho/reliefops-go/test/helpers"
)

// sessionContext drives a simulation built from YAML docstrings, the same way
// the run command builds one from files
type sessionContext struct {
	scenarioYAML string
	catalogYAML  string
	archive      bool
	sessionID    string

	ctx     context.Context
	sim     *simulation.Context
	seen    []events.Event
	lastErr error
}

func (sc *sessionContext) reset() {
	sc.scenarioYAML = ""
	sc.catalogYAML = ""
	sc.archive = false
	sc.sessionID = uuid.New().String()
	sc.ctx = context.Background()
	sc.sim = nil
	sc.seen = nil
	sc.lastErr = nil
}

// session builds the simulation on first use
func (sc *sessionContext) session() (*simulation.Context, error) {
	if sc.sim != nil {
		return sc.sim, nil
	}
	if sc.scenarioYAML == "" {
		return nil, fmt.Errorf("no scenario given")
	}

	scenario, err := catalog.ParseScenario([]byte(sc.scenarioYAML), "scenario")
	if err != nil {
		return nil, err
	}
	var templates []*task.Template
	if sc.catalogYAML != "" {
		loader, err := catalog.NewLoader()
		if err != nil {
			return nil, err
		}
		templates, err = loader.Parse([]byte(sc.catalogYAML), "catalog")
		if err != nil {
			return nil, err
		}
	}

	opts := simulation.Options{
		Seed:  1,
		Clock: shared.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	if sc.archive {
		if err := helpers.TruncateAllTables(); err != nil {
			return nil, err
		}
		opts.Entries = persistence.NewGormEntryRepository(helpers.SharedTestDB, sc.sessionID)
	}

	sim, err := simulation.NewContext(sc.ctx, scenario, templates, opts)
	if err != nil {
		return nil, err
	}
	sim.Events().Subscribe(events.ObserverFunc(func(ctx context.Context, e events.Event) {
		sc.seen = append(sc.seen, e)
	}))
	if sc.archive {
		sim.Events().Subscribe(persistence.NewArchiver(
			persistence.NewGormTaskArchiveRepository(helpers.SharedTestDB),
			persistence.NewGormDeliveryHistoryRepository(helpers.SharedTestDB),
			sc.sessionID,
		))
	}
	sc.sim = sim
	return sim, nil
}

func (sc *sessionContext) tasksTitled(title string) ([]task.Snapshot, error) {
	sim, err := sc.session()
	if err != nil {
		return nil, err
	}
	resp, err := sim.Mediator().Send(sc.ctx, &taskQuery.ListTasksQuery{})
	if err != nil {
		return nil, err
	}
	var matched []task.Snapshot
	for _, snap := range resp.(*taskQuery.ListTasksResponse).Tasks {
		if snap.Title == title {
			matched = append(matched, snap)
		}
	}
	return matched, nil
}

// latest returns the most recently created task with the title
func (sc *sessionContext) latest(title string) (task.Snapshot, error) {
	matched, err := sc.tasksTitled(title)
	if err != nil {
		return task.Snapshot{}, err
	}
	if len(matched) == 0 {
		return task.Snapshot{}, fmt.Errorf("no task titled %q", title)
	}
	return matched[len(matched)-1], nil
}

// send runs a request and drains the queue, like the serve driver does
func (sc *sessionContext) send(request interface{}) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	_, sc.lastErr = sim.Mediator().Send(sc.ctx, request)
	sim.Events().Drain(sc.ctx)
	return nil
}

// Given steps

func (sc *sessionContext) theScenario(doc *godog.DocString) error {
	sc.scenarioYAML = doc.Content
	return nil
}

func (sc *sessionContext) theCatalog(doc *godog.DocString) error {
	sc.catalogYAML = doc.Content
	return nil
}

func (sc *sessionContext) theSessionArchivesToTheDatabase() error {
	sc.archive = true
	return nil
}

func (sc *sessionContext) theWeatherTurns(weather string) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	sim.SetWeather(weather)
	return nil
}

func (sc *sessionContext) facilityRunsOutOf(id, cargo string) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	f, ok := sim.Directory().Get(facility.ID(id))
	if !ok {
		return fmt.Errorf("facility %s not found", id)
	}
	f.Remove(facility.Cargo(cargo), f.Amount(facility.Cargo(cargo)))
	return nil
}

// When steps

func (sc *sessionContext) theRoundAdvances() error {
	return sc.theRoundAdvancesTimes(1)
}

func (sc *sessionContext) theRoundAdvancesTimes(n int) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		sim.AdvanceRound(sc.ctx)
	}
	return nil
}

func (sc *sessionContext) iSelectChoiceOn(choiceID int, title string) error {
	snap, err := sc.latest(title)
	if err != nil {
		return err
	}
	return sc.send(&taskCmd.SelectChoiceCommand{TaskID: snap.ID, ChoiceID: choiceID})
}

func (sc *sessionContext) iConfirm(title string) error {
	snap, err := sc.latest(title)
	if err != nil {
		return err
	}
	return sc.send(&taskCmd.ConfirmTaskCommand{TaskID: snap.ID})
}

func (sc *sessionContext) iIgnore(title string) error {
	snap, err := sc.latest(title)
	if err != nil {
		return err
	}
	return sc.send(&taskCmd.IgnoreTaskCommand{TaskID: snap.ID})
}

func (sc *sessionContext) theSessionRunsForSeconds(seconds int) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	sim.SetRunning(true)
	for i := 0; i < seconds; i++ {
		sim.Tick(sc.ctx, time.Second)
	}
	return nil
}

func (sc *sessionContext) vehicleIsDamaged(id string) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	truck, ok := sim.Roster().Get(id)
	if !ok {
		return fmt.Errorf("vehicle %s not found", id)
	}
	truck.Damage()
	return nil
}

func (sc *sessionContext) counterIsAdjustedBy(counter string, amount int) error {
	return sc.send(&ledgerCmd.AdjustCounterCommand{
		Counter:     strings.ToUpper(counter),
		Amount:      amount,
		Description: "manual adjustment",
	})
}

// Then steps

func (sc *sessionContext) thereShouldBeTasksTitled(count int, status, title string) error {
	matched, err := sc.tasksTitled(title)
	if err != nil {
		return err
	}
	found := 0
	for _, snap := range matched {
		if snap.Status == status {
			found++
		}
	}
	if found != count {
		return fmt.Errorf("expected %d %s tasks titled %q, found %d", count, status, title, found)
	}
	return nil
}

func (sc *sessionContext) noTaskShouldBeTitled(title string) error {
	matched, err := sc.tasksTitled(title)
	if err != nil {
		return err
	}
	if len(matched) != 0 {
		return fmt.Errorf("expected no task titled %q, found %d", title, len(matched))
	}
	return nil
}

func (sc *sessionContext) theTaskShouldBe(title, status string) error {
	snap, err := sc.latest(title)
	if err != nil {
		return err
	}
	if snap.Status != status {
		return fmt.Errorf("expected task %q to be %s, got %s", title, status, snap.Status)
	}
	return nil
}

func (sc *sessionContext) theTaskShouldTarget(title, facilityID string) error {
	snap, err := sc.latest(title)
	if err != nil {
		return err
	}
	if snap.FacilityID != facilityID {
		return fmt.Errorf("expected task %q to target %s, got %q", title, facilityID, snap.FacilityID)
	}
	return nil
}

func (sc *sessionContext) facilityShouldHold(id string, amount int, cargo string) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	f, ok := sim.Directory().Get(facility.ID(id))
	if !ok {
		return fmt.Errorf("facility %s not found", id)
	}
	if got := f.Amount(facility.Cargo(cargo)); got != amount {
		return fmt.Errorf("expected %s to hold %d %s, got %d", id, amount, cargo, got)
	}
	return nil
}

func (sc *sessionContext) vehicleShouldBe(id, status string) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	truck, ok := sim.Roster().Get(id)
	if !ok {
		return fmt.Errorf("vehicle %s not found", id)
	}
	if got := string(truck.Status()); got != status {
		return fmt.Errorf("expected vehicle %s to be %s, got %s", id, status, got)
	}
	return nil
}

func (sc *sessionContext) counterShouldBe(counter string, expected int) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	status := sim.Status()
	values := map[string]int{
		"satisfaction": status.Satisfaction,
		"budget":       status.Budget,
		"workforce":    status.Workforce,
	}
	if got := values[counter]; got != expected {
		return fmt.Errorf("expected %s %d, got %d", counter, expected, got)
	}
	return nil
}

func (sc *sessionContext) theLastCommandShouldFail() error {
	if sc.lastErr == nil {
		return fmt.Errorf("expected the last command to fail, but it succeeded")
	}
	return nil
}

func (sc *sessionContext) theLastCommandShouldSucceed() error {
	if sc.lastErr != nil {
		return fmt.Errorf("expected the last command to succeed, got: %v", sc.lastErr)
	}
	return nil
}

func (sc *sessionContext) anEventShouldHaveBeenPublished(eventType string) error {
	for _, e := range sc.seen {
		if string(e.Type) == eventType {
			return nil
		}
	}
	return fmt.Errorf("no %s event among %d events", eventType, len(sc.seen))
}

func (sc *sessionContext) theArchiveShouldHoldTasks(count int, status string) error {
	counts, err := persistence.NewGormTaskArchiveRepository(helpers.SharedTestDB).CountByStatus(sc.ctx, sc.sessionID)
	if err != nil {
		return err
	}
	if counts[status] != count {
		return fmt.Errorf("expected %d archived %s tasks, got %d (%v)", count, status, counts[status], counts)
	}
	return nil
}

func (sc *sessionContext) theLedgerShouldListEntries(count int, counter string) error {
	sim, err := sc.session()
	if err != nil {
		return err
	}
	upper := strings.ToUpper(counter)
	resp, err := sim.Mediator().Send(sc.ctx, &ledgerQuery.ListEntriesQuery{Counter: &upper})
	if err != nil {
		return err
	}
	if got := len(resp.(*ledgerQuery.ListEntriesResponse).Entries); got != count {
		return fmt.Errorf("expected %d %s ledger entries, got %d", count, upper, got)
	}
	return nil
}

func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	sc := &sessionContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the scenario:$`, sc.theScenario)
	ctx.Step(`^the catalog:$`, sc.theCatalog)
	ctx.Step(`^the session archives to the database$`, sc.theSessionArchivesToTheDatabase)
	ctx.Step(`^the weather turns "([^"]*)"$`, sc.theWeatherTurns)
	ctx.Step(`^facility "([^"]*)" runs out of "([^"]*)"$`, sc.facilityRunsOutOf)

	// When steps
	ctx.Step(`^the round advances$`, sc.theRoundAdvances)
	ctx.Step(`^the round advances (\d+) times$`, sc.theRoundAdvancesTimes)
	ctx.Step(`^I select choice (\d+) on "([^"]*)"$`, sc.iSelectChoiceOn)
	ctx.Step(`^I confirm "([^"]*)"$`, sc.iConfirm)
	ctx.Step(`^I ignore "([^"]*)"$`, sc.iIgnore)
	ctx.Step(`^the session runs for (\d+) seconds?$`, sc.theSessionRunsForSeconds)
	ctx.Step(`^vehicle "([^"]*)" is damaged$`, sc.vehicleIsDamaged)
	ctx.Step(`^(satisfaction|budget|workforce) is adjusted by (-?\d+)$`, sc.counterIsAdjustedBy)

	// Then steps
	ctx.Step(`^there should be (\d+) "([^"]*)" tasks? titled "([^"]*)"$`, sc.thereShouldBeTasksTitled)
	ctx.Step(`^no task should be titled "([^"]*)"$`, sc.noTaskShouldBeTitled)
	ctx.Step(`^the task "([^"]*)" should be "([^"]*)"$`, sc.theTaskShouldBe)
	ctx.Step(`^the task "([^"]*)" should target "([^"]*)"$`, sc.theTaskShouldTarget)
	ctx.Step(`^facility "([^"]*)" should hold (\d+) "([^"]*)"$`, sc.facilityShouldHold)
	ctx.Step(`^vehicle "([^"]*)" should be "([^"]*)"$`, sc.vehicleShouldBe)
	ctx.Step(`^(satisfaction|budget|workforce) should be (-?\d+)$`, sc.counterShouldBe)
	ctx.Step(`^the last command should fail$`, sc.theLastCommandShouldFail)
	ctx.Step(`^the last command should succeed$`, sc.theLastCommandShouldSucceed)
	ctx.Step(`^an? "([^"]*)" event should have been published$`, sc.anEventShouldHaveBeenPublished)
	ctx.Step(`^the archive should hold (\d+) "([^"]*)" tasks?$`, sc.theArchiveShouldHoldTasks)
	ctx.Step(`^the ledger should list (\d+) "([^"]*)" entr(?:y|ies)$`, sc.theLedgerShouldListEntries)
}
