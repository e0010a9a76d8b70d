package delivery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// DefaultQueueLimit caps how many records may wait for a vehicle at once
const DefaultQueueLimit = 50

// Options tunes the engine
type Options struct {
	QueueLimit       int
	DefaultTimeLimit time.Duration
	PreferShelters   bool
}

// Engine validates cargo requests, allocates them across candidate facilities
// and owns every delivery record of the session.
//
// Thread-Safety:
// mu serialises planning with record creation so the reservation reads behind
// a plan and the reservations it books happen in one critical section.
type Engine struct {
	mu sync.Mutex

	facilities *facility.Directory
	roster     *fleet.Roster
	ledger     *domainDelivery.ReservationLedger
	publisher  events.Publisher
	clock      shared.Clock

	records   map[domainDelivery.ID]*domainDelivery.Record
	order     []domainDelivery.ID
	listeners []Listener

	queueLimit       int
	defaultTimeLimit time.Duration
	preferShelters   bool

	lostUnits int
}

// NewEngine creates an engine. If clock is nil, uses RealClock.
func NewEngine(
	facilities *facility.Directory,
	roster *fleet.Roster,
	ledger *domainDelivery.ReservationLedger,
	publisher events.Publisher,
	clock shared.Clock,
	opts Options,
) *Engine {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if opts.QueueLimit <= 0 {
		opts.QueueLimit = DefaultQueueLimit
	}
	return &Engine{
		facilities:       facilities,
		roster:           roster,
		ledger:           ledger,
		publisher:        publisher,
		clock:            clock,
		records:          make(map[domainDelivery.ID]*domainDelivery.Record),
		queueLimit:       opts.QueueLimit,
		defaultTimeLimit: opts.DefaultTimeLimit,
		preferShelters:   opts.PreferShelters,
	}
}

// AddListener registers a completion/failure listener
func (e *Engine) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Ledger exposes the reservation ledger for read-only inspection
func (e *Engine) Ledger() *domainDelivery.ReservationLedger {
	return e.ledger
}

// Validate reports whether the request could be fulfilled now, with a player-facing reason if not
func (e *Engine) Validate(ctx context.Context, req Request) ValidationResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, rej := e.validateUnsafe(req)
	if rej != nil {
		return ValidationResult{Reason: rej.reason}
	}
	if p.covered {
		inbound := e.ledger.ReservedIncoming(p.fixed.ID(), p.cargo)
		return ValidationResult{Covered: true, Reason: fmt.Sprintf("%d %s already inbound to %s, need is already covered", inbound, p.cargo.Unit(), p.fixed.Name())}
	}
	return ValidationResult{OK: true}
}

func (e *Engine) validateUnsafe(req Request) (*plan, *rejection) {
	if !req.Spec.Cargo.IsValid() {
		return nil, reject("Unknown cargo %s", req.Spec.Cargo)
	}
	p, rej := e.buildPlanUnsafe(req)
	if rej != nil {
		return nil, rej
	}
	if !req.Spec.Immediate && !p.covered && !e.roster.HasCapable(req.Spec.Cargo) {
		return nil, reject("No undamaged vehicle available for %s delivery", req.Spec.Cargo.Unit())
	}
	return p, nil
}

// ExecuteQueued allocates the request and creates one queued record per allocation,
// booking reservations in the same critical section. Partial fulfilment is not an error.
func (e *Engine) ExecuteQueued(ctx context.Context, req Request) (*QueuedResult, error) {
	logger := logging.LoggerFromContext(ctx)

	e.mu.Lock()
	p, rej := e.validateUnsafe(req)
	if rej != nil {
		e.mu.Unlock()
		return nil, &ErrAllocationRejected{Reason: rej.reason}
	}
	if p.covered {
		e.mu.Unlock()
		logger.Log("INFO", "Delivery already covered by inbound reservations", map[string]interface{}{
			"task_id":  req.TaskID,
			"facility": p.fixed.Name(),
		})
		return &QueuedResult{Covered: true}, nil
	}

	limit := req.TimeLimit
	if limit <= 0 {
		limit = e.defaultTimeLimit
	}
	priority := req.Spec.Priority
	if priority <= 0 {
		priority = domainDelivery.DefaultPriority
	}

	result := &QueuedResult{Requested: p.requested}
	slots := e.queueLimit - e.countUnsafe(domainDelivery.StatusQueued)
	var created []*domainDelivery.Record
	for _, a := range p.allocations {
		if slots <= 0 {
			logger.Log("WARNING", "Delivery queue full, allocation truncated", map[string]interface{}{
				"task_id": req.TaskID,
				"limit":   e.queueLimit,
			})
			break
		}
		rec, err := domainDelivery.NewRecord(a.SourceID, a.DestinationID, req.Spec.Cargo, a.Quantity, priority, req.TaskID, e.clock.Now(), limit)
		if err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("failed to create delivery record: %w", err)
		}
		e.ledger.Reserve(rec)
		e.records[rec.ID] = rec
		e.order = append(e.order, rec.ID)
		created = append(created, rec)
		result.Allocated += a.Quantity
		slots--
	}
	e.mu.Unlock()

	if len(created) == 0 {
		return nil, &ErrQueueFull{Limit: e.queueLimit}
	}

	result.Records = created
	for _, rec := range created {
		snap := rec.Snapshot()
		e.publish(events.Event{Type: events.DeliveryCreated, Delivery: &snap})
	}
	logger.Log("INFO", "Deliveries queued", map[string]interface{}{
		"task_id":   req.TaskID,
		"cargo":     string(req.Spec.Cargo),
		"requested": result.Requested,
		"allocated": result.Allocated,
		"records":   len(created),
	})
	return result, nil
}

// ExecuteImmediate performs the allocation synchronously: stock leaves each source,
// lands at each destination, and any overflow goes straight back to the source.
func (e *Engine) ExecuteImmediate(ctx context.Context, req Request) (*ImmediateResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req.Spec.Immediate = true
	p, rej := e.validateUnsafe(req)
	if rej != nil {
		return nil, &ErrAllocationRejected{Reason: rej.reason}
	}

	result := &ImmediateResult{Requested: p.requested}
	for _, a := range p.allocations {
		src, okSrc := e.facilities.Get(a.SourceID)
		dst, okDst := e.facilities.Get(a.DestinationID)
		if !okSrc || !okDst {
			return result, fmt.Errorf("facility disappeared during transfer %s -> %s", a.SourceID, a.DestinationID)
		}

		sent := src.Remove(p.cargo, a.Quantity)
		delivered := dst.Add(p.cargo, sent)
		returned := 0
		if delivered < sent {
			returned = src.Add(p.cargo, sent-delivered)
		}

		result.Transfers = append(result.Transfers, Transfer{
			SourceID:      a.SourceID,
			DestinationID: a.DestinationID,
			Sent:          sent,
			Delivered:     delivered,
			Returned:      returned,
		})
		result.Delivered += delivered
	}

	logging.LoggerFromContext(ctx).Log("INFO", "Immediate transfer performed", map[string]interface{}{
		"task_id":   req.TaskID,
		"cargo":     string(p.cargo),
		"requested": result.Requested,
		"delivered": result.Delivered,
	})
	return result, nil
}

// Record returns a record by ID
func (e *Engine) Record(id domainDelivery.ID) (*domainDelivery.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.records[id]
	return r, ok
}

// Records returns every record in creation order
func (e *Engine) Records() []*domainDelivery.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]*domainDelivery.Record, 0, len(e.order))
	for _, id := range e.order {
		result = append(result, e.records[id])
	}
	return result
}

// Pending returns queued records ordered by priority (desc) then creation time
func (e *Engine) Pending() []*domainDelivery.Record {
	var pending []*domainDelivery.Record
	for _, r := range e.Records() {
		if r.Status() == domainDelivery.StatusQueued {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending
}

// Assign hands a queued record to a vehicle
func (e *Engine) Assign(id domainDelivery.ID, vehicleID string) error {
	rec, ok := e.Record(id)
	if !ok {
		return &domainDelivery.ErrRecordNotFound{ID: id.String()}
	}
	return rec.Assign(vehicleID)
}

// MarkPickedUp records that cargo left the source and releases the outbound reservation
func (e *Engine) MarkPickedUp(id domainDelivery.ID) error {
	rec, ok := e.Record(id)
	if !ok {
		return &domainDelivery.ErrRecordNotFound{ID: id.String()}
	}
	if err := rec.MarkPickedUp(); err != nil {
		return err
	}
	return e.ledger.ReleaseOutgoing(rec)
}

// Complete finishes a record with the units accepted at the destination
func (e *Engine) Complete(ctx context.Context, id domainDelivery.ID, delivered int) error {
	rec, ok := e.Record(id)
	if !ok {
		return &domainDelivery.ErrRecordNotFound{ID: id.String()}
	}
	if err := rec.Complete(delivered, e.clock.Now()); err != nil {
		return err
	}
	releaseErr := e.releaseRemaining(rec)

	snap := rec.Snapshot()
	e.publish(events.Event{Type: events.DeliveryCompleted, Delivery: &snap})
	for _, l := range e.listenerSnapshot() {
		l.DeliveryCompleted(ctx, rec)
	}
	return releaseErr
}

// Fail finishes a record unsuccessfully (timeout, vehicle lost, source emptied)
func (e *Engine) Fail(ctx context.Context, id domainDelivery.ID, reason string) error {
	rec, ok := e.Record(id)
	if !ok {
		return &domainDelivery.ErrRecordNotFound{ID: id.String()}
	}
	if err := rec.Fail(reason, e.clock.Now()); err != nil {
		return err
	}
	releaseErr := e.releaseRemaining(rec)

	snap := rec.Snapshot()
	e.publish(events.Event{Type: events.DeliveryFailed, Delivery: &snap, Message: reason})
	for _, l := range e.listenerSnapshot() {
		l.DeliveryFailed(ctx, rec)
	}
	return releaseErr
}

// Cancel withdraws a record on the caller's behalf; listeners are not notified.
// Cancelling an already-terminal record is a no-op.
func (e *Engine) Cancel(ctx context.Context, id domainDelivery.ID, reason string) error {
	rec, ok := e.Record(id)
	if !ok {
		return &domainDelivery.ErrRecordNotFound{ID: id.String()}
	}
	if rec.Status().IsTerminal() {
		return nil
	}
	if err := rec.Cancel(reason, e.clock.Now()); err != nil {
		return err
	}
	releaseErr := e.releaseRemaining(rec)

	snap := rec.Snapshot()
	e.publish(events.Event{Type: events.DeliveryFailed, Delivery: &snap, Message: reason})
	return releaseErr
}

// recordLoss counts cargo units that could not be put back anywhere
func (e *Engine) recordLoss(units int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lostUnits += units
}

// Stats summarises the fleet and the record book
func (e *Engine) Stats() Stats {
	var s Stats
	for _, t := range e.roster.Trucks() {
		s.TotalVehicles++
		switch t.Status() {
		case fleet.StatusIdle:
			s.AvailableVehicles++
		case fleet.StatusDamaged:
			s.DamagedVehicles++
		default:
			s.BusyVehicles++
		}
	}
	e.mu.Lock()
	s.LostUnits = e.lostUnits
	e.mu.Unlock()
	for _, r := range e.Records() {
		switch r.Status() {
		case domainDelivery.StatusQueued:
			s.Queued++
		case domainDelivery.StatusInTransit:
			s.InTransit++
		case domainDelivery.StatusCompleted:
			s.Completed++
		case domainDelivery.StatusFailed:
			s.Failed++
		case domainDelivery.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

func (e *Engine) releaseRemaining(rec *domainDelivery.Record) error {
	if rec.PickedUp() {
		return e.ledger.ReleaseIncoming(rec)
	}
	return e.ledger.Release(rec)
}

func (e *Engine) countUnsafe(status domainDelivery.Status) int {
	count := 0
	for _, r := range e.records {
		if r.Status() == status {
			count++
		}
	}
	return count
}

func (e *Engine) listenerSnapshot() []Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Listener(nil), e.listeners...)
}

func (e *Engine) publish(ev events.Event) {
	if e.publisher == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.clock.Now()
	}
	e.publisher.Publish(ev)
}
