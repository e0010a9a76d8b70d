package delivery

import (
	"context"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
)

type tripPhase int

const (
	phaseToSource tripPhase = iota
	phaseToDestination
)

// trip is a record being carried by a truck
type trip struct {
	record    *domainDelivery.Record
	truck     *fleet.Truck
	phase     tripPhase
	remaining time.Duration
	trips     int
	carried   int
}

// Dispatcher moves queued records through the fleet: it assigns idle trucks by
// suitability, advances travel each tick, performs pickup and drop-off against
// facility storage, and fails records that outlive their time limit.
//
// Travel time is distance / speed seconds per leg; loads larger than the truck
// need several round trips.
type Dispatcher struct {
	engine     *Engine
	roster     *fleet.Roster
	facilities *facility.Directory
	selector   *fleet.Selector

	trips map[domainDelivery.ID]*trip
	ages  map[domainDelivery.ID]time.Duration
}

// NewDispatcher creates a dispatcher over the engine's records
func NewDispatcher(engine *Engine, roster *fleet.Roster, facilities *facility.Directory) *Dispatcher {
	return &Dispatcher{
		engine:     engine,
		roster:     roster,
		facilities: facilities,
		selector:   fleet.NewSelector(),
		trips:      make(map[domainDelivery.ID]*trip),
		ages:       make(map[domainDelivery.ID]time.Duration),
	}
}

// ActiveTrips returns how many records are on the road
func (d *Dispatcher) ActiveTrips() int {
	return len(d.trips)
}

// Tick advances every delivery by delta of simulated running time
func (d *Dispatcher) Tick(ctx context.Context, delta time.Duration) {
	d.expire(ctx, delta)
	d.assign(ctx)
	d.advance(ctx, delta)
}

func (d *Dispatcher) expire(ctx context.Context, delta time.Duration) {
	for _, rec := range d.engine.Records() {
		if rec.Status().IsTerminal() {
			delete(d.ages, rec.ID)
			continue
		}
		d.ages[rec.ID] += delta
		if rec.TimeLimit > 0 && d.ages[rec.ID] > rec.TimeLimit {
			d.abort(ctx, rec, "delivery timed out")
		}
	}
}

func (d *Dispatcher) assign(ctx context.Context) {
	logger := logging.LoggerFromContext(ctx)

	for _, rec := range d.engine.Pending() {
		src, ok := d.facilities.Get(rec.SourceID)
		if !ok {
			d.abort(ctx, rec, "source facility missing")
			continue
		}

		choice, err := d.selector.SelectForLoad(d.roster.Trucks(), rec.Cargo, rec.Quantity, src.Position())
		if err != nil {
			// nothing idle for this cargo; lower-priority records may still fit other trucks
			continue
		}
		if err := d.engine.Assign(rec.ID, choice.Vehicle.ID()); err != nil {
			logger.Log("ERROR", "Failed to assign delivery", map[string]interface{}{"delivery_id": rec.ID.String(), "error": err.Error()})
			continue
		}
		_ = choice.Vehicle.SetStatus(fleet.StatusInTransit)

		d.trips[rec.ID] = &trip{
			record:    rec,
			truck:     choice.Vehicle,
			phase:     phaseToSource,
			remaining: travelTime(choice.Distance, choice.Vehicle.Speed()),
			trips:     choice.Trips,
		}
		logger.Log("DEBUG", "Vehicle assigned", map[string]interface{}{
			"delivery_id": rec.ID.String(),
			"vehicle":     choice.Vehicle.ID(),
			"score":       choice.Score,
			"trips":       choice.Trips,
		})
	}
}

func (d *Dispatcher) advance(ctx context.Context, delta time.Duration) {
	for id, tr := range d.trips {
		if tr.record.Status().IsTerminal() {
			if src, ok := d.facilities.Get(tr.record.SourceID); ok && tr.carried > 0 {
				d.returnToSource(ctx, tr.record, src, tr.carried)
			}
			d.releaseTruck(tr)
			delete(d.trips, id)
			continue
		}
		if tr.truck.Status() == fleet.StatusDamaged {
			d.abort(ctx, tr.record, "vehicle damaged en route")
			continue
		}

		tr.remaining -= delta
		if tr.remaining > 0 {
			continue
		}

		src, okSrc := d.facilities.Get(tr.record.SourceID)
		dst, okDst := d.facilities.Get(tr.record.DestinationID)
		if !okSrc || !okDst {
			d.abort(ctx, tr.record, "facility missing")
			continue
		}

		switch tr.phase {
		case phaseToSource:
			d.pickUp(ctx, tr, src, dst)
		case phaseToDestination:
			d.dropOff(ctx, tr, src, dst)
		}
	}
}

func (d *Dispatcher) pickUp(ctx context.Context, tr *trip, src, dst facility.Facility) {
	_ = tr.truck.SetStatus(fleet.StatusLoading)
	tr.truck.MoveTo(src.Position())
	tr.carried = src.Remove(tr.record.Cargo, tr.record.Quantity)
	if err := d.engine.MarkPickedUp(tr.record.ID); err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Pickup bookkeeping failed", map[string]interface{}{
			"delivery_id": tr.record.ID.String(),
			"error":       err.Error(),
		})
	}
	if tr.carried == 0 {
		d.abort(ctx, tr.record, "nothing left to pick up at "+src.Name())
		return
	}

	_ = tr.truck.SetStatus(fleet.StatusInTransit)
	legs := 2*tr.trips - 1
	tr.phase = phaseToDestination
	tr.remaining = travelTime(src.Position().DistanceTo(dst.Position())*float64(legs), tr.truck.Speed())
}

func (d *Dispatcher) dropOff(ctx context.Context, tr *trip, src, dst facility.Facility) {
	_ = tr.truck.SetStatus(fleet.StatusUnloading)
	tr.truck.MoveTo(dst.Position())
	accepted := dst.Add(tr.record.Cargo, tr.carried)
	if accepted < tr.carried {
		d.returnToSource(ctx, tr.record, src, tr.carried-accepted)
	}

	delete(d.trips, tr.record.ID)
	d.releaseTruck(tr)
	if err := d.engine.Complete(ctx, tr.record.ID, accepted); err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Delivery completion bookkeeping failed", map[string]interface{}{
			"delivery_id": tr.record.ID.String(),
			"error":       err.Error(),
		})
	}
}

// returnToSource unloads carried cargo back at the source; units that no
// longer fit are written off
func (d *Dispatcher) returnToSource(ctx context.Context, rec *domainDelivery.Record, src facility.Facility, qty int) {
	returned := src.Add(rec.Cargo, qty)
	if returned >= qty {
		return
	}
	lost := qty - returned
	d.engine.recordLoss(lost)
	logging.LoggerFromContext(ctx).Log("WARNING", "Cargo lost returning to source", map[string]interface{}{
		"delivery_id": rec.ID.String(),
		"facility":    src.Name(),
		"cargo":       string(rec.Cargo),
		"carried":     qty,
		"returned":    returned,
		"lost":        lost,
	})
}

// abort fails a record, returning any carried cargo to its source and freeing the truck
func (d *Dispatcher) abort(ctx context.Context, rec *domainDelivery.Record, reason string) {
	if tr, ok := d.trips[rec.ID]; ok {
		if tr.carried > 0 {
			if src, found := d.facilities.Get(rec.SourceID); found {
				d.returnToSource(ctx, rec, src, tr.carried)
			}
		}
		delete(d.trips, rec.ID)
		d.releaseTruck(tr)
	}
	delete(d.ages, rec.ID)

	if rec.Status().IsTerminal() {
		return
	}
	if err := d.engine.Fail(ctx, rec.ID, reason); err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Delivery failure bookkeeping failed", map[string]interface{}{
			"delivery_id": rec.ID.String(),
			"error":       err.Error(),
		})
	}
}

func (d *Dispatcher) releaseTruck(tr *trip) {
	if tr.truck.Status() != fleet.StatusDamaged {
		_ = tr.truck.SetStatus(fleet.StatusIdle)
	}
}

func travelTime(distance, speed float64) time.Duration {
	if speed <= 0 || distance <= 0 {
		return 0
	}
	return time.Duration(distance / speed * float64(time.Second))
}
