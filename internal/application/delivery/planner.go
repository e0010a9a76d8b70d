package delivery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// candidate is a facility on the searched side with its effective capacity
type candidate struct {
	facility  facility.Facility
	effective int
	rank      int
	distance  float64
}

// plan is the resolved allocation for one request
type plan struct {
	cargo         facility.Cargo
	fixed         facility.Facility
	fixedIsSource bool
	requested     int
	covered       bool
	candidates    []candidate
	allocations   []Allocation
}

func (p *plan) allocated() int {
	total := 0
	for _, a := range p.allocations {
		total += a.Quantity
	}
	return total
}

// rejection carries a player-facing reason out of the planner
type rejection struct {
	reason string
}

func (r *rejection) Error() string { return r.reason }

func reject(format string, args ...interface{}) *rejection {
	return &rejection{reason: fmt.Sprintf(format, args...)}
}

// buildPlanUnsafe resolves endpoints, nets reservations and allocates greedily.
// Must be called while holding the engine mutex so reads and later reservations are atomic.
func (e *Engine) buildPlanUnsafe(req Request) (*plan, *rejection) {
	spec := req.Spec
	p := &plan{cargo: spec.Cargo}

	fixedSel, otherSel := spec.Destination, spec.Source
	p.fixedIsSource = false
	if !spec.Destination.Strategy.IsFixed() {
		fixedSel, otherSel = spec.Source, spec.Destination
		p.fixedIsSource = true
	}

	fixed, rej := e.resolveFixed(fixedSel, req, sideName(p.fixedIsSource))
	if rej != nil {
		return nil, rej
	}
	p.fixed = fixed

	if rej := e.resolveRequested(p, spec); rej != nil {
		return nil, rej
	}
	if p.covered {
		return p, nil
	}

	if otherSel.Strategy.IsFixed() {
		other, rej := e.resolveFixed(otherSel, req, sideName(!p.fixedIsSource))
		if rej != nil {
			return nil, rej
		}
		selfAllowed := spec.Source.Strategy == task.StrategyRequestingFacility &&
			spec.Destination.Strategy == task.StrategyRequestingFacility
		if other.ID() == fixed.ID() && !selfAllowed {
			return nil, reject("%s cannot deliver to itself", fixed.Name())
		}
		p.candidates = []candidate{e.scoreCandidate(other, p, 0)}
	} else {
		p.candidates = e.searchCandidates(otherSel, spec, p)
	}

	total := 0
	for _, c := range p.candidates {
		total += c.effective
	}
	if total <= 0 {
		return nil, noCapacityReason(p, otherSel, spec)
	}

	remaining := p.requested
	for _, c := range p.candidates {
		if remaining <= 0 {
			break
		}
		if c.effective <= 0 {
			continue
		}
		take := min(remaining, c.effective)
		p.allocations = append(p.allocations, p.allocationFor(c.facility, take))
		remaining -= take
		if !spec.MultiEndpoint {
			break
		}
	}
	return p, nil
}

func (p *plan) allocationFor(other facility.Facility, qty int) Allocation {
	if p.fixedIsSource {
		return Allocation{SourceID: p.fixed.ID(), DestinationID: other.ID(), Quantity: qty}
	}
	return Allocation{SourceID: other.ID(), DestinationID: p.fixed.ID(), Quantity: qty}
}

func sideName(isSource bool) string {
	if isSource {
		return "source"
	}
	return "destination"
}

func (e *Engine) resolveFixed(sel task.EndpointSelector, req Request, side string) (facility.Facility, *rejection) {
	switch sel.Strategy {
	case task.StrategyRequestingFacility:
		if req.RequestingFacilityID == "" {
			return nil, reject("Task has no requesting facility for the %s", side)
		}
		f, ok := e.facilities.Get(req.RequestingFacilityID)
		if !ok {
			return nil, reject("Cannot find %s facility '%s'", side, req.RequestingFacilityID)
		}
		return f, nil
	case task.StrategySpecificInstance:
		f, ok := e.facilities.Get(sel.FacilityID)
		if !ok {
			return nil, reject("Cannot find %s facility '%s'", side, sel.FacilityID)
		}
		return f, nil
	case task.StrategyManualName:
		f, err := e.facilities.FindByName(sel.Name)
		if err != nil {
			return nil, reject("Cannot find %s facility '%s'", side, sel.Name)
		}
		return f, nil
	default:
		return nil, reject("The %s of this delivery is not a single facility", side)
	}
}

// resolveRequested turns the quantity mode into the units still needed, net of reservations
func (e *Engine) resolveRequested(p *plan, spec task.DeliverySpec) *rejection {
	cargo := spec.Cargo
	id := p.fixed.ID()

	if p.fixedIsSource {
		available := p.fixed.Amount(cargo) - e.ledger.ReservedOutgoing(id, cargo)
		if available <= 0 {
			return reject("No %s at %s to move", cargo.Unit(), p.fixed.Name())
		}
		p.requested = min(spec.ResolveQuantity(available), available)
		if p.requested <= 0 {
			return reject("Nothing to move from %s", p.fixed.Name())
		}
		return nil
	}

	// the share is taken of the free room before reservations, so inbound
	// units count towards it in every quantity mode
	inbound := e.ledger.ReservedIncoming(id, cargo)
	room := max(p.fixed.AvailableSpace(cargo), 0)
	share := spec.ResolveQuantity(room)

	if inbound > 0 && inbound >= share {
		p.covered = true
		p.requested = 0
		return nil
	}
	space := room - inbound
	if space <= 0 {
		return reject("%s has no space for %s", p.fixed.Name(), cargo.Unit())
	}
	p.requested = min(share-inbound, space)
	if p.requested <= 0 {
		return reject("Nothing to deliver to %s", p.fixed.Name())
	}
	return nil
}

func (e *Engine) searchCandidates(sel task.EndpointSelector, spec task.DeliverySpec, p *plan) []candidate {
	types := candidateTypes(sel, spec, p.fixedIsSource)
	prefer := spec.PreferTypes
	if len(prefer) == 0 && p.fixedIsSource && e.preferShelters {
		prefer = []facility.Type{facility.TypeShelter}
	}

	var result []candidate
	for _, kind := range types {
		for _, f := range e.facilities.Operational(kind) {
			if f.ID() == p.fixed.ID() {
				continue
			}
			c := e.scoreCandidate(f, p, preferenceRank(prefer, f.Type()))
			if c.effective > 0 {
				result = append(result, c)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.effective != b.effective {
			return a.effective > b.effective
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.facility.ID() < b.facility.ID()
	})
	return result
}

func (e *Engine) scoreCandidate(f facility.Facility, p *plan, rank int) candidate {
	var effective int
	if p.fixedIsSource {
		effective = f.AvailableSpace(p.cargo) - e.ledger.ReservedIncoming(f.ID(), p.cargo)
	} else {
		effective = f.Amount(p.cargo) - e.ledger.ReservedOutgoing(f.ID(), p.cargo)
	}
	return candidate{
		facility:  f,
		effective: max(effective, 0),
		rank:      rank,
		distance:  f.Position().DistanceTo(p.fixed.Position()),
	}
}

// candidateTypes lists the facility types searched for the floating endpoint
func candidateTypes(sel task.EndpointSelector, spec task.DeliverySpec, searchingDestination bool) []facility.Type {
	var types []facility.Type
	switch sel.Strategy {
	case task.StrategyByType:
		types = append([]facility.Type{sel.FacilityType}, spec.IncludeTypes...)
	default:
		if len(spec.IncludeTypes) > 0 {
			types = append(types, spec.IncludeTypes...)
		} else {
			types = defaultTypes(spec.Cargo, searchingDestination)
		}
	}

	seen := make(map[facility.Type]bool)
	var result []facility.Type
	for _, t := range types {
		if seen[t] || containsType(spec.ExcludeTypes, t) {
			continue
		}
		seen[t] = true
		result = append(result, t)
	}
	return result
}

func defaultTypes(cargo facility.Cargo, destination bool) []facility.Type {
	switch {
	case cargo == facility.CargoFoodPacks && !destination:
		return []facility.Type{facility.TypeKitchen}
	case cargo == facility.CargoFoodPacks && destination:
		return []facility.Type{facility.TypeShelter}
	case cargo == facility.CargoPopulation && !destination:
		return []facility.Type{facility.TypeCommunity}
	default:
		return []facility.Type{facility.TypeShelter, facility.TypeMotel}
	}
}

func preferenceRank(prefer []facility.Type, t facility.Type) int {
	for i, p := range prefer {
		if p == t {
			return i
		}
	}
	return len(prefer)
}

func containsType(types []facility.Type, t facility.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func noCapacityReason(p *plan, sel task.EndpointSelector, spec task.DeliverySpec) *rejection {
	var names []string
	if sel.Strategy.IsFixed() && len(p.candidates) == 1 {
		names = []string{p.candidates[0].facility.Name()}
	} else {
		for _, t := range candidateTypes(sel, spec, p.fixedIsSource) {
			names = append(names, strings.ToLower(strings.ReplaceAll(string(t), "_", " ")))
		}
	}
	where := strings.Join(names, " or ")
	if p.fixedIsSource {
		return reject("No space available at any %s", where)
	}
	return reject("No %s available at any %s", p.cargo.Unit(), where)
}
