package task

import "github.com/andrescamacho/reliefops-go/internal/domain/facility"

// Choice is a branch the player may pick for a task
type Choice struct {
	ID       int
	Text     string
	Impacts  []Impact
	Delivery *DeliverySpec

	// damaged vehicles put back in service when the choice completes the task
	RepairVehicles int
}

// RequestsDelivery reports whether picking the choice moves cargo
func (c Choice) RequestsDelivery() bool {
	return c.Delivery != nil
}

func findChoice(choices []Choice, id int) (Choice, bool) {
	for _, c := range choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// QuantityMode decides how a delivery quantity is derived
type QuantityMode string

const (
	QuantityFixed                 QuantityMode = "fixed"
	QuantityPercentageOfAvailable QuantityMode = "percentage"
	QuantityAllAvailable          QuantityMode = "all"
)

// Strategy decides how one endpoint of a delivery is chosen
type Strategy string

const (
	// StrategyAutoFind searches every operational facility of the default types for the cargo
	StrategyAutoFind Strategy = "auto"
	// StrategyByType searches operational facilities of FacilityType (plus IncludeTypes)
	StrategyByType Strategy = "by_type"
	// StrategySpecificInstance pins the endpoint to FacilityID
	StrategySpecificInstance Strategy = "specific"
	// StrategyRequestingFacility pins the endpoint to the facility the task belongs to
	StrategyRequestingFacility Strategy = "requesting"
	// StrategyManualName pins the endpoint by exact display name
	StrategyManualName Strategy = "name"
)

// IsFixed reports whether the strategy pins a single facility
func (s Strategy) IsFixed() bool {
	return s == StrategySpecificInstance || s == StrategyRequestingFacility || s == StrategyManualName
}

// EndpointSelector describes one side of a delivery
type EndpointSelector struct {
	Strategy     Strategy
	FacilityType facility.Type
	FacilityID   facility.ID
	Name         string
}

// DeliverySpec is the cargo request attached to a choice
type DeliverySpec struct {
	Cargo         facility.Cargo
	QuantityMode  QuantityMode
	Quantity      int
	Percentage    int
	Source        EndpointSelector
	Destination   EndpointSelector
	Immediate     bool
	MultiEndpoint bool
	Priority      int
	IncludeTypes  []facility.Type
	ExcludeTypes  []facility.Type
	PreferTypes   []facility.Type
}

// ResolveQuantity turns the quantity mode into units given what the fixed endpoint has available.
// Fixed mode ignores available; a non-positive fixed quantity means "everything available".
func (d DeliverySpec) ResolveQuantity(available int) int {
	if available < 0 {
		available = 0
	}
	switch d.QuantityMode {
	case QuantityPercentageOfAvailable:
		pct := d.Percentage
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return available * pct / 100
	case QuantityAllAvailable:
		return available
	default:
		if d.Quantity <= 0 {
			return available
		}
		return d.Quantity
	}
}
