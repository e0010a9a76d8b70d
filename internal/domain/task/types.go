package task

import (
	"fmt"
	"time"
)

// Type classifies a task and decides its expiry outcome and default timing
type Type string

const (
	TypeEmergency Type = "EMERGENCY"
	TypeDemand    Type = "DEMAND"
	TypeAdvisory  Type = "ADVISORY"
	TypeAlert     Type = "ALERT"
	TypeOther     Type = "OTHER"
)

// AllTypes lists every task type in display order
var AllTypes = []Type{TypeEmergency, TypeDemand, TypeAdvisory, TypeAlert, TypeOther}

func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FailsOnExpiry reports whether running out of time counts as a failure (Incomplete)
// rather than a quiet expiry
func (t Type) FailsOnExpiry() bool {
	return t == TypeEmergency || t == TypeDemand
}

// Timing is the default countdown for a task type
type Timing struct {
	Rounds           int
	RealTimeLimit    time.Duration
	HasRealTimeLimit bool
}

// DefaultTiming returns the countdown ad-hoc tasks of the type start with
func DefaultTiming(t Type) Timing {
	switch t {
	case TypeEmergency:
		return Timing{Rounds: 1, RealTimeLimit: 180 * time.Second, HasRealTimeLimit: true}
	case TypeDemand:
		return Timing{Rounds: 1, RealTimeLimit: 300 * time.Second, HasRealTimeLimit: true}
	case TypeAdvisory:
		return Timing{Rounds: 3}
	case TypeAlert:
		return Timing{Rounds: 2, RealTimeLimit: 600 * time.Second, HasRealTimeLimit: true}
	default:
		return Timing{Rounds: 1}
	}
}

// Status is the lifecycle state of a task instance
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusIncomplete Status = "INCOMPLETE"
	StatusExpired    Status = "EXPIRED"
	StatusCompleted  Status = "COMPLETED"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{StatusActive, StatusInProgress, StatusCompleted, StatusIncomplete, StatusExpired}

// IsTerminal reports whether the status is final
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusIncomplete || s == StatusExpired
}

// ImpactType names the counter or display metric an impact refers to
type ImpactType string

const (
	ImpactSatisfaction ImpactType = "SATISFACTION"
	ImpactBudget       ImpactType = "BUDGET"
	ImpactFoodPacks    ImpactType = "FOOD_PACKS"
	ImpactClients      ImpactType = "CLIENTS"
	ImpactWorkforce    ImpactType = "WORKFORCE"
	ImpactTotalTime    ImpactType = "TOTAL_TIME"
	ImpactTrainingTime ImpactType = "TRAINING_TIME"
	ImpactTotalCosts   ImpactType = "TOTAL_COSTS"
	ImpactTotalLodging ImpactType = "TOTAL_LODGING"
)

var impactLabels = map[ImpactType]string{
	ImpactSatisfaction: "Satisfaction",
	ImpactBudget:       "Budget",
	ImpactFoodPacks:    "Food Packs",
	ImpactClients:      "Clients",
	ImpactWorkforce:    "Workforce",
	ImpactTotalTime:    "Total Time",
	ImpactTrainingTime: "Training Time",
	ImpactTotalCosts:   "Total Costs",
	ImpactTotalLodging: "Total Lodging",
}

func (t ImpactType) IsValid() bool {
	_, ok := impactLabels[t]
	return ok
}

// Impact is a signed change to a counter, shown on the task card and applied on
// choice selection or as a penalty when the task fails
type Impact struct {
	Type        ImpactType
	Value       int
	IsCountdown bool
	Label       string
}

// ImpactLabel returns the custom label or the default name of the impact type
func ImpactLabel(i Impact) string {
	if i.Label != "" {
		return i.Label
	}
	if label, ok := impactLabels[i.Type]; ok {
		return label
	}
	return string(i.Type)
}

// Describe renders the impact as "+10 Satisfaction"
func (i Impact) Describe() string {
	return fmt.Sprintf("%+d %s", i.Value, ImpactLabel(i))
}

// Message is one line of the conversation shown for a task
type Message struct {
	Speaker string
	Text    string
}

// NumericInput is a bounded number prompt attached to a task (e.g. "volunteers to send")
type NumericInput struct {
	ID      int
	Label   string
	Current int
	Min     int
	Max     int
	Step    int
}

// Clamp snaps value into [Min, Max] on the Step grid anchored at Min
func (n NumericInput) Clamp(value int) int {
	if value < n.Min {
		value = n.Min
	}
	if value > n.Max {
		value = n.Max
	}
	if n.Step > 1 {
		offset := (value - n.Min) / n.Step * n.Step
		value = n.Min + offset
	}
	return value
}
