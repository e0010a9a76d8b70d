package task

import (
	"time"

	"github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

// Task is a live instance of a template bound to (at most) one facility.
//
// Invariants:
// - status moves forward only: ACTIVE -> IN_PROGRESS -> terminal, or ACTIVE -> terminal
// - once terminal, no field changes
// - the affected facility is resolved at creation and never re-resolved by name
type Task struct {
	id          ID
	templateID  string
	title       string
	taskType    Type
	description string
	status      Status

	roundsRemaining   int
	realTimeRemaining time.Duration
	hasRealTimeLimit  bool

	facilityID   facility.ID
	facilityName string

	impacts       []Impact
	messages      []Message
	choices       []Choice
	numericInputs []NumericInput

	linkedDeliveries []delivery.ID
	chosenChoiceID   *int

	deliveryFailurePenalty int
	deliveryTimeLimit      time.Duration

	createdRound int
	createdAt    time.Time
	finishedAt   *time.Time
}

// NewTask instantiates a template. target may be nil for global tasks.
func NewTask(tpl *Template, target facility.Facility, round int, now time.Time) *Task {
	t := &Task{
		id:                     NewID(),
		templateID:             tpl.ID,
		title:                  tpl.Title,
		taskType:               tpl.Type,
		description:            tpl.Description,
		status:                 StatusActive,
		roundsRemaining:        tpl.RoundsRemaining,
		realTimeRemaining:      tpl.RealTimeLimit,
		hasRealTimeLimit:       tpl.HasRealTimeLimit,
		impacts:                append([]Impact(nil), tpl.Impacts...),
		messages:               append([]Message(nil), tpl.Messages...),
		choices:                copyChoices(tpl.Choices),
		numericInputs:          append([]NumericInput(nil), tpl.NumericInputs...),
		deliveryFailurePenalty: tpl.DeliveryFailurePenalty,
		deliveryTimeLimit:      tpl.DeliveryTimeLimit,
		createdRound:           round,
		createdAt:              now,
	}
	if target != nil {
		t.facilityID = target.ID()
		t.facilityName = target.Name()
	}
	return t
}

func copyChoices(choices []Choice) []Choice {
	result := make([]Choice, len(choices))
	for i, c := range choices {
		result[i] = c
		result[i].Impacts = append([]Impact(nil), c.Impacts...)
		if c.Delivery != nil {
			spec := *c.Delivery
			result[i].Delivery = &spec
		}
	}
	return result
}

// Getters

func (t *Task) ID() ID                           { return t.id }
func (t *Task) TemplateID() string               { return t.templateID }
func (t *Task) Title() string                    { return t.title }
func (t *Task) Type() Type                       { return t.taskType }
func (t *Task) Description() string              { return t.description }
func (t *Task) Status() Status                   { return t.status }
func (t *Task) IsTerminal() bool                 { return t.status.IsTerminal() }
func (t *Task) RoundsRemaining() int             { return t.roundsRemaining }
func (t *Task) RealTimeRemaining() time.Duration { return t.realTimeRemaining }
func (t *Task) HasRealTimeLimit() bool           { return t.hasRealTimeLimit }
func (t *Task) FacilityID() facility.ID          { return t.facilityID }
func (t *Task) FacilityName() string             { return t.facilityName }
func (t *Task) DeliveryFailurePenalty() int      { return t.deliveryFailurePenalty }
func (t *Task) DeliveryTimeLimit() time.Duration { return t.deliveryTimeLimit }
func (t *Task) CreatedRound() int                { return t.createdRound }
func (t *Task) CreatedAt() time.Time             { return t.createdAt }
func (t *Task) FinishedAt() *time.Time           { return t.finishedAt }
func (t *Task) Impacts() []Impact                { return append([]Impact(nil), t.impacts...) }
func (t *Task) Messages() []Message              { return append([]Message(nil), t.messages...) }
func (t *Task) Choices() []Choice                { return copyChoices(t.choices) }
func (t *Task) NumericInputs() []NumericInput    { return append([]NumericInput(nil), t.numericInputs...) }
func (t *Task) LinkedDeliveries() []delivery.ID {
	return append([]delivery.ID(nil), t.linkedDeliveries...)
}

// ChosenChoiceID returns the selected choice, if any
func (t *Task) ChosenChoiceID() (int, bool) {
	if t.chosenChoiceID == nil {
		return 0, false
	}
	return *t.chosenChoiceID, true
}

// ChosenChoice returns the selected choice, if any
func (t *Task) ChosenChoice() (Choice, bool) {
	if t.chosenChoiceID == nil {
		return Choice{}, false
	}
	return findChoice(t.choices, *t.chosenChoiceID)
}

// SetFailurePenaltyIfUnset applies a session default when the template set none
func (t *Task) SetFailurePenaltyIfUnset(penalty int) {
	if t.deliveryFailurePenalty == 0 {
		t.deliveryFailurePenalty = penalty
	}
}

// Countdown

// DecrementRound consumes one round of budget; it never goes below zero
func (t *Task) DecrementRound() {
	if t.status.IsTerminal() || t.roundsRemaining <= 0 {
		return
	}
	t.roundsRemaining--
}

// ElapseRealTime consumes real-time budget; tasks without a limit are unaffected
func (t *Task) ElapseRealTime(delta time.Duration) {
	if t.status.IsTerminal() || !t.hasRealTimeLimit || delta <= 0 {
		return
	}
	t.realTimeRemaining -= delta
	if t.realTimeRemaining < 0 {
		t.realTimeRemaining = 0
	}
}

// IsOutOfTime reports whether either budget is exhausted
func (t *Task) IsOutOfTime() bool {
	if t.roundsRemaining <= 0 {
		return true
	}
	return t.hasRealTimeLimit && t.realTimeRemaining <= 0
}

// Choices and inputs

// Choose records the selected choice. Only active tasks accept a choice, and only once.
func (t *Task) Choose(choiceID int) (Choice, error) {
	if t.status != StatusActive || t.chosenChoiceID != nil {
		return Choice{}, &ErrInvalidTransition{TaskID: t.id, From: t.status, To: StatusInProgress}
	}
	c, ok := findChoice(t.choices, choiceID)
	if !ok {
		return Choice{}, &ErrChoiceNotFound{TaskID: t.id, ChoiceID: choiceID}
	}
	t.chosenChoiceID = &choiceID
	return c, nil
}

// ClearChoice forgets a selection whose delivery could not be started, so the player can pick again
func (t *Task) ClearChoice() {
	if t.status == StatusActive {
		t.chosenChoiceID = nil
	}
}

// SetNumericInput stores a clamped value and returns it
func (t *Task) SetNumericInput(inputID, value int) (int, error) {
	for i := range t.numericInputs {
		if t.numericInputs[i].ID == inputID {
			clamped := t.numericInputs[i].Clamp(value)
			t.numericInputs[i].Current = clamped
			return clamped, nil
		}
	}
	return 0, &ErrInputNotFound{TaskID: t.id, InputID: inputID}
}

// LinkDeliveries attaches delivery records to the task
func (t *Task) LinkDeliveries(ids ...delivery.ID) {
	t.linkedDeliveries = append(t.linkedDeliveries, ids...)
}

// IsLinkedTo reports whether the delivery belongs to the task
func (t *Task) IsLinkedTo(id delivery.ID) bool {
	for _, linked := range t.linkedDeliveries {
		if linked.Equals(id) {
			return true
		}
	}
	return false
}

// State transitions

// StartProgress moves an active task to IN_PROGRESS
func (t *Task) StartProgress() error {
	if t.status != StatusActive {
		return &ErrInvalidTransition{TaskID: t.id, From: t.status, To: StatusInProgress}
	}
	t.status = StatusInProgress
	return nil
}

// Complete finishes the task successfully
func (t *Task) Complete(now time.Time) error {
	return t.finish(StatusCompleted, now, StatusActive, StatusInProgress)
}

// MarkIncomplete finishes the task as failed
func (t *Task) MarkIncomplete(now time.Time) error {
	return t.finish(StatusIncomplete, now, StatusActive, StatusInProgress)
}

// MarkExpired finishes an untouched task quietly
func (t *Task) MarkExpired(now time.Time) error {
	return t.finish(StatusExpired, now, StatusActive)
}

// Expire applies the out-of-time outcome: Emergency/Demand tasks and tasks
// already in progress become INCOMPLETE, everything else EXPIRED.
func (t *Task) Expire(now time.Time) (Status, error) {
	if t.status == StatusInProgress || t.taskType.FailsOnExpiry() {
		return StatusIncomplete, t.MarkIncomplete(now)
	}
	return StatusExpired, t.MarkExpired(now)
}

func (t *Task) finish(to Status, now time.Time, allowed ...Status) error {
	for _, from := range allowed {
		if t.status == from {
			t.status = to
			t.finishedAt = &now
			return nil
		}
	}
	return &ErrInvalidTransition{TaskID: t.id, From: t.status, To: to}
}
