package ledger

import (
	"time"
)

// Source tells why a counter changed
type Source string

const (
	SourceChoice          Source = "CHOICE"
	SourcePenalty         Source = "PENALTY"
	SourceDeliveryFailure Source = "DELIVERY_FAILURE"
	SourceManual          Source = "MANUAL"
)

// Entry is an immutable record of one counter change
type Entry struct {
	id          EntryID
	counter     Counter
	source      Source
	amount      int
	valueBefore int
	valueAfter  int
	description string
	taskID      string
	round       int
	timestamp   time.Time
}

// NewEntry creates an entry with validation.
// amount is the applied (post-clamp) delta, so valueBefore + amount == valueAfter.
func NewEntry(counter Counter, source Source, amount, valueBefore, valueAfter int, description, taskID string, round int, timestamp time.Time) (*Entry, error) {
	e := &Entry{
		id:          NewEntryID(),
		counter:     counter,
		source:      source,
		amount:      amount,
		valueBefore: valueBefore,
		valueAfter:  valueAfter,
		description: description,
		taskID:      taskID,
		round:       round,
		timestamp:   timestamp,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ReconstructEntry rebuilds an entry from persistence without validation
func ReconstructEntry(id EntryID, counter Counter, source Source, amount, valueBefore, valueAfter int, description, taskID string, round int, timestamp time.Time) *Entry {
	return &Entry{
		id:          id,
		counter:     counter,
		source:      source,
		amount:      amount,
		valueBefore: valueBefore,
		valueAfter:  valueAfter,
		description: description,
		taskID:      taskID,
		round:       round,
		timestamp:   timestamp,
	}
}

// Validate checks that the entry satisfies all invariants
func (e *Entry) Validate() error {
	if !e.counter.IsValid() {
		return &ErrInvalidEntry{Field: "counter", Reason: "unknown counter " + string(e.counter)}
	}
	if e.valueBefore+e.amount != e.valueAfter {
		return &ErrBalanceInvariantViolation{
			ValueBefore: e.valueBefore,
			Amount:      e.amount,
			ValueAfter:  e.valueAfter,
			Expected:    e.valueBefore + e.amount,
		}
	}
	return nil
}

// Getters (all fields are immutable)

func (e *Entry) ID() EntryID          { return e.id }
func (e *Entry) Counter() Counter     { return e.counter }
func (e *Entry) Source() Source       { return e.source }
func (e *Entry) Amount() int          { return e.amount }
func (e *Entry) ValueBefore() int     { return e.valueBefore }
func (e *Entry) ValueAfter() int      { return e.valueAfter }
func (e *Entry) Description() string  { return e.description }
func (e *Entry) TaskID() string       { return e.taskID }
func (e *Entry) Round() int           { return e.round }
func (e *Entry) Timestamp() time.Time { return e.timestamp }
