package ledger

import "fmt"

// ErrInvalidEntry represents validation errors for ledger entries
type ErrInvalidEntry struct {
	Field  string
	Reason string
}

func (e *ErrInvalidEntry) Error() string {
	return fmt.Sprintf("invalid ledger entry: %s - %s", e.Field, e.Reason)
}

// ErrBalanceInvariantViolation represents errors when before + amount != after
type ErrBalanceInvariantViolation struct {
	ValueBefore int
	Amount      int
	ValueAfter  int
	Expected    int
}

func (e *ErrBalanceInvariantViolation) Error() string {
	return fmt.Sprintf("balance invariant violated: value_before=%d + amount=%d should equal value_after=%d, but got %d",
		e.ValueBefore, e.Amount, e.Expected, e.ValueAfter)
}
