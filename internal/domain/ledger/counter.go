package ledger

// Counter is a global score the player manages
type Counter string

const (
	CounterSatisfaction Counter = "SATISFACTION"
	CounterBudget       Counter = "BUDGET"
	CounterWorkforce    Counter = "WORKFORCE"
)

// Bounds clamps a counter's value
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds mirrors the game's satisfaction slider and budget display limits
var DefaultBounds = map[Counter]Bounds{
	CounterSatisfaction: {Min: 0, Max: 100},
	CounterBudget:       {Min: 0, Max: 999999},
	CounterWorkforce:    {Min: 0, Max: 999999},
}

// DefaultStart is the value each counter starts a session with
var DefaultStart = map[Counter]int{
	CounterSatisfaction: 50,
	CounterBudget:       10000,
	CounterWorkforce:    0,
}

func (c Counter) IsValid() bool {
	_, ok := DefaultBounds[c]
	return ok
}
