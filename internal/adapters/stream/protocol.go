package stream

import (
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
	taskCommands "github.com/andrescamacho/reliefops-go/internal/application/tasks/commands"
	taskQueries "github.com/andrescamacho/reliefops-go/internal/application/tasks/queries"
)

// Outbound envelope types
const (
	TypeHello  = "hello"
	TypeEvent  = "event"
	TypeResult = "result"
	TypeError  = "error"
)

// Envelope is every message the server writes
type Envelope struct {
	Type    string        `json:"type"`
	Session string        `json:"session,omitempty"`
	Ref     string        `json:"ref,omitempty"`
	Event   *events.Event `json:"event,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ClientMessage is a player action sent by the presentation layer
type ClientMessage struct {
	Type     string `json:"type"`
	Ref      string `json:"ref,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
	ChoiceID int    `json:"choice_id,omitempty"`
	InputID  int    `json:"input_id,omitempty"`
	Value    int    `json:"value,omitempty"`
	Running  bool   `json:"running,omitempty"`
}

// ToRequest maps the message to the mediator request it stands for
func (m ClientMessage) ToRequest() (mediator.Request, error) {
	needTask := func() error {
		if m.TaskID == "" {
			return fmt.Errorf("%s needs task_id", m.Type)
		}
		return nil
	}

	switch m.Type {
	case "select_choice":
		if err := needTask(); err != nil {
			return nil, err
		}
		return &taskCommands.SelectChoiceCommand{TaskID: m.TaskID, ChoiceID: m.ChoiceID}, nil
	case "confirm":
		if err := needTask(); err != nil {
			return nil, err
		}
		return &taskCommands.ConfirmTaskCommand{TaskID: m.TaskID}, nil
	case "ignore":
		if err := needTask(); err != nil {
			return nil, err
		}
		return &taskCommands.IgnoreTaskCommand{TaskID: m.TaskID}, nil
	case "set_numeric_input":
		if err := needTask(); err != nil {
			return nil, err
		}
		return &taskCommands.SetNumericInputCommand{TaskID: m.TaskID, InputID: m.InputID, Value: m.Value}, nil
	case "set_running":
		return &simulation.SetRunningCommand{Running: m.Running}, nil
	case "advance_round":
		return &simulation.AdvanceRoundCommand{}, nil
	case "status":
		return &simulation.GetStatusQuery{}, nil
	case "list_tasks":
		return &taskQueries.ListTasksQuery{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", m.Type)
	}
}
