package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks/commands"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks/queries"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

func setup(t *testing.T) (mediator.Mediator, *tasks.Manager) {
	t.Helper()
	manager := tasks.NewManager(nil, ledger.NewScoreboard(nil), nil, nil, nil, nil, tasks.Options{})
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*commands.SelectChoiceCommand](m, commands.NewSelectChoiceHandler(manager)))
	resolve := commands.NewResolveTaskHandler(manager)
	require.NoError(t, mediator.RegisterHandler[*commands.ConfirmTaskCommand](m, resolve))
	require.NoError(t, mediator.RegisterHandler[*commands.IgnoreTaskCommand](m, resolve))
	require.NoError(t, mediator.RegisterHandler[*commands.SetNumericInputCommand](m, commands.NewSetNumericInputHandler(manager)))
	require.NoError(t, mediator.RegisterHandler[*queries.ListTasksQuery](m, queries.NewListTasksHandler(manager)))
	return m, manager
}

func TestSelectChoiceCommand(t *testing.T) {
	// Arrange
	m, manager := setup(t)
	created, err := manager.CreateAdHoc(context.Background(), tasks.AdHocTask{
		Title: "Volunteer briefing",
		Type:  task.TypeOther,
		Choices: []task.Choice{
			{ID: 1, Text: "Hold it", Impacts: []task.Impact{{Type: task.ImpactWorkforce, Value: 4}}},
		},
	})
	require.NoError(t, err)

	// Act
	resp, err := m.Send(context.Background(), &commands.SelectChoiceCommand{TaskID: created.ID().String(), ChoiceID: 1})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.(*commands.SelectChoiceResponse).Status)
	assert.Equal(t, 4, manager.Scoreboard().Value(ledger.CounterWorkforce))
}

func TestSelectChoiceCommand_UnknownChoice(t *testing.T) {
	m, manager := setup(t)
	created, err := manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "Briefing", Type: task.TypeOther})
	require.NoError(t, err)

	_, err = m.Send(context.Background(), &commands.SelectChoiceCommand{TaskID: created.ID().String(), ChoiceID: 7})

	var missing *task.ErrChoiceNotFound
	assert.ErrorAs(t, err, &missing)
}

func TestResolveTaskCommands(t *testing.T) {
	m, manager := setup(t)
	advisory, err := manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "Forecast", Type: task.TypeAdvisory})
	require.NoError(t, err)
	other, err := manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "Road open", Type: task.TypeOther})
	require.NoError(t, err)

	ignored, err := m.Send(context.Background(), &commands.IgnoreTaskCommand{TaskID: advisory.ID().String()})
	require.NoError(t, err)
	confirmed, err := m.Send(context.Background(), &commands.ConfirmTaskCommand{TaskID: other.ID().String()})
	require.NoError(t, err)

	assert.Equal(t, "EXPIRED", ignored.(*commands.ResolveTaskResponse).Status)
	assert.Equal(t, "COMPLETED", confirmed.(*commands.ResolveTaskResponse).Status)
}

func TestSetNumericInputCommand(t *testing.T) {
	m, manager := setup(t)
	tpl := &task.Template{
		ID: "volunteers", Title: "Volunteers", Type: task.TypeOther, Global: true, RoundsRemaining: 1,
		NumericInputs: []task.NumericInput{{ID: 1, Min: 1, Max: 10, Step: 1}},
	}
	created, err := manager.CreateFromTemplate(context.Background(), tpl, nil)
	require.NoError(t, err)

	resp, err := m.Send(context.Background(), &commands.SetNumericInputCommand{TaskID: created.ID().String(), InputID: 1, Value: -3})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.(*commands.SetNumericInputResponse).Value)
}

func TestListTasksQuery(t *testing.T) {
	m, manager := setup(t)
	_, err := manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "A", Type: task.TypeAdvisory})
	require.NoError(t, err)
	_, err = manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "B", Type: task.TypeAlert})
	require.NoError(t, err)
	alert := task.TypeAlert

	resp, err := m.Send(context.Background(), &queries.ListTasksQuery{Type: &alert})

	require.NoError(t, err)
	list := resp.(*queries.ListTasksResponse)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "B", list.Tasks[0].Title)
	assert.Equal(t, 2, list.Stats.Total)
}
