package simulation

import (
	"context"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/delivery"
	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
)

// AdvanceRoundCommand ends the current round
type AdvanceRoundCommand struct{}

// SetRunningCommand pauses or resumes real time
type SetRunningCommand struct {
	Running bool
}

// SetRunningResponse echoes the new state
type SetRunningResponse struct {
	Running bool
}

// GetStatusQuery reads the session headline numbers
type GetStatusQuery struct{}

// Status is the session headline: clock, counters, task and delivery totals
type Status struct {
	Round        int
	Day          int
	Running      bool
	Weather      string
	FloodedTiles int
	Satisfaction int
	Budget       int
	Workforce    int
	Tasks        tasks.Stats
	Deliveries   delivery.Stats
}

type advanceRoundHandler struct {
	c *Context
}

func (h *advanceRoundHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	if _, ok := request.(*AdvanceRoundCommand); !ok {
		return nil, fmt.Errorf("invalid request type: expected *AdvanceRoundCommand")
	}
	report := h.c.AdvanceRound(ctx)
	return &report, nil
}

type setRunningHandler struct {
	c *Context
}

func (h *setRunningHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SetRunningCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetRunningCommand")
	}
	h.c.SetRunning(cmd.Running)
	return &SetRunningResponse{Running: cmd.Running}, nil
}

type getStatusHandler struct {
	c *Context
}

func (h *getStatusHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	if _, ok := request.(*GetStatusQuery); !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetStatusQuery")
	}
	status := h.c.Status()
	return &status, nil
}

// Status returns the current session headline
func (c *Context) Status() Status {
	return Status{
		Round:        c.CurrentRound(),
		Day:          c.CurrentDay(),
		Running:      c.IsRunning(),
		Weather:      c.Weather(),
		FloodedTiles: c.flood.Count(),
		Satisfaction: c.Satisfaction(),
		Budget:       c.Budget(),
		Workforce:    c.Workforce(),
		Tasks:        c.manager.Stats(),
		Deliveries:   c.engine.Stats(),
	}
}
