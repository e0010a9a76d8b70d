package simulation

import (
	"context"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
)

// RoundReport summarises what one round advance did
type RoundReport struct {
	Round   int
	Day     int
	Expired int
	Created int
	Events  int
}

// AdvanceRound moves the session to the next round.
//
// Business Rules:
//  1. Live tasks count down one round
//  2. Tasks that ran out of time expire and their impacts apply
//  3. Templates are evaluated against the new round and matching ones instantiate
//  4. The event queue is drained once at the end
func (c *Context) AdvanceRound(ctx context.Context) RoundReport {
	logger := logging.LoggerFromContext(ctx)

	c.mu.Lock()
	c.round++
	round := c.round
	c.mu.Unlock()

	c.manager.OnRoundAdvanced(ctx)
	expired := c.manager.ExpireDue(ctx)

	created := 0
	for _, a := range c.registry.Evaluate(ctx, c, c.manager) {
		if _, err := c.manager.CreateFromTemplate(ctx, a.Template, a.Facility); err != nil {
			logger.Log("ERROR", "Failed to instantiate template", map[string]interface{}{
				"template_id": a.Template.ID,
				"facility_id": string(a.FacilityID()),
				"error":       err.Error(),
			})
			continue
		}
		created++
	}

	c.queue.Publish(events.Event{
		Type:      events.RoundAdvanced,
		Round:     round,
		Timestamp: c.clock.Now(),
	})
	drained := c.queue.Drain(ctx)

	report := RoundReport{
		Round:   round,
		Day:     c.CurrentDay(),
		Expired: len(expired),
		Created: created,
		Events:  drained,
	}
	logger.Log("INFO", "Round advanced", map[string]interface{}{
		"round":   report.Round,
		"day":     report.Day,
		"expired": report.Expired,
		"created": report.Created,
	})
	return report
}

// Tick advances simulated real time by delta. Countdown and transit only move while
// the session is running; the event queue is drained either way.
func (c *Context) Tick(ctx context.Context, delta time.Duration) int {
	if c.IsRunning() && delta > 0 {
		c.manager.AdvanceRealTime(ctx, delta, true)
		c.manager.ExpireDue(ctx)
		c.dispatcher.Tick(ctx, delta)
	}
	return c.queue.Drain(ctx)
}

// SetRunning pauses or resumes real-time progress
func (c *Context) SetRunning(running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = running
}

// IsRunning reports whether real time is flowing
func (c *Context) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}
