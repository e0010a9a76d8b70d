package simulation

import (
	"github.com/andrescamacho/reliefops-go/internal/application/events"
)

// roundStamper fills in the current round on events before queueing them
type roundStamper struct {
	queue *events.Queue
	round func() int
}

func (s *roundStamper) Publish(e events.Event) {
	if e.Round == 0 {
		e.Round = s.round()
	}
	s.queue.Publish(e)
}
