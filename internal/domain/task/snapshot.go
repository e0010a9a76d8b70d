package task

import "time"

// Snapshot is an immutable copy of a task for events, persistence and display
type Snapshot struct {
	ID                string     `json:"id"`
	TemplateID        string     `json:"template_id"`
	Title             string     `json:"title"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	FacilityID        string     `json:"facility_id,omitempty"`
	FacilityName      string     `json:"facility_name,omitempty"`
	RoundsRemaining   int        `json:"rounds_remaining"`
	RealTimeRemaining float64    `json:"real_time_remaining_seconds,omitempty"`
	ChosenChoiceID    *int       `json:"chosen_choice_id,omitempty"`
	LinkedDeliveries  []string   `json:"linked_deliveries,omitempty"`
	Impacts           []string   `json:"impacts,omitempty"`
	CreatedRound      int        `json:"created_round"`
	CreatedAt         time.Time  `json:"created_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

// Snapshot copies the task's current state
func (t *Task) Snapshot() Snapshot {
	s := Snapshot{
		ID:              t.id.String(),
		TemplateID:      t.templateID,
		Title:           t.title,
		Type:            string(t.taskType),
		Status:          string(t.status),
		FacilityID:      string(t.facilityID),
		FacilityName:    t.facilityName,
		RoundsRemaining: t.roundsRemaining,
		CreatedRound:    t.createdRound,
		CreatedAt:       t.createdAt,
		FinishedAt:      t.finishedAt,
	}
	if t.hasRealTimeLimit {
		s.RealTimeRemaining = t.realTimeRemaining.Seconds()
	}
	if t.chosenChoiceID != nil {
		id := *t.chosenChoiceID
		s.ChosenChoiceID = &id
	}
	for _, i := range t.impacts {
		s.Impacts = append(s.Impacts, i.Describe())
	}
	for _, d := range t.linkedDeliveries {
		s.LinkedDeliveries = append(s.LinkedDeliveries, d.String())
	}
	return s
}
