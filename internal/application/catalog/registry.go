package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
	"github.com/andrescamacho/reliefops-go/internal/domain/trigger"
)

// Activation is a template whose triggers fired, bound to the facility it targets.
// Facility is nil for global templates.
type Activation struct {
	Template *task.Template
	Facility facility.Facility
}

// FacilityID returns the bound facility's ID, or "" for global activations
func (a Activation) FacilityID() facility.ID {
	if a.Facility == nil {
		return ""
	}
	return a.Facility.ID()
}

// ActiveChecker reports whether a live (non-terminal) task already exists for a
// title and facility. Implemented by the task manager.
type ActiveChecker interface {
	HasLive(title string, facilityID facility.ID) bool
}

// Registry holds the session's task templates and decides which of them activate.
//
// Thread-Safety:
// templates may be replaced by the catalog watcher while the round loop evaluates,
// so every read takes the read lock and Evaluate works on a snapshot.
type Registry struct {
	mu        sync.RWMutex
	templates []*task.Template
	byID      map[string]*task.Template

	// alert templates already shown this session
	firedAlerts map[string]bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byID:        make(map[string]*task.Template),
		firedAlerts: make(map[string]bool),
	}
}

// Load replaces the template set. Nil, invalid and duplicate templates are logged
// and skipped; the number of accepted templates is returned.
func (r *Registry) Load(ctx context.Context, templates []*task.Template) int {
	logger := logging.LoggerFromContext(ctx)

	accepted := make([]*task.Template, 0, len(templates))
	byID := make(map[string]*task.Template, len(templates))
	for i, tpl := range templates {
		if tpl == nil {
			logger.Log("WARNING", "Skipping empty catalog entry", map[string]interface{}{"index": i})
			continue
		}
		if err := tpl.Validate(); err != nil {
			logger.Log("WARNING", "Skipping invalid task template", map[string]interface{}{
				"template_id": tpl.ID,
				"error":       err.Error(),
			})
			continue
		}
		if _, dup := byID[tpl.ID]; dup {
			logger.Log("WARNING", "Skipping duplicate task template", map[string]interface{}{
				"error": (&ErrDuplicateTemplate{ID: tpl.ID}).Error(),
			})
			continue
		}
		byID[tpl.ID] = tpl
		accepted = append(accepted, tpl)
	}

	r.mu.Lock()
	r.templates = accepted
	r.byID = byID
	r.mu.Unlock()

	logger.Log("INFO", "Task catalog loaded", map[string]interface{}{
		"templates": len(accepted),
		"skipped":   len(templates) - len(accepted),
	})
	return len(accepted)
}

// Len returns the number of loaded templates
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Templates returns the loaded templates in catalog order
func (r *Registry) Templates() []*task.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*task.Template(nil), r.templates...)
}

// TemplateByID looks a template up by its ID
func (r *Registry) TemplateByID(id string) (*task.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.byID[id]
	if !ok {
		return nil, &ErrTemplateNotFound{ID: id}
	}
	return tpl, nil
}

// TemplateIDs returns every template ID, sorted
func (r *Registry) TemplateIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetAlerts forgets which alert templates were shown (new session)
func (r *Registry) ResetAlerts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firedAlerts = make(map[string]bool)
}

// Evaluate returns every template activation for the current world state.
//
// Business Rules:
//  1. Global templates are evaluated once with no facility scope
//  2. Targeted templates are evaluated per candidate facility, so storage, status
//     and flood triggers look at that facility; probability is rolled per candidate
//  3. A (title, facility) pair with a live task is skipped
//  4. Alert templates activate at most once per session
//  5. Templates without triggers never activate
func (r *Registry) Evaluate(ctx context.Context, world trigger.World, active ActiveChecker) []Activation {
	logger := logging.LoggerFromContext(ctx)
	if world == nil {
		logger.Log("ERROR", "Trigger evaluation skipped: no world state", nil)
		return nil
	}

	var activations []Activation
	for _, tpl := range r.Templates() {
		if tpl.Type == task.TypeAlert && r.alertFired(tpl.ID) {
			continue
		}
		if len(tpl.Triggers) == 0 {
			continue
		}

		if tpl.Global {
			if isLive(active, tpl.Title, "") {
				continue
			}
			if trigger.EvaluateAll(tpl.Triggers, tpl.RequireAllTriggers, world, nil) {
				activations = append(activations, Activation{Template: tpl})
				r.markAlert(tpl)
			}
			continue
		}

		candidates := candidatesFor(tpl, world)
		if len(candidates) == 0 {
			logger.Log("DEBUG", "No candidate facility for template", map[string]interface{}{
				"template_id": tpl.ID,
			})
			continue
		}
		for _, f := range candidates {
			if isLive(active, tpl.Title, f.ID()) {
				continue
			}
			if trigger.EvaluateAll(tpl.Triggers, tpl.RequireAllTriggers, world, f) {
				activations = append(activations, Activation{Template: tpl, Facility: f})
				if r.markAlert(tpl) {
					break
				}
			}
		}
	}
	return activations
}

// candidatesFor resolves the facilities a targeted template may bind to
func candidatesFor(tpl *task.Template, world trigger.World) []facility.Facility {
	all := world.Facilities()

	if tpl.SpecificFacilityID != "" {
		for _, f := range all {
			if f.ID() == tpl.SpecificFacilityID {
				return []facility.Facility{f}
			}
		}
		return nil
	}

	var result []facility.Facility
	for _, f := range all {
		if f.Type() == tpl.TargetFacilityType && f.IsOperational() {
			result = append(result, f)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	if !tpl.AutoSelectFacility && len(result) > 1 {
		return result[:1]
	}
	return result
}

func isLive(active ActiveChecker, title string, id facility.ID) bool {
	return active != nil && active.HasLive(title, id)
}

func (r *Registry) alertFired(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.firedAlerts[id]
}

// markAlert records an alert activation and reports whether the template was an alert
func (r *Registry) markAlert(tpl *task.Template) bool {
	if tpl.Type != task.TypeAlert {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firedAlerts[tpl.ID] = true
	return true
}
