package analysis

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Bahjat/content-insight/backend/internal/document"
)

var (
	// ErrEmptyCheckID is returned when registering a check without an id.
	ErrEmptyCheckID = errors.New("analysis: check id must not be empty")
	// ErrDuplicateCheck is returned when a check id is registered twice.
	ErrDuplicateCheck = errors.New("analysis: check id already registered")
	// ErrFaultyCheck is returned when a check panics while reporting its id.
	ErrFaultyCheck = errors.New("analysis: check id could not be read")
)

// Registry holds the candidate checks in registration order.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	checks []Check
	ids    map[string]struct{}
}

// NewRegistry creates a Registry and registers checks in the given order.
func NewRegistry(checks ...Check) (*Registry, error) {
	r := &Registry{ids: make(map[string]struct{}, len(checks))}
	for _, c := range checks {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a check. Registering an empty or already used id is an
// error. The id is read once here and served from the registry afterwards.
func (r *Registry) Register(c Check) error {
	id, err := readID(c)
	if err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyCheckID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCheck, id)
	}
	r.ids[id] = struct{}{}
	r.checks = append(r.checks, registered{Check: c, id: id})
	return nil
}

// registered pins a check to the id it had at registration.
type registered struct {
	Check
	id string
}

func (r registered) ID() string { return r.id }

func readID(c Check) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFaultyCheck, r)
		}
	}()
	return c.ID(), nil
}

// Checks returns the registered checks in registration order.
func (r *Registry) Checks() []Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.checks)
}

// IDs returns the registered check ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return checkIDs(r.checks)
}

// OverrideHook lets a host application adjust the enabled check ids for one
// document. Returning nil keeps the ids it was given; any other slice,
// including an empty one, replaces them. Ids that match no available check
// are ignored.
//
// Hooks run on every analysis and must be fast and free of side effects.
type OverrideHook func(enabled []string, doc *document.Document) []string

// Resolve picks the subset of available checks that should run.
//
// With no configuration every check is enabled. Otherwise only ids
// configured as true are enabled; if that leaves nothing, every check is
// enabled again. The hook, when set, then gets the final say. The result
// preserves the order of available.
func Resolve(available []Check, configured map[string]bool, hook OverrideHook, doc *document.Document) []Check {
	availableIDs := checkIDs(available)

	enabled := availableIDs
	if len(configured) > 0 {
		enabled = slices.DeleteFunc(slices.Clone(availableIDs), func(id string) bool {
			return !configured[id]
		})
		if len(enabled) == 0 {
			enabled = availableIDs
		}
	}

	if hook != nil {
		if override := runHook(hook, slices.Clone(enabled), doc); override != nil {
			enabled = override
		}
	}

	keep := make(map[string]struct{}, len(enabled))
	for _, id := range enabled {
		keep[id] = struct{}{}
	}

	resolved := make([]Check, 0, len(keep))
	for _, c := range available {
		if _, ok := keep[c.ID()]; ok {
			resolved = append(resolved, c)
		}
	}
	return resolved
}

// runHook calls hook and treats a panic as no answer.
func runHook(hook OverrideHook, enabled []string, doc *document.Document) (ids []string) {
	defer func() {
		if recover() != nil {
			ids = nil
		}
	}()
	return hook(enabled, doc)
}

func checkIDs(checks []Check) []string {
	ids := make([]string, len(checks))
	for i, c := range checks {
		ids[i] = c.ID()
	}
	return ids
}
