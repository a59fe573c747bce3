package permission

import (
	"errors"
	"sync"
)

// Grant is one role-implied access entry. Resource "*" matches any resource;
// an empty or "*" Action matches any action, so {"*", ""} is the universal
// grant.
type Grant struct {
	Resource string
	Action   string
}

// Table maps role names to implied grants. It is consulted only as a fallback
// when the explicit permission set does not authorize an action. Tables are
// populated during initialization and frozen before first use.
type Table struct {
	mu     sync.RWMutex
	roles  map[string][]Grant
	frozen bool
}

// NewTable creates an empty role-implied grant table.
func NewTable() *Table {
	return &Table{
		roles: make(map[string][]Grant),
	}
}

// RegisterRole records the implied grants for a role. Role names and grant
// fields are normalized on registration; the "*" wildcards are kept
// verbatim, and an empty action registers as the action wildcard. Must be
// called before [Table.Freeze].
func (t *Table) RegisterRole(role string, grants []Grant) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("grant table frozen")
	}

	name := Normalize(role)
	if name == "" {
		return errors.New("role name empty")
	}
	if _, exists := t.roles[name]; exists {
		return errors.New("role already registered: " + name)
	}

	normalized := make([]Grant, 0, len(grants))
	for _, g := range grants {
		resource := g.Resource
		if resource != grantStar {
			resource = Normalize(resource)
			if resource == "" {
				return errors.New("grant resource empty for role " + name)
			}
		}
		action := g.Action
		if action != grantStar {
			action = Normalize(action)
		}
		if action == "" {
			action = grantStar
		}
		normalized = append(normalized, Grant{Resource: resource, Action: action})
	}

	t.roles[name] = normalized
	return nil
}

// Freeze prevents further registrations.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Count returns the number of registered roles.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.roles)
}

// Implies reports whether the role carries a grant matching the normalized
// resource/action pair, honoring the "*" wildcards on both fields.
func (t *Table) Implies(role, resource, action string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	grants, ok := t.roles[Normalize(role)]
	if !ok {
		return false
	}

	for _, g := range grants {
		if g.Action != grantStar && g.Action != action {
			continue
		}
		if g.Resource == grantStar || g.Resource == resource {
			return true
		}
	}
	return false
}
