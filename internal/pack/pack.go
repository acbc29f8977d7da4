// Package pack implements the action-pack loader: discovery of
// user-contributed action types plus application of their declarative
// schema/seed data to the control database.
//
// A pack is an identifiable, non-nesting bundle of: zero or more action
// factories, an optional schema document, and a mandatory data document.
// Action identity is the class name string: the registry here is a tagged
// map<name, factory> populated at load time rather than relying on runtime
// stringification of types.
package pack

import (
	"fmt"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/kaliklipper/ism-go/internal/controlschema"
	"github.com/kaliklipper/ism-go/internal/dataaccess"
	"github.com/kaliklipper/ism-go/internal/ismerr"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Factory builds a new action instance bound to deps. Every pack action
// implements this, conventionally named starting with "Action".
type Factory func(deps action.Base) action.Interface

// Provider is what a pack exposes to the loader: its action factories by
// name, plus its schema and data documents (JSON, keyed by backend, shape
// described in controlschema).
type Provider interface {
	// ID returns the pack's identifier.
	ID() string

	// Actions returns every action factory this pack registers, keyed by
	// the name the scheduler will dispatch under.
	Actions() map[string]Factory

	// Schema returns the pack's schema document, or nil if it has none.
	Schema() []byte

	// Data returns the pack's (mandatory, non-empty) seed-data document.
	Data() []byte
}

// Registry is the tagged action-factory registry the scheduler dispatches
// from. Adapted from a provider registry found elsewhere in the retrieved
// corpus (map[string]Provider + sync.RWMutex + reload-on-change), repurposed
// from "LLM provider registry" to "action factory registry". Only the
// name-keyed map is kept, plus the registration order; the registry has no
// lock and no reload.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds factory under name, preserving registration order (the
// scheduler dispatches in that order).
func (r *Registry) Register(name string, f Factory) {
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = f
}

// Names returns every registered factory name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Build instantiates every registered factory against deps, in registration
// order.
func (r *Registry) Build(deps action.Base) []action.Interface {
	out := make([]action.Interface, 0, len(r.order))
	for _, name := range r.order {
		b := deps
		b.ActionName = name
		out = append(out, r.factories[name](b))
	}
	return out
}

// AuditEntry records one pack import for the loader's audit trail, adapted
// from core.ModuleManager's DebugEvent/TraceID pattern.
type AuditEntry struct {
	TraceID string
	PackID  string
	Actions []string
}

// Loader discovers and registers a pack's actions, then applies its schema
// and data to the control database.
type Loader struct {
	registry *Registry
	dao      dataaccess.DataAccess
	rdbms    string
	logger   *logrus.Logger
	audit    []AuditEntry
	owner    map[string]string // action name -> importing pack ID
}

// NewLoader builds a Loader bound to registry and dao. rdbms selects which
// keyed section of the pack's schema/data documents to apply.
func NewLoader(registry *Registry, dao dataaccess.DataAccess, rdbms string, logger *logrus.Logger) *Loader {
	return &Loader{registry: registry, dao: dao, rdbms: rdbms, logger: logger, owner: make(map[string]string)}
}

// ImportPack registers every action factory in p (excluding the base
// class — there is none to exclude in Go; the factories map is already
// action-only), then applies p's schema (if present) and data.
//
// Fails with MalformedActionPack if the data document is absent/empty, or
// if a pack nests another pack's factories under its own ID (detected by an
// empty pack ID or a name collision with an already-imported different
// pack — a pack must not contain nested packs).
func (l *Loader) ImportPack(p Provider) error {
	if p.ID() == "" {
		return ismerr.NewMalformedActionPack("", "pack id must not be empty")
	}
	if len(p.Data()) == 0 {
		return ismerr.NewMalformedActionPack(p.ID(), "data document is absent or empty")
	}

	for name := range p.Actions() {
		if owner, ok := l.owner[name]; ok && owner != p.ID() {
			return ismerr.NewMalformedActionPack(p.ID(),
				fmt.Sprintf("action %q already belongs to pack %q; packs must not nest", name, owner))
		}
	}

	names := make([]string, 0, len(p.Actions()))
	for name, factory := range p.Actions() {
		l.registry.Register(name, factory)
		l.owner[name] = p.ID()
		names = append(names, name)
	}

	if err := controlschema.ApplyDocument(l.dao, l.rdbms, p.Schema(), p.Data()); err != nil {
		return err
	}

	l.audit = append(l.audit, AuditEntry{
		TraceID: uuid.New().String(),
		PackID:  p.ID(),
		Actions: names,
	})
	if l.logger != nil {
		l.logger.WithField("pack", p.ID()).WithField("actions", names).Info("imported action pack")
	}
	return nil
}

// Audit returns every pack import recorded so far, in import order.
func (l *Loader) Audit() []AuditEntry {
	out := make([]AuditEntry, len(l.audit))
	copy(out, l.audit)
	return out
}
