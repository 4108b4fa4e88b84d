package attribute

import (
	"errors"
	"maps"
	"sync"

	"github.com/muurk/attrstore/internal/logging"
	"go.uber.org/zap"
)

// StateStore persists the raw value mapping of a registry.
//
// Load returns (nil, nil) when there is no prior state.
type StateStore interface {
	Save(values map[string]string) error
	Load() (map[string]string, error)
}

// Registry owns the registered attributes and their current raw values.
//
// Values are stored as text exactly as written and coerced to the declared
// type on every read. Every successful write is followed by a synchronous
// save to the state store.
//
// All public methods are thread-safe.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	order       []string          // Registration order of names
	values      map[string]string // Raw values by name
	store       StateStore        // nil disables persistence
}

// NewRegistry creates an empty registry persisting through store.
// A nil store keeps values in memory only.
func NewRegistry(store StateStore) *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
		values:      make(map[string]string),
		store:       store,
	}
}

// Register adds or replaces an attribute from its declaration.
//
// A declaration with an empty name is ignored. Re-registering a name
// replaces its type, access mode and metadata but keeps its current value.
func (r *Registry) Register(decl Declaration) error {
	if decl.Name == "" {
		return nil
	}

	dataType, ok := ParseDataType(decl.DataType)
	if !ok {
		return NewUnsupportedTypeError(decl.Name, decl.DataType)
	}
	access, ok := ParseAccessMode(decl.WriteType)
	if !ok {
		return NewUnsupportedAccessModeError(decl.Name, decl.WriteType)
	}

	desc := &Descriptor{
		Name:   decl.Name,
		Type:   dataType,
		Access: access,
		Alarms: Alarms{
			MinAlarm:   decl.MinAlarm,
			MaxAlarm:   decl.MaxAlarm,
			MinWarning: decl.MinWarning,
			MaxWarning: decl.MaxWarning,
		},
		Unit:     decl.Unit,
		Label:    decl.Label,
		Modifier: decl.Modifier,
	}
	if decl.MinValue != "" && decl.MaxValue != "" && decl.MinValue != decl.MaxValue {
		desc.Bounds = &Bounds{Min: decl.MinValue, Max: decl.MaxValue}
	}

	r.mu.Lock()
	if _, exists := r.descriptors[decl.Name]; !exists {
		r.order = append(r.order, decl.Name)
	}
	r.descriptors[decl.Name] = desc
	if _, ok := r.values[decl.Name]; !ok {
		r.values[decl.Name] = ""
	}
	r.mu.Unlock()

	logging.LogRegistration(desc.Name, desc.Type.String(), desc.Access.String())
	return nil
}

// RegisterAll registers declarations in order. A failing declaration does
// not stop the ones after it; all failures are returned joined.
func (r *Registry) RegisterAll(decls []Declaration) error {
	var errs []error
	for _, decl := range decls {
		if err := r.Register(decl); err != nil {
			logging.Error("Failed to register attribute",
				zap.String("attribute", decl.Name),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Read returns the current value of name coerced to its declared type.
func (r *Registry) Read(name string) (Value, error) {
	r.mu.RLock()
	desc, ok := r.descriptors[name]
	raw := r.values[name]
	r.mu.RUnlock()

	if !ok {
		return Value{}, NewNotFoundError(name)
	}

	v, err := Coerce(desc.Type, raw)
	if err != nil {
		return Value{}, NewCoercionError(name, desc.Type, raw, err)
	}

	logging.LogAttributeAccess("read", name, raw)
	return v, nil
}

// Write stores raw verbatim as the value of name and saves the state.
//
// No coercion or bounds check is done here. If the save fails the value
// stays stored in memory and a persistence save error is returned.
func (r *Registry) Write(name, raw string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.descriptors[name]; !ok {
		return NewNotFoundError(name)
	}

	r.values[name] = raw
	logging.LogAttributeAccess("write", name, raw)

	return r.saveLocked()
}

// SaveState writes the full value mapping to the state store.
func (r *Registry) SaveState() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Registry) saveLocked() error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(maps.Clone(r.values)); err != nil {
		return NewPersistenceSaveError("failed to save attribute state", err)
	}
	return nil
}

// LoadState restores values from the state store and reports whether any
// state was restored.
//
// A missing state file is not an error. A state file that cannot be read or
// parsed is logged and skipped, leaving the current values untouched. On
// success the value mapping is replaced by the loaded one; registered
// attributes missing from it start out empty. Declared types are unaffected.
func (r *Registry) LoadState() bool {
	restored, err := r.Restore()
	if err != nil {
		logging.Warn("Starting with empty attribute values", zap.Error(err))
	}
	return restored
}

// Restore is LoadState without the logging: an unreadable state file is
// returned as a persistence load error and the current values are kept.
func (r *Registry) Restore() (bool, error) {
	if r.store == nil {
		return false, nil
	}

	loaded, err := r.store.Load()
	if err != nil {
		return false, NewPersistenceLoadError("ignoring unreadable attribute state", err)
	}
	if loaded == nil {
		logging.Debug("No previous attribute state")
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = maps.Clone(loaded)
	for name := range r.descriptors {
		if _, ok := r.values[name]; !ok {
			r.values[name] = ""
		}
	}

	logging.Info("Restored attribute state", zap.Int("values", len(loaded)))
	return true, nil
}

// Descriptor returns the registered metadata of name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.descriptors[name]
	if !ok {
		return Descriptor{}, false
	}
	return desc.clone(), true
}

// Descriptors returns all registered attributes in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name].clone())
	}
	return out
}

// Names returns the registered attribute names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// RawValue returns the stored text of name without coercion.
func (r *Registry) RawValue(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.descriptors[name]; !ok {
		return "", false
	}
	return r.values[name], true
}

// Values returns a copy of the raw value mapping, including values restored
// for names that are not currently registered.
func (r *Registry) Values() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.values)
}

// Len returns the number of registered attributes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
