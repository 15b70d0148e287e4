// Package plugin implements the PluginManager and Plugin ABI: dynamic
// library loading via a fixed `_plugin_create` entry point, UUID-keyed
// label registration, and NativeMethod/SendMessage(Native, ...)
// invocation.
//
// Grounded on a "stdlib primitives" surface
// (github.com/kristofer/smog, pkg/vm/primitives.go: http/crypto/gzip/
// zip/json/regex/file/random/date-time handlers), adapted from cases
// hard-wired into VM.send into native-method handlers behind this
// package's Plugin boundary (see stdlib.go). Dynamic loading itself is
// grounded on Go's stdlib `plugin` package — no cgo-free third-party
// alternative exists for loading Go .so plugins.
package plugin

import (
	"fmt"
	goplugin "plugin"

	"github.com/google/uuid"
	"github.com/jodin-lang/jodin/pkg/value"
)

// Stack is the narrow trait object a plugin implementation may use to
// read/write the caller's operand-value stack: a push/pop/empty
// surface. Jodin's plugins are ordinary Go code rather
// than cross-language FFI, so this operates directly on Values; a
// plugin that needs the byte-level wire format can still reach
// pkg/stack itself.
type Stack interface {
	Push(v value.Value)
	Pop() (value.Value, error)
	Empty() bool
}

// VMHandle lets a native method synchronously invoke another native
// method with explicit arguments.
type VMHandle interface {
	Native(name string, args []value.Value) (value.Value, error)
}

// Plugin is the capability set a loaded library or a built-in plugin
// must implement: labels(), labels_count(), call_label().
type Plugin interface {
	Labels() []string
	LabelsCount() int
	CallLabel(name string, args []value.Value, stk Stack, handle VMHandle) (value.Value, error)
}

// FunctionError wraps a plugin-reported failure message: call_function
// converts Err(String) into FunctionError(s).
type FunctionError struct{ Message string }

func (e *FunctionError) Error() string { return fmt.Sprintf("FunctionError(%s)", e.Message) }

// ErrLabelNotRegistered is returned when no plugin exports the
// requested label.
type ErrLabelNotRegistered struct{ Name string }

func (e *ErrLabelNotRegistered) Error() string {
	return fmt.Sprintf("LabelNotRegistered(%q)", e.Name)
}

// ErrDuplicateLabel is returned at registration time when two plugins
// (or two calls registering the same plugin) export the same label.
// This implementation rejects duplicates rather than letting the
// later registration win silently.
type ErrDuplicateLabel struct{ Name string }

func (e *ErrDuplicateLabel) Error() string {
	return fmt.Sprintf("duplicate plugin label %q", e.Name)
}

type registeredLibrary struct {
	path string
	lib *goplugin.Plugin // nil for built-in (non-dynamically-loaded) plugins
	id uuid.UUID
	labels []string
}

// Manager loads plugins, tracks which label belongs to which plugin,
// and dispatches NativeMethod/SendMessage(Native, ...) calls to them.
//
// Library handles are kept in registration order; Close releases the
// manager's own tables in reverse order so no boxed plugin outlives
// the library bookkeeping that produced it. The Go
// `plugin` package itself has no unload primitive — an .so, once
// mapped, stays mapped for the process lifetime — so this governs the
// manager's own label/plugin tables, not the underlying shared object.
type Manager struct {
	plugins map[uuid.UUID]Plugin
	labelToPlugin map[string]uuid.UUID
	libraries []registeredLibrary
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		plugins: map[uuid.UUID]Plugin{},
		labelToPlugin: map[string]uuid.UUID{},
	}
}

// RegisterBuiltin registers a plugin that was constructed in-process
// (not dynamically loaded), such as the stdlib plugin.
func (m *Manager) RegisterBuiltin(name string, p Plugin) (uuid.UUID, error) {
	return m.register(registeredLibrary{path: name}, p)
}

// LoadLibrary opens a dynamic library at path, invokes its
// `_plugin_create` entry point, and registers the plugin it returns.
func (m *Manager) LoadLibrary(path string) (uuid.UUID, error) {
	lib, err := goplugin.Open(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("LibraryError: open %s: %w", path, err)
	}
	sym, err := lib.Lookup("_plugin_create")
	if err != nil {
		return uuid.Nil, fmt.Errorf("LibraryError: %s missing _plugin_create: %w", path, err)
	}
	create, ok := sym.(func() Plugin)
	if !ok {
		return uuid.Nil, fmt.Errorf("LibraryError: %s: _plugin_create has unexpected signature", path)
	}
	return m.register(registeredLibrary{path: path, lib: lib}, create())
}

func (m *Manager) register(rec registeredLibrary, p Plugin) (uuid.UUID, error) {
	labels := p.Labels()
	for _, name := range labels {
		if _, dup := m.labelToPlugin[name]; dup {
			return uuid.Nil, &ErrDuplicateLabel{Name: name}
		}
	}
	id := uuid.New()
	m.plugins[id] = p
	for _, name := range labels {
		m.labelToPlugin[name] = id
	}
	rec.id = id
	rec.labels = labels
	m.libraries = append(m.libraries, rec)
	return id, nil
}

// CallFunction looks up label, delegates to the owning plugin's
// CallLabel, and converts any error into a FunctionError.
func (m *Manager) CallFunction(label string, args []value.Value, stk Stack, handle VMHandle) (value.Value, error) {
	id, ok := m.labelToPlugin[label]
	if !ok {
		return value.Value{}, &ErrLabelNotRegistered{Name: label}
	}
	p, ok := m.plugins[id]
	if !ok {
		panic(fmt.Sprintf("plugin: label %q registered to missing plugin %s", label, id))
	}
	v, err := p.CallLabel(label, args, stk, handle)
	if err != nil {
		return value.Value{}, &FunctionError{Message: err.Error()}
	}
	return v, nil
}

// HasLabel reports whether any registered plugin exports label.
func (m *Manager) HasLabel(label string) bool {
	_, ok := m.labelToPlugin[label]
	return ok
}

// Close drops the manager's library bookkeeping in reverse order of
// registration.
func (m *Manager) Close() {
	for i := len(m.libraries) - 1; i >= 0; i-- {
		rec := m.libraries[i]
		for _, name := range rec.labels {
			delete(m.labelToPlugin, name)
		}
		delete(m.plugins, rec.id)
	}
	m.libraries = nil
}
