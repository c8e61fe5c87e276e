package plugin

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/hookspec"
)

// Manager holds hook specifications and their registered implementations.
//
// One Manager is constructed at process start and shared by reference. It is
// never reset between task sessions: implementations stay registered until
// they are explicitly unregistered.
type Manager struct {
	mu    sync.RWMutex
	specs map[string]hookspec.Spec
	order []string              // spec names in declaration order
	hooks map[string][]HookImpl // implementations in registration order
	log   *logrus.Entry
}

// New creates a Manager declaring the built-in task hooks.
//
// Parameters:
//   - log: Logger for dispatch messages, or nil for the standard logger.
//
// Returns:
//   - *Manager: Ready-to-use manager.
func New(log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.WithField("component", "plugin")
	}

	manager := &Manager{
		specs: make(map[string]hookspec.Spec),
		hooks: make(map[string][]HookImpl),
		log:   log,
	}

	for _, spec := range hookspec.Builtin() {
		if err := manager.AddSpec(spec); err != nil {
			panic(err)
		}
	}

	return manager
}

// AddSpec declares a new hook.
//
// Implementations registered before the hook was declared are checked against
// it; if any asks for an unknown parameter the hook is not declared.
//
// Parameters:
//   - spec: Hook contract to declare.
//
// Returns:
//   - error: Non-nil if the spec is invalid, already declared or contradicts pending implementations.
func (m *Manager) AddSpec(spec hookspec.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.specs[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrSpecExists, spec.Name)
	}

	for _, impl := range m.hooks[spec.Name] {
		if err := spec.CheckImpl(impl.Params); err != nil {
			return fmt.Errorf("plugin %q: %w", impl.Plugin, err)
		}
	}

	spec.Params = slices.Clone(spec.Params)
	m.specs[spec.Name] = spec
	m.order = append(m.order, spec.Name)

	m.log.WithField("hook", spec.Name).Debug("Declared hook")

	return nil
}

// Register appends an implementation to a hook.
//
// It may be called at any time, including from inside a running hook. The hook
// does not have to be declared yet.
//
// Parameters:
//   - hook: Hook name.
//   - impl: Implementation to append.
//
// Returns:
//   - error: Non-nil if the implementation is malformed or its plugin already implements the hook.
func (m *Manager) Register(hook string, impl HookImpl) error {
	if impl.Plugin == "" {
		return fmt.Errorf("%w: %s", ErrUnnamedPlugin, hook)
	}

	if impl.Func == nil {
		return fmt.Errorf("%w: %s from %q", ErrNilHook, hook, impl.Plugin)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if spec, ok := m.specs[hook]; ok {
		if err := spec.CheckImpl(impl.Params); err != nil {
			return fmt.Errorf("plugin %q: %w", impl.Plugin, err)
		}
	}

	if indexOf(m.hooks[hook], impl.Plugin) >= 0 {
		return fmt.Errorf("%w: %q on %s", ErrAlreadyRegistered, impl.Plugin, hook)
	}

	impl.Params = slices.Clone(impl.Params)
	m.hooks[hook] = append(m.hooks[hook], impl)

	m.log.WithFields(logrus.Fields{
		"hook":   hook,
		"plugin": impl.Plugin,
	}).Debug("Registered hook implementation")

	return nil
}

// Unregister removes a plugin's implementation of a hook.
//
// Returns:
//   - bool: True if an implementation was removed.
func (m *Manager) Unregister(hook string, plugin string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.unregisterLocked(hook, plugin)
}

func (m *Manager) unregisterLocked(hook string, plugin string) bool {
	impls := m.hooks[hook]

	i := indexOf(impls, plugin)
	if i < 0 {
		return false
	}

	// Build a new slice so snapshots taken by running calls stay intact.
	m.hooks[hook] = slices.Delete(slices.Clone(impls), i, i+1)

	m.log.WithFields(logrus.Fields{
		"hook":   hook,
		"plugin": plugin,
	}).Debug("Unregistered hook implementation")

	return true
}

// RegisterPlugin registers every hook a plugin value opts in to.
// Either all of its implementations are registered or none are.
func (m *Manager) RegisterPlugin(p Plugin) error {
	impls := implsOf(p)
	if len(impls) == 0 {
		return fmt.Errorf("%w: %q", ErrNoHooks, p.Name())
	}

	var done []string

	for _, spec := range hookspec.Builtin() {
		impl, ok := impls[spec.Name]
		if !ok {
			continue
		}

		if err := m.Register(spec.Name, impl); err != nil {
			for _, hook := range done {
				m.Unregister(hook, p.Name())
			}

			return err
		}

		done = append(done, spec.Name)
	}

	return nil
}

// UnregisterPlugin removes all implementations owned by the named plugin.
//
// Returns:
//   - int: Number of implementations removed.
func (m *Manager) UnregisterPlugin(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0

	for hook := range m.hooks {
		if m.unregisterLocked(hook, name) {
			removed++
		}
	}

	return removed
}

// Call invokes every implementation of a hook in registration order.
//
// The implementation list is read when the call begins; implementations added
// or removed by a running hook take effect from the next call. Each
// implementation receives only the arguments it declared. The first error
// stops the sequence and is returned unchanged.
//
// Parameters:
//   - ctx: Context passed to every implementation.
//   - hook: Hook name.
//   - args: Arguments for every declared parameter of the hook.
//
// Returns:
//   - error: Non-nil if the hook is unknown, the arguments do not match or an implementation failed.
func (m *Manager) Call(ctx context.Context, hook string, args hookspec.Args) error {
	m.mu.RLock()
	spec, ok := m.specs[hook]
	impls := m.hooks[hook]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHook, hook)
	}

	if err := spec.CheckArgs(args); err != nil {
		return err
	}

	clog := m.log.WithField("hook", hook)
	clog.WithField("count", len(impls)).Trace("Calling hook")

	for _, impl := range impls {
		if err := impl.Func(ctx, spec.Bind(args, impl.Params)); err != nil {
			clog.WithField("plugin", impl.Plugin).WithError(err).Debug("Hook implementation failed")

			return err
		}
	}

	return nil
}

// Implementations returns a copy of a hook's implementations in registration order.
func (m *Manager) Implementations(hook string) []HookImpl {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.hooks[hook])
}

// Specs returns the declared hooks in declaration order.
func (m *Manager) Specs() []hookspec.Spec {
	m.mu.RLock()
	defer m.mu.RUnlock()

	specs := make([]hookspec.Spec, 0, len(m.order))
	for _, name := range m.order {
		specs = append(specs, m.specs[name])
	}

	return specs
}

// Plugins returns the names of plugins with at least one implementation, sorted.
func (m *Manager) Plugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string

	for _, impls := range m.hooks {
		for _, impl := range impls {
			if !slices.Contains(names, impl.Plugin) {
				names = append(names, impl.Plugin)
			}
		}
	}

	slices.Sort(names)

	return names
}

// Checkpoint is a record of the hooks declared and implemented at one point in time.
type Checkpoint struct {
	specs map[string]bool
	impls map[string][]string // hook name to implementing plugins
}

// Checkpoint records the current declarations and registrations.
func (m *Manager) Checkpoint() Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp := Checkpoint{
		specs: make(map[string]bool, len(m.specs)),
		impls: make(map[string][]string, len(m.hooks)),
	}

	for name := range m.specs {
		cp.specs[name] = true
	}

	for hook, impls := range m.hooks {
		for _, impl := range impls {
			cp.impls[hook] = append(cp.impls[hook], impl.Plugin)
		}
	}

	return cp
}

// Rollback removes every hook declaration and implementation added since cp.
// Implementations removed since cp are not restored.
//
// Returns:
//   - int: Number of implementations removed.
func (m *Manager) Rollback(cp Checkpoint) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0

	for hook, impls := range m.hooks {
		for _, impl := range impls {
			if !slices.Contains(cp.impls[hook], impl.Plugin) && m.unregisterLocked(hook, impl.Plugin) {
				removed++
			}
		}
	}

	for name := range m.specs {
		if cp.specs[name] {
			continue
		}

		delete(m.specs, name)
		m.order = slices.DeleteFunc(m.order, func(declared string) bool { return declared == name })

		m.log.WithField("hook", name).Debug("Withdrew hook declaration")
	}

	return removed
}

func indexOf(impls []HookImpl, plugin string) int {
	return slices.IndexFunc(impls, func(impl HookImpl) bool {
		return impl.Plugin == plugin
	})
}
