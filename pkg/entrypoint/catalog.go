package entrypoint

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// Well-known entry point groups.
const (
	// ConsoleScriptsGroup holds executable entry points of task programs.
	ConsoleScriptsGroup = "console_scripts"
	// DefaultHookGroup is the group reserved for hook-only modules.
	DefaultHookGroup = "taskhooks.hooks"
	// DefaultNamespace is the module name prefix of console scripts that provide hooks.
	DefaultNamespace = "taskhooks"
)

// Errors for catalog operations.
var (
	// ErrModuleNotFound indicates an entry point names a module that is not linked in.
	ErrModuleNotFound = errors.New("module not found")
	// ErrInvalidEntryPoint indicates an entry point record failed validation.
	ErrInvalidEntryPoint = errors.New("invalid entry point")
)

var validate = validator.New()

// Loader resolves a module by registering its hook specifications and implementations.
type Loader func(pm *plugin.Manager) error

// EntryPoint is a metadata record naming a module to resolve.
type EntryPoint struct {
	Group  string `validate:"required" yaml:"-"`
	Name   string `validate:"required" yaml:"name"`
	Module string `validate:"required,printascii" yaml:"module"`
}

// String formats the entry point like "name = module [group]".
func (e EntryPoint) String() string {
	return fmt.Sprintf("%s = %s [%s]", e.Name, e.Module, e.Group)
}

// Catalog stores linked-in modules and declared entry points.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]Loader
	entries []EntryPoint
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string]Loader)}
}

// Default is the process-wide catalog filled by package init functions.
var Default = NewCatalog()

// Provide makes a module resolvable.
// It panics if the module is provided twice or the loader is nil.
func (c *Catalog) Provide(module string, load Loader) {
	if load == nil {
		panic("entrypoint: Provide loader is nil for " + module)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.modules[module]; dup {
		panic("entrypoint: Provide called twice for " + module)
	}

	c.modules[module] = load
}

// Declare adds an entry point record. Exact duplicates are ignored.
func (c *Catalog) Declare(ep EntryPoint) error {
	if err := validate.Struct(ep); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidEntryPoint, ep.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(c.entries, ep) {
		c.entries = append(c.entries, ep)
	}

	return nil
}

// MustDeclare is like Declare but panics on an invalid record.
func (c *Catalog) MustDeclare(ep EntryPoint) {
	if err := c.Declare(ep); err != nil {
		panic(err)
	}
}

// EntryPoints returns the records of a group in declaration order.
func (c *Catalog) EntryPoints(group string) []EntryPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var eps []EntryPoint

	for _, ep := range c.entries {
		if ep.Group == group {
			eps = append(eps, ep)
		}
	}

	return eps
}

// Resolve returns the loader of a linked-in module.
func (c *Catalog) Resolve(module string) (Loader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	load, ok := c.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}

	return load, nil
}

// Modules returns the names of linked-in modules, sorted.
func (c *Catalog) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Provide makes a module resolvable through the Default catalog.
func Provide(module string, load Loader) {
	Default.Provide(module, load)
}

// Declare adds an entry point to the Default catalog.
func Declare(ep EntryPoint) error {
	return Default.Declare(ep)
}

// MustDeclare adds an entry point to the Default catalog and panics if it is invalid.
func MustDeclare(ep EntryPoint) {
	Default.MustDeclare(ep)
}
