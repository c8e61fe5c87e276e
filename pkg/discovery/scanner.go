package discovery

import (
	"context"
	"errors"
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// errLoaderPanicked indicates a module loader panicked while resolving.
var errLoaderPanicked = errors.New("module loader panicked")

// Error reports an entry point that could not be resolved.
type Error struct {
	Source     string
	EntryPoint entrypoint.EntryPoint
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to resolve entry point %s from %s: %v", e.EntryPoint, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Scanner resolves the modules named by its sources.
type Scanner struct {
	manager  *plugin.Manager
	catalog  *entrypoint.Catalog
	sources  []entrypoint.Source
	resolved cmap.ConcurrentMap[string, entrypoint.EntryPoint]
}

// NewScanner creates a Scanner registering into pm.
//
// Parameters:
//   - pm: Plugin manager that loaders register into.
//   - catalog: Catalog used to resolve module names.
//   - sources: Entry point sources, examined in order.
//
// Returns:
//   - *Scanner: Scanner with an empty resolved set.
func NewScanner(pm *plugin.Manager, catalog *entrypoint.Catalog, sources ...entrypoint.Source) *Scanner {
	return &Scanner{
		manager:  pm,
		catalog:  catalog,
		sources:  sources,
		resolved: cmap.New[entrypoint.EntryPoint](),
	}
}

// Discover resolves every module named by the sources that was not resolved yet.
//
// Repeated calls are cheap: each module is loaded at most once per Scanner,
// however many entry points name it. A module whose resolution failed leaves
// no hooks behind, is not remembered and is retried on the next call.
//
// Parameters:
//   - ctx: Context checked between resolutions.
//
// Returns:
//   - error: *Error for the first entry point that could not be resolved.
func (s *Scanner) Discover(ctx context.Context) error {
	for _, source := range s.sources {
		for _, ep := range source.EntryPoints() {
			if err := ctx.Err(); err != nil {
				return err
			}

			if s.resolved.Has(ep.Module) {
				continue
			}

			if err := s.resolve(ep); err != nil {
				return &Error{Source: source.Name(), EntryPoint: ep, Err: err}
			}

			s.resolved.Set(ep.Module, ep)

			logrus.WithFields(logrus.Fields{
				"source":      source.Name(),
				"entry_point": ep.Name,
				"module":      ep.Module,
			}).Debug("Resolved entry point")
		}
	}

	return nil
}

// resolve loads the module behind an entry point.
// Whatever a failing loader registered before it failed is rolled back.
func (s *Scanner) resolve(ep entrypoint.EntryPoint) (err error) {
	load, err := s.catalog.Resolve(ep.Module)
	if err != nil {
		return err
	}

	checkpoint := s.manager.Checkpoint()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errLoaderPanicked, r)
		}

		if err != nil {
			if removed := s.manager.Rollback(checkpoint); removed > 0 {
				logrus.WithFields(logrus.Fields{
					"module":  ep.Module,
					"removed": removed,
				}).Debug("Rolled back hooks of failed module")
			}
		}
	}()

	return load(s.manager)
}

// Resolved returns the entry points whose modules have been loaded, keyed by module.
func (s *Scanner) Resolved() map[string]entrypoint.EntryPoint {
	return s.resolved.Items()
}
