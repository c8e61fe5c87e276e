package entrypoint

import "strings"

// Source yields entry points whose modules should be resolved.
type Source interface {
	// Name describes the source in logs and errors.
	Name() string
	// EntryPoints returns the candidates in resolution order.
	EntryPoints() []EntryPoint
}

// consoleScripts filters console scripts by module namespace.
type consoleScripts struct {
	catalog *Catalog
	prefix  string
}

// ConsoleScripts returns the console_scripts entry points whose module name
// begins with prefix. Task programs commonly define hooks next to their
// executable entry point.
func ConsoleScripts(catalog *Catalog, prefix string) Source {
	return &consoleScripts{catalog: catalog, prefix: prefix}
}

func (s *consoleScripts) Name() string {
	return ConsoleScriptsGroup + "(" + s.prefix + "*)"
}

func (s *consoleScripts) EntryPoints() []EntryPoint {
	var eps []EntryPoint

	for _, ep := range s.catalog.EntryPoints(ConsoleScriptsGroup) {
		if strings.HasPrefix(ep.Module, s.prefix) {
			eps = append(eps, ep)
		}
	}

	return eps
}

// hookGroup yields a whole group unfiltered.
type hookGroup struct {
	catalog *Catalog
	group   string
}

// HookGroup returns every entry point in the group reserved for hook-only
// modules, which nothing else would resolve.
func HookGroup(catalog *Catalog, group string) Source {
	return &hookGroup{catalog: catalog, group: group}
}

func (s *hookGroup) Name() string {
	return s.group
}

func (s *hookGroup) EntryPoints() []EntryPoint {
	return s.catalog.EntryPoints(s.group)
}

// DefaultSources returns the console script and hook group sources over catalog.
func DefaultSources(catalog *Catalog, namespace, group string) []Source {
	return []Source{
		ConsoleScripts(catalog, namespace),
		HookGroup(catalog, group),
	}
}
