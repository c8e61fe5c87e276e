// Package discovery makes installed hook implementations reachable without the
// task author enumerating them.
//
// A Scanner walks its entry point sources and resolves each named module once.
// Resolving a module runs its loader against the plugin manager, which
// registers the module's hooks. Failures are fatal: a module that is missing or
// fails to load points at a packaging defect and aborts the task before it
// starts.
//
// Usage example:
//
//	scanner := discovery.NewScanner(pm, entrypoint.Default,
//	    entrypoint.DefaultSources(entrypoint.Default, "taskhooks", "taskhooks.hooks")...)
//	if err := scanner.Discover(ctx); err != nil {
//	    logrus.WithError(err).Fatal("Plugin discovery failed")
//	}
package discovery
