// Package entrypoint holds the process metadata describing which plugin modules
// are available and which entry points name them.
//
// A module is a linked-in package that announces itself with Provide, normally
// from init(), giving a Loader that registers its hooks. An entry point is a
// metadata record (group, name, module) that asks for a module to be resolved.
// Entry points are declared by packages themselves or by a YAML manifest.
//
// Key components:
//   - Catalog: Modules and entry points, with a process-wide Default.
//   - Source: A view over the catalog yielding entry points to resolve.
//   - ConsoleScripts, HookGroup: The two discovery sources.
//
// Usage example:
//
//	func init() {
//	    entrypoint.Provide("taskhooks.audit", func(pm *plugin.Manager) error {
//	        return pm.RegisterPlugin(&auditPlugin{})
//	    })
//	    entrypoint.MustDeclare(entrypoint.EntryPoint{
//	        Group:  entrypoint.DefaultHookGroup,
//	        Name:   "audit",
//	        Module: "taskhooks.audit",
//	    })
//	}
//
// Manifest example:
//
//	entry_points:
//	  taskhooks.hooks:
//	    - name: audit
//	      module: taskhooks.audit
package entrypoint
