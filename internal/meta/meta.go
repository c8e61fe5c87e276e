// Package meta holds build metadata injected at link time, e.g.
//
//	go build -ldflags "-X github.com/nicholas-fedor/taskhooks/internal/meta.Version=v1.2.3"
package meta

var (
	// Version is the released version, or "v0.0.0-unknown" for local builds.
	Version = "v0.0.0-unknown"
	// Commit is the source revision the binary was built from.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)
