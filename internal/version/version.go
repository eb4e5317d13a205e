// Package version carries build identity, overridable at link time.
package version

var (
	Name    = "securedocs-api"
	Version = "dev"
)
