// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected at build time
const UnknownValue = "unknown"

// Build variables set via ldflags:
//
//	-X 'github.com/fcompdata/fcompdata/internal/buildinfo.Version=v1.0.0'
//	-X 'github.com/fcompdata/fcompdata/internal/buildinfo.Commit=abc123'
//	-X 'github.com/fcompdata/fcompdata/internal/buildinfo.BuildDate=2026-01-01T00:00:00Z'
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// Context contains build-time metadata that is not user-configurable
type Context struct {
	version   string
	commit    string
	buildDate string
	goVersion string
}

// NewContext returns build metadata with the given values.
func NewContext(version, commit, buildDate string) *Context {
	return &Context{
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		goVersion: runtime.Version(),
	}
}

// Current returns the metadata of the running binary. Values not injected
// with ldflags fall back to the module version and VCS revision recorded by
// the Go toolchain.
func Current() *Context {
	c := NewContext(Version, Commit, BuildDate)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return c
	}
	if c.version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		c.version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if c.commit == "" {
				c.commit = setting.Value
			}
		case "vcs.time":
			if c.buildDate == "" {
				c.buildDate = setting.Value
			}
		}
	}
	return c
}

// Version returns the build version string
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// Commit returns the VCS revision the binary was built from
func (c *Context) Commit() string {
	if c == nil || c.commit == "" {
		return UnknownValue
	}
	return c.commit
}

// BuildDate returns the build date string
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// GoVersion returns the Go release the binary was built with
func (c *Context) GoVersion() string {
	if c == nil || c.goVersion == "" {
		return UnknownValue
	}
	return c.goVersion
}
