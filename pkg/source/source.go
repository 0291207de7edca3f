// Package source discovers and parses the external configuration source.
//
// Two kinds of source exist. A module source is a single declarative file
// (YAML, TOML or JSON) holding the configuration under a top-level key. A
// file source is a stack of ini files read in a fixed priority order. The
// Loader consults the module source first and the file source only when no
// module source exists; the two are never combined.
package source

import (
	"context"

	"github.com/foremast/foremast/pkg/node"
)

// Kind tags where a configuration came from.
type Kind string

const (
	// KindModule is the structured configuration module.
	KindModule Kind = "module"

	// KindFile is the layered ini file source.
	KindFile Kind = "file"
)

// Result is the outcome of looking up a source.
type Result struct {
	// Found reports whether the source produced a configuration.
	Found bool

	// Kind is the source that produced Config.
	Kind Kind

	// Paths lists the files Config was read from.
	Paths []string

	// Config is the raw mapping read from the source. It is Null when
	// Found is false.
	Config node.Node

	// Tried lists every path that was looked at.
	Tried []string
}

// NotFound returns a result for a source that does not exist.
func NotFound(kind Kind, tried ...string) Result {
	return Result{Kind: kind, Tried: tried}
}

// Source produces a raw configuration mapping.
type Source interface {
	// Kind identifies the source.
	Kind() Kind

	// Load reads the source. A missing source is reported through
	// Result.Found, not as an error.
	Load(ctx context.Context) (Result, error)
}
