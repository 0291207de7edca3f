package source

import (
	"context"
	"fmt"

	"github.com/foremast/foremast/pkg/telemetry"
)

// Recorder is notified about every source lookup.
type Recorder interface {
	SourceLoaded(kind string, found bool)
}

// Loader returns the configuration of the first source that exists.
type Loader struct {
	sources  []Source
	log      *telemetry.Logger
	recorder Recorder
}

// NewLoader creates a loader consulting sources in order.
func NewLoader(log *telemetry.Logger, sources ...Source) *Loader {
	return &Loader{
		sources: append([]Source(nil), sources...),
		log:     log.OrNop(),
	}
}

// NewDefaultLoader creates the standard loader: the module source first,
// then the ini files.
func NewDefaultLoader(opts Options, log *telemetry.Logger) *Loader {
	log = log.OrNop()
	return NewLoader(log,
		NewModuleSource(opts, log),
		NewFileSource(opts.Files, log),
	)
}

// WithRecorder returns the loader after registering r.
func (l *Loader) WithRecorder(r Recorder) *Loader {
	l.recorder = r
	return l
}

// Load returns the first source found. When no source exists the result has
// Found == false, Tried lists every path looked at, and a warning is logged.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	var tried []string

	for _, src := range l.sources {
		res, err := src.Load(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("loading %s configuration: %w", src.Kind(), err)
		}
		if l.recorder != nil {
			l.recorder.SourceLoaded(string(src.Kind()), res.Found)
		}

		tried = append(tried, res.Tried...)
		if res.Found {
			l.log.WithSource(string(res.Kind), res.Paths...).Debug("Configuration source loaded")
			res.Tried = tried
			return res, nil
		}
	}

	l.log.WithField("locations", tried).Warn("No configuration files found, using defaults")

	return Result{Tried: tried}, nil
}
