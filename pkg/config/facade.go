package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/foremast/foremast/pkg/frozen"
	"github.com/foremast/foremast/pkg/merge"
	"github.com/foremast/foremast/pkg/node"
	"github.com/foremast/foremast/pkg/source"
	"github.com/foremast/foremast/pkg/telemetry"
)

// Loader finds the external configuration source.
type Loader interface {
	Load(ctx context.Context) (source.Result, error)
}

// Facade is the configuration handle. The first read loads, merges and
// freezes the configuration; later reads reuse the result. A Facade is safe
// for concurrent use.
type Facade struct {
	loader Loader
	merger *merge.Merger
	schema node.Node
	log    *telemetry.Logger

	once   sync.Once
	config *frozen.Map
	merged node.Node
	result source.Result
	err    error
}

// Option configures a Facade.
type Option func(*Facade)

// WithSchema replaces DefaultSchema as the merge base.
func WithSchema(schema node.Node) Option {
	return func(f *Facade) {
		f.schema = schema
	}
}

// WithMerger replaces the default merge engine.
func WithMerger(m *merge.Merger) Option {
	return func(f *Facade) {
		if m != nil {
			f.merger = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *telemetry.Logger) Option {
	return func(f *Facade) {
		f.log = log
	}
}

// New creates a Facade reading from loader. Nothing is loaded until the
// first read.
func New(loader Loader, opts ...Option) *Facade {
	f := &Facade{
		loader: loader,
		merger: merge.New(),
		schema: DefaultSchema(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.OrNop().NewComponentLogger("config")
	return f
}

// Load performs the load, merge and freeze sequence once. Later calls,
// including calls after a failure, return the first outcome; ctx is only
// consulted by the first call.
func (f *Facade) Load(ctx context.Context) (*frozen.Map, error) {
	f.once.Do(func() {
		if f.err = f.load(ctx); f.err != nil {
			f.log.WithError(f.err).Error("Configuration load failed")
		}
	})
	return f.config, f.err
}

func (f *Facade) load(ctx context.Context) error {
	res, err := f.loader.Load(ctx)
	if err != nil {
		return err
	}
	f.result = res

	merged := f.schema
	if res.Found {
		merged, err = f.merger.Merge(f.schema, res.Config)
		if err != nil {
			return fmt.Errorf("merging %s configuration: %w", res.Kind, err)
		}
	}

	cfg, err := frozen.New(merged)
	if err != nil {
		return fmt.Errorf("freezing configuration: %w", err)
	}

	f.merged = merged
	f.config = cfg

	f.log.Zerolog().Debug().
		Stringer("config", merged).
		Msg("Complete configuration")

	return nil
}

// Config returns the frozen configuration, loading it on first use.
func (f *Facade) Config() (*frozen.Map, error) {
	return f.Load(context.Background())
}

// Get returns the frozen value stored under key, loading the configuration
// on first use.
func (f *Facade) Get(key string) (frozen.Value, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	return cfg.Get(key)
}

// Merged returns the merge result before freezing. Sequences keep their
// order and duplicates.
func (f *Facade) Merged(ctx context.Context) (node.Node, error) {
	if _, err := f.Load(ctx); err != nil {
		return node.Node{}, err
	}
	return f.merged, nil
}

// Source returns what the loader found.
func (f *Facade) Source(ctx context.Context) (source.Result, error) {
	if _, err := f.Load(ctx); err != nil {
		return source.Result{}, err
	}
	return f.result, nil
}
