package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/foremast/foremast/pkg/node"
	"github.com/foremast/foremast/pkg/telemetry"
)

// ModuleSource reads the configuration module: the first existing file
// named ModuleName plus one of the configured extensions. The file must hold
// a mapping under ModuleKey.
type ModuleSource struct {
	dir        string
	name       string
	key        string
	extensions []string
	log        *telemetry.Logger
}

// NewModuleSource creates a module source from resolved options.
func NewModuleSource(opts Options, log *telemetry.Logger) *ModuleSource {
	return &ModuleSource{
		dir:        opts.Dir,
		name:       opts.ModuleName,
		key:        opts.ModuleKey,
		extensions: append([]string(nil), opts.Extensions...),
		log:        log.OrNop(),
	}
}

// Kind implements Source.
func (s *ModuleSource) Kind() Kind { return KindModule }

// Candidates returns the module paths in lookup order.
func (s *ModuleSource) Candidates() []string {
	paths := make([]string, len(s.extensions))
	for i, ext := range s.extensions {
		paths[i] = filepath.Join(s.dir, s.name+ext)
	}
	return paths
}

// Load implements Source. Only the first existing candidate is read.
func (s *ModuleSource) Load(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	candidates := s.Candidates()
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("reading config module %s: %w", path, err)
		}

		doc, err := decodeModule(filepath.Ext(path), data)
		if err != nil {
			return Result{}, fmt.Errorf("parsing config module %s: %w", path, err)
		}

		raw, ok := doc[s.key]
		if !ok {
			s.log.WithSource(string(KindModule), path).
				Debugf("Configuration module has no %s mapping", s.key)
			return NotFound(KindModule, candidates...), nil
		}

		config, err := node.FromAny(raw)
		if err != nil {
			return Result{}, fmt.Errorf("converting config module %s: %w", path, err)
		}
		if config.Kind() != node.KindMapping {
			s.log.WithSource(string(KindModule), path).
				Debugf("Configuration module %s is a %s, not a mapping", s.key, config.Kind())
			return NotFound(KindModule, candidates...), nil
		}

		return Result{
			Found:  true,
			Kind:   KindModule,
			Paths:  []string{path},
			Config: config,
			Tried:  candidates,
		}, nil
	}

	s.log.WithSource(string(KindModule), candidates...).
		Debugf("Configuration module not found in $%s", EnvConfigDirectory)
	return NotFound(KindModule, candidates...), nil
}

func decodeModule(ext string, data []byte) (map[string]any, error) {
	doc := make(map[string]any)

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".json":
		// Comments and trailing commas are allowed.
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config module format %q", ext)
	}

	return doc, nil
}
