package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"

	"github.com/foremast/foremast/pkg/node"
	"github.com/foremast/foremast/pkg/telemetry"
)

// FileSource reads layered ini files. Every existing candidate is parsed;
// keys from later files override keys from earlier ones. Each section
// becomes a node.Section of string values.
type FileSource struct {
	paths []string
	log   *telemetry.Logger
}

// NewFileSource creates a file source over the given candidates, lowest
// priority first.
func NewFileSource(paths []string, log *telemetry.Logger) *FileSource {
	return &FileSource{
		paths: append([]string(nil), paths...),
		log:   log.OrNop(),
	}
}

// Kind implements Source.
func (s *FileSource) Kind() Kind { return KindFile }

// Candidates returns the candidate paths with "~" expanded.
func (s *FileSource) Candidates() []string {
	out := make([]string, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, expandHome(p))
	}
	return out
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	candidates := s.Candidates()

	var existing []any
	var read []string
	for _, path := range candidates {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("checking config file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		existing = append(existing, path)
		read = append(read, path)
	}

	if len(existing) == 0 {
		s.log.WithSource(string(KindFile), candidates...).
			Debug("No configuration files found")
		return NotFound(KindFile, candidates...), nil
	}

	cfg, err := ini.LoadSources(loadOptions, existing[0], existing[1:]...)
	if err != nil {
		return Result{}, fmt.Errorf("parsing config files %s: %w", strings.Join(read, ", "), err)
	}

	s.log.WithSource(string(KindFile), read...).Debug("Configuration files read")

	return Result{
		Found:  true,
		Kind:   KindFile,
		Paths:  read,
		Config: sectionsToNode(cfg),
		Tried:  candidates,
	}, nil
}

// loadOptions parses like Python's configparser: keys are case-insensitive,
// "#" and ";" only start a comment at the beginning of a line, quotes are
// part of the value and indented lines continue the previous value.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
	PreserveSurroundedQuote:    true,
	AllowPythonMultilineValues: true,
}

// sectionsToNode converts parsed ini sections into a mapping of sections.
// Keys of the DEFAULT section are inherited by every other section; DEFAULT
// itself is kept only when it holds keys.
func sectionsToNode(cfg *ini.File) node.Node {
	defaults := sectionValues(cfg.Section(ini.DefaultSection))

	entries := make(map[string]node.Node)
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(defaults) > 0 {
				entries[sec.Name()] = node.Section(defaults)
			}
			continue
		}

		values := make(map[string]string, len(defaults))
		for k, v := range defaults {
			values[k] = v
		}
		for k, v := range sectionValues(sec) {
			values[k] = v
		}
		entries[sec.Name()] = node.Section(values)
	}
	return node.Mapping(entries)
}

func sectionValues(sec *ini.Section) map[string]string {
	values := make(map[string]string)
	for _, key := range sec.Keys() {
		values[key.Name()] = key.String()
	}
	return values
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
