package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foremast/foremast/pkg/frozen"
	"github.com/foremast/foremast/pkg/merge"
	"github.com/foremast/foremast/pkg/node"
	"github.com/foremast/foremast/pkg/source"
	"github.com/foremast/foremast/pkg/telemetry"
)

type stubLoader struct {
	calls atomic.Int32
	res   source.Result
	err   error
}

func (l *stubLoader) Load(context.Context) (source.Result, error) {
	l.calls.Add(1)
	return l.res, l.err
}

func found(cfg map[string]any) *stubLoader {
	return &stubLoader{res: source.Result{
		Found:  true,
		Kind:   source.KindModule,
		Config: node.MustFromAny(cfg),
	}}
}

// isolatedLoader returns a real loader that only looks inside dir.
func isolatedLoader(t *testing.T, dir string) *source.Loader {
	t.Helper()
	opts, err := source.ResolveOptions(source.Options{
		Dir:   dir,
		Files: []string{filepath.Join(dir, "foremast.cfg")},
	})
	require.NoError(t, err)
	return source.NewDefaultLoader(opts, nil)
}

func lookup(t *testing.T, n node.Node, key string) node.Node {
	t.Helper()
	v, ok := n.Lookup(key)
	require.True(t, ok, "missing key %q", key)
	return v
}

func TestFacade_NoSourcesYieldsDefaults(t *testing.T) {
	f := New(isolatedLoader(t, t.TempDir()))

	v, err := f.Get("base")
	require.NoError(t, err)

	base, ok := v.(*frozen.Map)
	require.True(t, ok, "base should be a frozen map, got %T", v)
	assert.True(t, node.Equal(lookup(t, DefaultSchema(), "base"), base.Node()))

	res, err := f.Source(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.NotEmpty(t, res.Tried)
}

func TestFacade_KeepsEveryDefaultKey(t *testing.T) {
	f := New(found(map[string]any{
		"base":   map[string]any{"envs": []any{"dev"}},
		"extras": map[string]any{"owner": "platform"},
	}))

	cfg, err := f.Config()
	require.NoError(t, err)

	for _, key := range DefaultSchema().Keys() {
		assert.True(t, cfg.Has(key), "missing default key %q", key)
	}
	assert.True(t, cfg.Has("extras"))

	base, err := cfg.Map("base")
	require.NoError(t, err)
	for _, key := range lookup(t, DefaultSchema(), "base").Keys() {
		assert.True(t, base.Has(key), "missing default key base.%q", key)
	}
}

func TestFacade_LoadsOnce(t *testing.T) {
	loader := found(map[string]any{"formats": map[string]any{"domain": "example.com"}})
	f := New(loader)

	var wg sync.WaitGroup
	results := make([]frozen.Value, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Get("formats")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, v := range results[1:] {
		assert.Same(t, results[0], v)
	}
}

func TestFacade_CachesErrors(t *testing.T) {
	loader := &stubLoader{err: errors.New("disk on fire")}
	f := New(loader)

	_, err := f.Get("base")
	require.Error(t, err)
	_, err = f.Get("base")
	require.Error(t, err)

	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestFacade_LogsLoadFailureOnce(t *testing.T) {
	var buf bytes.Buffer
	cfg := telemetry.DefaultConfig().Logging
	cfg.Format = "json"
	log := telemetry.NewLoggerWithWriter(cfg, &buf)

	f := New(&stubLoader{err: errors.New("disk on fire")}, WithLogger(log))
	_, _ = f.Get("base")
	_, _ = f.Get("base")

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Configuration load failed")))
	assert.Contains(t, buf.String(), `"error":"disk on fire"`)
	assert.Contains(t, buf.String(), `"component":"config"`)
}

func TestFacade_UnresolvedConflict(t *testing.T) {
	f := New(found(map[string]any{
		"task_timeouts": map[string]any{"default": map[string]any{"a": 1}},
	}))

	_, err := f.Config()
	require.Error(t, err)
	assert.ErrorIs(t, err, merge.ErrUnresolvedConflict)

	var conflict *merge.UnresolvedConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "task_timeouts.default", conflict.Path.String())
}

func TestFacade_CustomSchemaAndMerger(t *testing.T) {
	schema := node.MustFromAny(map[string]any{"base": map[string]any{"domain": "example.com"}})
	f := New(
		found(map[string]any{"base": map[string]any{"domain": "corp.example"}}),
		WithSchema(schema),
		WithMerger(merge.New(merge.WithStrategies(append(merge.DefaultStrategies(), merge.Override)...))),
	)

	base, err := f.Get("base")
	require.NoError(t, err)

	domain, err := base.(*frozen.Map).String("domain")
	require.NoError(t, err)
	assert.Equal(t, "corp.example", domain)
}

func TestFacade_MergedKeepsSequenceOrder(t *testing.T) {
	f := New(found(map[string]any{
		"base": map[string]any{"types": []any{"s3", "custom"}},
	}))

	merged, err := f.Merged(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		[]any{"datapipeline", "ec2", "lambda", "rolling", "s3", "s3", "custom"},
		lookup(t, lookup(t, merged, "base"), "types").ToAny(),
	)

	cfg, err := f.Config()
	require.NoError(t, err)
	base, err := cfg.Map("base")
	require.NoError(t, err)
	types, err := base.SetOf("types")
	require.NoError(t, err)
	assert.Equal(t, []string{"custom", "datapipeline", "ec2", "lambda", "rolling", "s3"}, types.Strings())
}

func TestFacade_IniFilesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foremast.cfg"), []byte(`[base]
envs = dev,prod
gate_api_url = https://gate.example.com
default_ec2_securitygroups = {"dev": ["sg-dev"]}
default_elb_securitygroups = sg_elb,sg_web

[credentials]
gitlab_token = secret

[task_timeouts]
default = 300

[formats]
domain = example.com
`), 0o600))

	f := New(isolatedLoader(t, dir))
	s, err := LoadSettings(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, []string{"dev", "prod"}, s.Envs)
	assert.Equal(t, "https://gate.example.com", s.APIURL)
	assert.Equal(t, "example.com", s.Domain)
	assert.Equal(t, "secret", s.GitlabToken)
	assert.Equal(t, "", s.SlackToken)
	assert.Equal(t, int64(300), s.DefaultTaskTimeout)

	dev, err := s.DefaultEC2SecurityGroups.SetOf("dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"sg-dev"}, dev.Strings())

	all, err := s.DefaultELBSecurityGroups.SetOf(merge.SecurityGroupsFallbackKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"sg_elb", "sg_web"}, all.Strings())

	domain, err := s.AppFormats.String("domain")
	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(context.Background(), New(isolatedLoader(t, t.TempDir())))
	require.NoError(t, err)

	assert.Equal(t, "example.com", s.Domain)
	assert.Equal(t, []string{"datapipeline", "ec2", "lambda", "rolling", "s3"}, s.AllowedTypes)
	assert.Empty(t, s.Envs)
	assert.Equal(t, int64(DefaultTaskTimeout), s.DefaultTaskTimeout)
	assert.Equal(t, 0, s.TaskTimeouts.Len())
	assert.Equal(t, 0, s.Links.Len())

	ua, err := s.Headers.String("user-agent")
	require.NoError(t, err)
	assert.Equal(t, "foremast", ua)
}

func TestLoadSettings_ExpandsCertificatePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CERT_NAME", "client")

	f := New(found(map[string]any{
		"base": map[string]any{
			"gate_client_cert": "~/certs/$CERT_NAME.pem",
			"gate_ca_bundle":   "/etc/ssl/${CERT_NAME}-ca.pem",
		},
	}))

	s, err := LoadSettings(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "certs", "client.pem"), s.GateClientCert)
	assert.Equal(t, "/etc/ssl/client-ca.pem", s.GateCABundle)
}

func TestLoadSettings_WrongKind(t *testing.T) {
	f := New(
		found(map[string]any{"base": map[string]any{"envs": []any{"dev"}}}),
		WithSchema(node.MustFromAny(map[string]any{"base": "flat"})),
	)

	_, err := LoadSettings(context.Background(), f)
	require.Error(t, err)
}

func TestDefaultSchema_ReturnsFreshTrees(t *testing.T) {
	assert.True(t, node.Equal(DefaultSchema(), DefaultSchema()))
	assert.Equal(t,
		[]string{"base", "credentials", "formats", "headers", "links", "task_timeouts", "whitelists"},
		DefaultSchema().Keys(),
	)
}
