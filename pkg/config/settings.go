package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foremast/foremast/pkg/frozen"
)

// Settings is a typed view of the configuration keys the tool consumes.
// Sequence settings are read through the frozen view, so they are sorted and
// free of duplicates.
type Settings struct {
	// APIURL is base.gate_api_url.
	APIURL string
	// GitURL is base.git_url.
	GitURL string
	// Domain is base.domain.
	Domain string
	// Envs is base.envs.
	Envs []string
	// Regions is base.regions.
	Regions []string
	// AllowedTypes is base.types.
	AllowedTypes []string
	// TemplatesPath is base.templates_path.
	TemplatesPath string
	// AMIJSONURL is base.ami_json_url.
	AMIJSONURL string

	DefaultSecurityGroupRules *frozen.Map
	DefaultEC2SecurityGroups  *frozen.Map
	DefaultELBSecurityGroups  *frozen.Map
	SecurityGroupReplacements *frozen.Map

	// GateClientCert and GateCABundle have "~" and $VAR references expanded.
	GateClientCert string
	GateCABundle   string

	GitlabToken string
	SlackToken  string

	// DefaultTaskTimeout is task_timeouts.default in seconds.
	DefaultTaskTimeout int64
	// TaskTimeouts maps environments to timeouts.
	TaskTimeouts *frozen.Map

	ASGWhitelist []string
	AppFormats   *frozen.Map
	Links        *frozen.Map
	Headers      *frozen.Map
}

// LoadSettings reads Settings from f, loading the configuration if needed.
func LoadSettings(ctx context.Context, f *Facade) (*Settings, error) {
	cfg, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}

	r := &settingsReader{}
	base := r.mapping(cfg, "base")
	credentials := r.mapping(cfg, "credentials")
	timeouts := r.mapping(cfg, "task_timeouts")
	whitelists := r.mapping(cfg, "whitelists")
	links := r.mapping(cfg, "links")
	if r.err != nil {
		return nil, r.err
	}

	s := &Settings{
		APIURL:        r.str(base, "base", "gate_api_url"),
		GitURL:        r.str(base, "base", "git_url"),
		Domain:        r.str(base, "base", "domain"),
		Envs:          r.strings(base, "base", "envs"),
		Regions:       r.strings(base, "base", "regions"),
		AllowedTypes:  r.strings(base, "base", "types"),
		TemplatesPath: r.str(base, "base", "templates_path"),
		AMIJSONURL:    r.str(base, "base", "ami_json_url"),

		DefaultSecurityGroupRules: r.nested(base, "base", "default_securitygroup_rules"),
		DefaultEC2SecurityGroups:  r.nested(base, "base", "default_ec2_securitygroups"),
		DefaultELBSecurityGroups:  r.nested(base, "base", "default_elb_securitygroups"),
		SecurityGroupReplacements: r.nested(base, "base", "securitygroup_replacements"),

		GateClientCert: expandPath(r.str(base, "base", "gate_client_cert")),
		GateCABundle:   expandPath(r.str(base, "base", "gate_ca_bundle")),

		GitlabToken: r.str(credentials, "credentials", "gitlab_token"),
		SlackToken:  r.str(credentials, "credentials", "slack_token"),

		DefaultTaskTimeout: r.integer(timeouts, "task_timeouts", "default"),
		TaskTimeouts:       r.nested(timeouts, "task_timeouts", "envs"),

		ASGWhitelist: r.strings(whitelists, "whitelists", "asg_whitelist"),
		AppFormats:   r.mapping(cfg, "formats"),
		Links:        r.nested(links, "links", "default"),
		Headers:      r.mapping(cfg, "headers"),
	}
	if r.err != nil {
		return nil, r.err
	}

	return s, nil
}

// settingsReader keeps the first read error so LoadSettings can read every
// field before checking.
type settingsReader struct {
	err error
}

func (r *settingsReader) fail(section, key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("reading %s.%s: %w", section, key, err)
	}
}

func (r *settingsReader) mapping(cfg *frozen.Map, key string) *frozen.Map {
	if r.err != nil {
		return nil
	}
	m, err := cfg.Map(key)
	if err != nil {
		r.err = fmt.Errorf("reading %s: %w", key, err)
	}
	return m
}

func (r *settingsReader) nested(m *frozen.Map, section, key string) *frozen.Map {
	if r.err != nil {
		return nil
	}
	nested, err := m.Map(key)
	if err != nil {
		r.fail(section, key, err)
	}
	return nested
}

func (r *settingsReader) str(m *frozen.Map, section, key string) string {
	if r.err != nil {
		return ""
	}
	s, err := m.String(key)
	if err != nil {
		r.fail(section, key, err)
	}
	return s
}

func (r *settingsReader) strings(m *frozen.Map, section, key string) []string {
	if r.err != nil {
		return nil
	}
	set, err := m.SetOf(key)
	if err != nil {
		r.fail(section, key, err)
		return nil
	}
	return set.Strings()
}

func (r *settingsReader) integer(m *frozen.Map, section, key string) int64 {
	if r.err != nil {
		return 0
	}
	i, err := m.Int(key)
	if err != nil {
		r.fail(section, key, err)
	}
	return i
}

// expandPath expands a leading "~" and then environment references.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
