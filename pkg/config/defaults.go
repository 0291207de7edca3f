package config

import (
	"github.com/foremast/foremast/pkg/node"
)

// DefaultTaskTimeout is the task timeout in seconds used when no source
// overrides task_timeouts.default.
const DefaultTaskTimeout = 120

// DefaultSchema returns the built-in configuration. Each call returns a new
// tree, so callers cannot affect each other.
func DefaultSchema() node.Node {
	empty := func() node.Node { return node.Mapping(nil) }

	return node.Mapping(map[string]node.Node{
		"base": node.Mapping(map[string]node.Node{
			"ami_json_url":                node.String(""),
			"default_ec2_securitygroups":  empty(),
			"default_elb_securitygroups":  empty(),
			"default_securitygroup_rules": empty(),
			"domain":                      node.String("example.com"),
			"ec2_pipeline_types":          node.Sequence(),
			"envs":                        node.Sequence(),
			"gate_api_url":                node.String(""),
			"gate_ca_bundle":              node.String(""),
			"gate_client_cert":            node.String(""),
			"git_url":                     node.String(""),
			"regions":                     node.Sequence(),
			"securitygroup_replacements":  empty(),
			"templates_path":              node.String(""),
			"types":                       node.Strings("datapipeline", "ec2", "lambda", "rolling", "s3"),
		}),
		"credentials": node.Mapping(map[string]node.Node{
			"gitlab_token": node.String(""),
			"slack_token":  node.String(""),
		}),
		"formats": empty(),
		"headers": node.Mapping(map[string]node.Node{
			"accept":       node.String("*/*"),
			"content-type": node.String("application/json"),
			"user-agent":   node.String("foremast"),
		}),
		"links": node.Mapping(map[string]node.Node{
			"default": empty(),
		}),
		"task_timeouts": node.Mapping(map[string]node.Node{
			"default": node.Int(DefaultTaskTimeout),
			"envs":    empty(),
		}),
		"whitelists": node.Mapping(map[string]node.Node{
			"asg_whitelist": node.Sequence(),
		}),
	})
}
