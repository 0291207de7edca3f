package node

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// number is satisfied by json.Number from both encoding/json and
// github.com/goccy/go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// FromAny converts a decoded YAML, TOML or JSON value into a Node.
func FromAny(v any) (Node, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Node:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUnsigned(uint64(val))
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		return fromUnsigned(val)
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case time.Time:
		return String(val.Format(time.RFC3339Nano)), nil
	case number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return Node{}, fmt.Errorf("invalid number %v: %w", val, err)
		}
		return Float(f), nil
	case []any:
		items := make([]Node, len(val))
		for i, item := range val {
			n, err := FromAny(item)
			if err != nil {
				return Node{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = n
		}
		return Node{kind: KindSequence, seq: items}, nil
	case []string:
		return Strings(val...), nil
	case map[string]any:
		keys := make(map[string]Node, len(val))
		for k, item := range val {
			n, err := FromAny(item)
			if err != nil {
				return Node{}, fmt.Errorf("%s: %w", k, err)
			}
			keys[k] = n
		}
		return Node{kind: KindMapping, keys: keys}, nil
	case map[any]any:
		keys := make(map[string]Node, len(val))
		for k, item := range val {
			n, err := FromAny(item)
			if err != nil {
				return Node{}, fmt.Errorf("%v: %w", k, err)
			}
			keys[fmt.Sprint(k)] = n
		}
		return Node{kind: KindMapping, keys: keys}, nil
	case map[string]string:
		keys := make(map[string]Node, len(val))
		for k, item := range val {
			keys[k] = String(item)
		}
		return Node{kind: KindMapping, keys: keys}, nil
	}
	return Node{}, fmt.Errorf("unsupported configuration value of type %T", v)
}

func fromUnsigned(u uint64) (Node, error) {
	if u > math.MaxInt64 {
		return Node{}, fmt.Errorf("integer %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// MustFromAny is like FromAny but panics on error. It is intended for
// literals built into the program.
func MustFromAny(v any) Node {
	n, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return n
}

// ToAny converts n into plain Go values: nil, string, int64, float64, bool,
// []any and map[string]any.
func (n Node) ToAny() any {
	switch n.kind {
	case KindString:
		return n.str
	case KindInt:
		return n.num
	case KindFloat:
		return n.flt
	case KindBool:
		return n.flag
	case KindSequence:
		out := make([]any, len(n.seq))
		for i, item := range n.seq {
			out[i] = item.ToAny()
		}
		return out
	case KindMapping, KindSection:
		out := make(map[string]any, len(n.keys))
		for k, v := range n.keys {
			out[k] = v.ToAny()
		}
		return out
	}
	return nil
}

// MarshalYAML renders mappings with sorted keys.
func (n Node) MarshalYAML() (any, error) {
	if !n.IsKeyed() {
		if n.kind == KindSequence {
			return n.seq, nil
		}
		return n.ToAny(), nil
	}

	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range n.Keys() {
		var value yaml.Node
		if err := value.Encode(n.keys[k]); err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&value,
		)
	}
	return out, nil
}
