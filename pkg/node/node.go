// Package node defines the untyped configuration tree shared by the merge
// engine and the frozen configuration view.
package node

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Node.
type Kind uint8

const (
	// KindNull is the absence of a value.
	KindNull Kind = iota
	// KindString is a string scalar.
	KindString
	// KindInt is an integer scalar.
	KindInt
	// KindFloat is a floating point scalar.
	KindFloat
	// KindBool is a boolean scalar.
	KindBool
	// KindSequence is an ordered list that may contain duplicates.
	KindSequence
	// KindMapping is a keyed collection of nodes.
	KindMapping
	// KindSection is a string-keyed, string-valued mapping as read from an
	// ini file. It is kept apart from KindMapping so the merge engine can
	// treat it as raw, untyped input.
	KindSection
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindSequence: "sequence",
	KindMapping:  "mapping",
	KindSection:  "section",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is an immutable configuration value. The zero Node is Null.
type Node struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	flag bool
	seq  []Node
	keys map[string]Node
}

// Null returns the null node.
func Null() Node { return Node{} }

// String returns a string node.
func String(s string) Node { return Node{kind: KindString, str: s} }

// Int returns an integer node.
func Int(i int64) Node { return Node{kind: KindInt, num: i} }

// Float returns a floating point node.
func Float(f float64) Node { return Node{kind: KindFloat, flt: f} }

// Bool returns a boolean node.
func Bool(b bool) Node { return Node{kind: KindBool, flag: b} }

// Sequence returns a sequence node holding a copy of items.
func Sequence(items ...Node) Node {
	seq := make([]Node, len(items))
	copy(seq, items)
	return Node{kind: KindSequence, seq: seq}
}

// Strings returns a sequence of string nodes.
func Strings(items ...string) Node {
	seq := make([]Node, len(items))
	for i, s := range items {
		seq[i] = String(s)
	}
	return Node{kind: KindSequence, seq: seq}
}

// Mapping returns a mapping node holding a copy of entries.
func Mapping(entries map[string]Node) Node {
	keys := make(map[string]Node, len(entries))
	for k, v := range entries {
		keys[k] = v
	}
	return Node{kind: KindMapping, keys: keys}
}

// Section returns a section node built from ini key/value pairs.
func Section(entries map[string]string) Node {
	keys := make(map[string]Node, len(entries))
	for k, v := range entries {
		keys[k] = String(v)
	}
	return Node{kind: KindSection, keys: keys}
}

// Kind returns the variant held by n.
func (n Node) Kind() Kind { return n.kind }

// IsNull reports whether n is the null node.
func (n Node) IsNull() bool { return n.kind == KindNull }

// IsKeyed reports whether n is a mapping or a section.
func (n Node) IsKeyed() bool { return n.kind == KindMapping || n.kind == KindSection }

// Str returns the string held by n.
func (n Node) Str() (string, bool) { return n.str, n.kind == KindString }

// Int returns the integer held by n.
func (n Node) Int() (int64, bool) { return n.num, n.kind == KindInt }

// Float returns the float held by n. Integers are widened.
func (n Node) Float() (float64, bool) {
	switch n.kind {
	case KindFloat:
		return n.flt, true
	case KindInt:
		return float64(n.num), true
	}
	return 0, false
}

// Bool returns the boolean held by n.
func (n Node) Bool() (bool, bool) { return n.flag, n.kind == KindBool }

// Items returns a copy of the elements of a sequence node.
func (n Node) Items() []Node {
	if n.kind != KindSequence {
		return nil
	}
	out := make([]Node, len(n.seq))
	copy(out, n.seq)
	return out
}

// Entries returns a copy of the entries of a mapping or section node.
func (n Node) Entries() map[string]Node {
	if !n.IsKeyed() {
		return nil
	}
	out := make(map[string]Node, len(n.keys))
	for k, v := range n.keys {
		out[k] = v
	}
	return out
}

// Lookup returns the entry stored under key in a mapping or section node.
func (n Node) Lookup(key string) (Node, bool) {
	if !n.IsKeyed() {
		return Node{}, false
	}
	v, ok := n.keys[key]
	return v, ok
}

// Keys returns the sorted keys of a mapping or section node.
func (n Node) Keys() []string {
	if !n.IsKeyed() {
		return nil
	}
	keys := make([]string, 0, len(n.keys))
	for k := range n.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of elements, entries or bytes held by n.
func (n Node) Len() int {
	switch n.kind {
	case KindString:
		return len(n.str)
	case KindSequence:
		return len(n.seq)
	case KindMapping, KindSection:
		return len(n.keys)
	}
	return 0
}

// AsMapping converts a section into a plain mapping. Other nodes are
// returned unchanged.
func (n Node) AsMapping() Node {
	if n.kind != KindSection {
		return n
	}
	return Mapping(n.keys)
}

// IsEmpty reports whether n is null, an empty string, an empty sequence or
// an empty mapping. Zero numbers and false are not empty.
func (n Node) IsEmpty() bool {
	switch n.kind {
	case KindNull:
		return true
	case KindString, KindSequence, KindMapping, KindSection:
		return n.Len() == 0
	}
	return false
}

// Equal reports whether a and b hold the same value. Integers and floats
// compare numerically; a mapping never equals a section.
func Equal(a, b Node) bool {
	if a.kind != b.kind {
		if a.kind == KindInt && b.kind == KindFloat {
			i, ok := integral(b.flt)
			return ok && i == a.num
		}
		if a.kind == KindFloat && b.kind == KindInt {
			i, ok := integral(a.flt)
			return ok && i == b.num
		}
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindInt:
		return a.num == b.num
	case KindFloat:
		return a.flt == b.flt
	case KindBool:
		return a.flag == b.flag
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping, KindSection:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for k, av := range a.keys {
			bv, ok := b.keys[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// integral returns f as an int64 when it has no fractional part and fits.
func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// Key returns a canonical encoding of n. Two nodes have the same key exactly
// when they are Equal, which makes keys usable for set membership. NaN is the
// one exception: it never equals itself but always has the same key.
func (n Node) Key() string {
	var b strings.Builder
	n.writeKey(&b)
	return b.String()
}

func (n Node) writeKey(b *strings.Builder) {
	switch n.kind {
	case KindNull:
		b.WriteString("n")
	case KindString:
		b.WriteString("s")
		b.WriteString(strconv.Quote(n.str))
	case KindInt:
		b.WriteString("d")
		b.WriteString(strconv.FormatInt(n.num, 10))
	case KindFloat:
		// integral floats share the integer encoding so 1 and 1.0 collapse
		if i, ok := integral(n.flt); ok {
			b.WriteString("d")
			b.WriteString(strconv.FormatInt(i, 10))
			return
		}
		b.WriteString("f")
		b.WriteString(strconv.FormatFloat(n.flt, 'g', -1, 64))
	case KindBool:
		b.WriteString("b")
		b.WriteString(strconv.FormatBool(n.flag))
	case KindSequence:
		b.WriteString("[")
		for i, item := range n.seq {
			if i > 0 {
				b.WriteString(",")
			}
			item.writeKey(b)
		}
		b.WriteString("]")
	case KindMapping, KindSection:
		if n.kind == KindSection {
			b.WriteString("S")
		}
		b.WriteString("{")
		for i, k := range n.Keys() {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(":")
			n.keys[k].writeKey(b)
		}
		b.WriteString("}")
	}
}

// String renders n in a compact, JSON-like form for logs and error messages.
func (n Node) String() string {
	switch n.kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(n.str)
	case KindInt:
		return strconv.FormatInt(n.num, 10)
	case KindFloat:
		return strconv.FormatFloat(n.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(n.flag)
	case KindSequence:
		parts := make([]string, len(n.seq))
		for i, item := range n.seq {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping, KindSection:
		keys := n.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + n.keys[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("<%s>", n.kind)
}
