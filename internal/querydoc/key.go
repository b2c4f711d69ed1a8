package querydoc

import (
	"regexp"
	"strings"

	"github.com/BearerPipelineTest/meta-where/internal/nodes"
)

// segment is one dotted part of a key: name, name(Class), name:outer.
type segment struct {
	name  string
	class string
	typ   nodes.JoinType
	typed bool
}

func (s segment) plain() bool { return s.class == "" && !s.typed }

func (s segment) node() nodes.Node {
	if s.plain() {
		return nodes.Stub(s.name)
	}
	return nodes.NewJoin(s.name, s.typ, s.class)
}

var segmentRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\(([A-Za-z_][A-Za-z0-9_:]*)\))?(?::(inner|outer))?$`)

// key is a parsed mapping key.
type key struct {
	absolute bool
	path     []string
	last     segment
	kind     nodes.PredicateKind // set when the key ends in a predicate name
}

// parseKey parses the key grammar:
//
//	name                 column or association
//	articles.title       key path
//	~articles.title      key path resolved from the root
//	notable(Article)     polymorphic target
//	comments:outer       join type
//	age.gt               predicate key (only when predicates is set)
func parseKey(field, s string, predicates bool) (key, error) {
	var k key
	raw := s
	if rest, ok := strings.CutPrefix(s, "~"); ok {
		k.absolute = true
		s = rest
	}
	if s == "" {
		return k, errorf(field, "empty key")
	}
	parts := strings.Split(s, ".")
	if predicates && len(parts) > 1 {
		if kind, err := nodes.ParsePredicateKind(parts[len(parts)-1]); err == nil {
			k.kind = kind
			parts = parts[:len(parts)-1]
		}
	}

	segs := make([]segment, len(parts))
	for i, p := range parts {
		m := segmentRe.FindStringSubmatch(p)
		if m == nil {
			return k, errorf(field, "invalid key segment %q in %q", p, raw)
		}
		segs[i] = segment{name: m[1], class: m[2]}
		if m[3] != "" {
			segs[i].typed = true
			if m[3] == "outer" {
				segs[i].typ = nodes.OuterJoin
			}
		}
	}
	for _, seg := range segs[:len(segs)-1] {
		if !seg.plain() {
			return k, errorf(field, "only the last segment of %q may carry a class or join type", raw)
		}
		k.path = append(k.path, seg.name)
	}
	k.last = segs[len(segs)-1]

	if k.kind != "" && !k.last.plain() {
		return k, errorf(field, "predicate key %q cannot carry a class or join type", raw)
	}
	if k.absolute && len(k.path) == 0 {
		return k, errorf(field, "absolute key %q needs at least one association", raw)
	}
	return k, nil
}

// node builds the tree key: a name, a join annotation, a valueless
// predicate or a key path ending in one of those.
func (k key) node() (any, error) {
	var end nodes.Node = k.last.node()
	if k.kind != "" {
		pred, err := nodes.NewPredicate(nodes.Stub(k.last.name), k.kind)
		if err != nil {
			return nil, err
		}
		end = pred
	}
	if len(k.path) == 0 {
		if s, ok := end.(nodes.Stub); ok {
			return string(s), nil
		}
		return end, nil
	}
	kp, err := nodes.KeyPathTo(k.path, end)
	if err != nil {
		return nil, err
	}
	if k.absolute {
		kp.MarkAbsolute()
	}
	return kp, nil
}

// ref builds an operand reference: a Stub or a key path ending in one.
func (k key) ref(field string) (nodes.Node, error) {
	if k.kind != "" || !k.last.plain() {
		return nil, errorf(field, "%q is not a column reference", k.String())
	}
	n, err := k.node()
	if err != nil {
		return nil, err
	}
	if s, ok := n.(string); ok {
		return nodes.Stub(s), nil
	}
	return n.(nodes.Node), nil
}

func (k key) String() string {
	var b strings.Builder
	if k.absolute {
		b.WriteString("~")
	}
	for _, p := range k.path {
		b.WriteString(p + ".")
	}
	b.WriteString(k.last.name)
	if k.kind != "" {
		b.WriteString("." + string(k.kind))
	}
	return b.String()
}

var refRe = regexp.MustCompile(`^~?[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// isRef reports whether s reads as a column reference rather than a raw
// SQL fragment.
func isRef(s string) bool {
	return refRe.MatchString(s)
}
