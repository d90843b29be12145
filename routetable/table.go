// Package routetable sorts parsed routes into priority order and groups
// them by listener, enforcing the table invariants: homogeneous protocol
// per listener, and at most one path-free route on a tcp listener.
package routetable

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/weaveerr"
)

// Class is the four-way priority partition routes sort into. Lower wins:
// exact routes before prefix routes, variable-free routes before patterned
// ones.
type Class int

const (
	ClassExactNoVars Class = iota
	ClassExactVars
	ClassPrefixNoVars
	ClassPrefixVars
)

func classify(src route.SrcPattern) Class {
	hasVars := len(src.VarNames()) > 0
	switch {
	case src.MatchKind == route.Exact && !hasVars:
		return ClassExactNoVars
	case src.MatchKind == route.Exact && hasVars:
		return ClassExactVars
	case !hasVars:
		return ClassPrefixNoVars
	default:
		return ClassPrefixVars
	}
}

func literalCount(segs []route.Segment) int {
	n := 0
	for _, s := range segs {
		if _, ok := s.(route.Literal); ok {
			n++
		}
	}
	return n
}

// Table is the immutable, sorted route table for the whole process: every
// route across every listener, ordered for match.Match to walk in
// priority order.
type Table struct {
	Routes    []route.Route
	Listeners map[route.Listener]route.Protocol
}

// Build sorts routes by priority class (within the variable-free classes,
// by descending literal count, then declaration order; within the
// patterned classes, by declaration order alone) and validates the
// per-listener protocol/path invariants, returning a *weaveerr.Error of
// KindArgv on violation (the argv error path, not a runtime one: these
// are detected once at startup from the fully parsed table).
func Build(routes []route.Route) (*Table, error) {
	listeners := make(map[route.Listener]route.Protocol)
	for _, r := range routes {
		l := r.Src.Listener
		proto, seen := listeners[l]
		if !seen {
			listeners[l] = r.Src.Protocol
			continue
		}
		if proto != r.Src.Protocol {
			return nil, weaveerr.New(weaveerr.KindArgv, "listener declared with conflicting protocols").
				With("listener", l.String()).
				With("declaration_index", r.DeclIndex)
		}
	}

	tcpRouteCount := make(map[route.Listener]int)
	for _, r := range routes {
		if r.Src.Protocol != route.TCP {
			continue
		}
		tcpRouteCount[r.Src.Listener]++
		if len(r.Src.Segments) > 0 {
			return nil, weaveerr.New(weaveerr.KindArgv, "tcp listener route may not carry path segments").
				With("listener", r.Src.Listener.String()).
				With("declaration_index", r.DeclIndex)
		}
	}
	for l, n := range tcpRouteCount {
		if n > 1 {
			return nil, weaveerr.New(weaveerr.KindArgv, "tcp listener may carry at most one route").
				With("listener", l.String()).
				With("count", n)
		}
	}

	sorted := make([]route.Route, len(routes))
	copy(sorted, routes)
	slices.SortStableFunc(sorted, func(a, b route.Route) int {
		ca, cb := classify(a.Src), classify(b.Src)
		if ca != cb {
			return int(ca) - int(cb)
		}
		switch ca {
		case ClassExactNoVars, ClassPrefixNoVars:
			la, lb := literalCount(a.Src.Segments), literalCount(b.Src.Segments)
			if la != lb {
				return lb - la
			}
			return a.DeclIndex - b.DeclIndex
		default:
			return a.DeclIndex - b.DeclIndex
		}
	})

	return &Table{Routes: sorted, Listeners: listeners}, nil
}

// ForListener returns the subset of routes bound to the given listener, in
// table (priority) order.
func (t *Table) ForListener(l route.Listener) []route.Route {
	var out []route.Route
	for _, r := range t.Routes {
		if r.Src.Listener == l {
			out = append(out, r)
		}
	}
	return out
}

// String renders a route's class for diagnostics and --dump-routes.
func (c Class) String() string {
	switch c {
	case ClassExactNoVars:
		return "exact-no-vars"
	case ClassExactVars:
		return "exact-vars"
	case ClassPrefixNoVars:
		return "prefix-no-vars"
	case ClassPrefixVars:
		return "prefix-vars"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// ClassOf exposes classify for routedump and tests without re-deriving the
// priority rules.
func ClassOf(src route.SrcPattern) Class { return classify(src) }
