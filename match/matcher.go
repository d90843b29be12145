// Package match selects the winning route for an inbound request: it
// walks a listener's routes in priority order and returns the first one
// whose source pattern unifies with the request path, along with the
// captured variables.
package match

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/arkd0ng/weave/route"
)

// Result is the outcome of a successful match: the winning route, the
// variables it captured, and (for prefix routes) the leftover request
// segments beyond the pattern.
type Result struct {
	Route    route.Route
	Captures map[string]string
	Tail     []string
	IsPrefix bool
}

// SplitPath splits a request path on '/', eliding empty leading/trailing
// segments, and NFC-normalizing each segment so a route declared with a
// precomposed literal matches a decomposed request path and vice versa.
func SplitPath(p string) []string {
	parts := strings.Split(p, "/")
	segs := make([]string, 0, len(parts))
	for _, s := range parts {
		if s == "" {
			continue
		}
		segs = append(segs, norm.NFC.String(s))
	}
	return segs
}

// Match walks routes (already sorted into priority order by routetable) and
// returns the first one whose pattern unifies with reqSegments. routes must
// already be filtered to the request's listener.
func Match(routes []route.Route, reqSegments []string) (Result, bool) {
	for _, r := range routes {
		exact := r.Src.MatchKind == route.Exact
		captures, consumed, ok := unify(r.Src.Segments, reqSegments, exact)
		if !ok {
			continue
		}

		if exact {
			return Result{Route: r, Captures: captures}, true
		}
		return Result{Route: r, Captures: captures, Tail: reqSegments[consumed:], IsPrefix: true}, true
	}
	return Result{}, false
}

// unify attempts to consume reqSegments against pattern from the start,
// returning the captured variables and how many request segments were
// consumed. When exact is set, a unification only succeeds if it consumes
// the entire request, so a trailing VarRest is forced to expand over the
// residual segments rather than leaving them behind.
func unify(pattern []route.Segment, req []string, exact bool) (map[string]string, int, bool) {
	captures := make(map[string]string)
	end, ok := unifyAt(pattern, 0, req, 0, exact, captures)
	if !ok {
		return nil, 0, false
	}
	return captures, end, true
}

// unifyAt is the recursive backtracking core. It normalizes Literal
// segments to NFC once per call so requests with either normal form match.
func unifyAt(pattern []route.Segment, pi int, req []string, ri int, exact bool, captures map[string]string) (int, bool) {
	if pi == len(pattern) {
		if exact && ri != len(req) {
			return 0, false
		}
		return ri, true
	}

	switch seg := pattern[pi].(type) {
	case route.Literal:
		if ri >= len(req) || req[ri] != norm.NFC.String(string(seg)) {
			return 0, false
		}
		return unifyAt(pattern, pi+1, req, ri+1, exact, captures)

	case route.Var:
		if ri >= len(req) {
			return 0, false
		}
		name := string(seg)
		old, had := captures[name]
		captures[name] = req[ri]
		if end, ok := unifyAt(pattern, pi+1, req, ri+1, exact, captures); ok {
			return end, true
		}
		restore(captures, name, old, had)
		return 0, false

	case route.VarRest:
		name := string(seg)
		old, had := captures[name]
		// Leftmost-minimal-greedy: try the smallest capture first so a
		// VarRest expands only as far as the remaining pattern demands.
		for take := 0; ri+take <= len(req); take++ {
			captures[name] = strings.Join(req[ri:ri+take], "/")
			if end, ok := unifyAt(pattern, pi+1, req, ri+take, exact, captures); ok {
				return end, true
			}
		}
		restore(captures, name, old, had)
		return 0, false

	default:
		return 0, false
	}
}

func restore(captures map[string]string, name, old string, had bool) {
	if had {
		captures[name] = old
	} else {
		delete(captures, name)
	}
}
