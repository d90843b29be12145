// Package resolve materializes a matched route and its captured variables
// into a concrete destination: an upstream URL, a filesystem path, a fixed
// status, or a TCP address.
package resolve

import (
	"fmt"
	"strings"

	"github.com/arkd0ng/weave/match"
	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/weaveerr"
)

// Destination is a closed tagged union of the four concrete destinations a
// route can resolve to.
type Destination interface {
	destination()
}

// Upstream is a concrete HTTP forwarding target.
type Upstream struct {
	Scheme string
	Host   string
	Port   int
	Path   string // rendered, always starts with "/"
	Query  string // inbound query verbatim; empty when the route's PreserveQuery is unset
}

func (Upstream) destination() {}

// FileDestination is a resolved, traversal-checked filesystem root plus the
// leftover request segments (for prefix routes) that should be joined onto
// it by the caller when serving.
type FileDestination struct {
	Root string
	Tail []string
}

func (FileDestination) destination() {}

// Status is an immediate fixed-code response with no forwarding.
type Status struct {
	Code int
}

func (Status) destination() {}

// TCP is a concrete TCP forwarding target.
type TCP struct {
	Host string
	Port int
}

func (TCP) destination() {}

// Resolve turns a matcher result into a concrete Destination. query is the
// inbound request's raw query string (without the leading '?').
func Resolve(result match.Result, query string) (Destination, error) {
	switch dst := result.Route.Dst.(type) {
	case route.HTTPUpstream:
		return resolveUpstream(dst, result, query)
	case route.File:
		return resolveFile(dst, result)
	case route.StatusCodeDst:
		return Status{Code: dst.Code}, nil
	case route.TCPUpstream:
		return TCP{Host: dst.Host, Port: dst.Port}, nil
	default:
		return nil, weaveerr.New(weaveerr.KindResolve, "unknown destination template").
			With("type", fmt.Sprintf("%T", dst))
	}
}

func resolveUpstream(dst route.HTTPUpstream, result match.Result, query string) (Upstream, error) {
	parts := make([]string, 0, len(dst.PathTemplate)+len(result.Tail))
	for _, seg := range dst.PathTemplate {
		switch s := seg.(type) {
		case route.Literal:
			parts = append(parts, string(s))
		case route.Var:
			v, ok := result.Captures[string(s)]
			if !ok {
				return Upstream{}, weaveerr.New(weaveerr.KindResolve, "unresolved variable in upstream path").
					With("variable", string(s))
			}
			parts = append(parts, v)
		case route.VarRest:
			v, ok := result.Captures[string(s)]
			if !ok {
				return Upstream{}, weaveerr.New(weaveerr.KindResolve, "unresolved variable in upstream path").
					With("variable", string(s))
			}
			if v != "" {
				parts = append(parts, v)
			}
		}
	}
	if result.IsPrefix {
		parts = append(parts, result.Tail...)
	}
	if !dst.PreserveQuery {
		query = ""
	}

	return Upstream{
		Scheme: dst.Scheme,
		Host:   dst.Host,
		Port:   dst.Port,
		Path:   "/" + strings.Join(parts, "/"),
		Query:  query,
	}, nil
}

func resolveFile(dst route.File, result match.Result) (FileDestination, error) {
	parts := make([]string, 0, len(dst.RootPathTemplate))
	for _, comp := range dst.RootPathTemplate {
		var b strings.Builder
		for _, part := range comp {
			switch p := part.(type) {
			case route.DstLiteral:
				b.WriteString(string(p))
			case route.DstVarRef:
				v, ok := result.Captures[string(p)]
				if !ok {
					return FileDestination{}, weaveerr.New(weaveerr.KindResolve, "unresolved variable in file path").
						With("variable", string(p))
				}
				if err := checkTraversal(v); err != nil {
					return FileDestination{}, err
				}
				b.WriteString(v)
			case route.DstVarRestRef:
				v, ok := result.Captures[string(p)]
				if !ok {
					return FileDestination{}, weaveerr.New(weaveerr.KindResolve, "unresolved variable in file path").
						With("variable", string(p))
				}
				if err := checkTraversal(v); err != nil {
					return FileDestination{}, err
				}
				b.WriteString(v)
			}
		}
		parts = append(parts, b.String())
	}

	for _, t := range result.Tail {
		if err := checkTraversal(t); err != nil {
			return FileDestination{}, err
		}
	}

	return FileDestination{Root: strings.Join(parts, "/"), Tail: result.Tail}, nil
}

// checkTraversal rejects a ".." path component in a substituted value or
// tail segment, preventing a request from walking a resolved filesystem
// path outside its declared root. Only request-derived values are checked:
// a root the operator declared with a ".." of its own is trusted argv, not
// an escape. The raw, uncleaned component list is inspected because
// path.Clean would silently cancel "foo/.." pairs, which is exactly the
// escape this guards against.
func checkTraversal(p string) error {
	for _, comp := range strings.Split(p, "/") {
		if comp == ".." {
			return weaveerr.New(weaveerr.KindFile, "traversal outside declared root").
				With("path", p)
		}
	}
	return nil
}
