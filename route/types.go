// Package route implements the route language: parsing an argv phrase of
// the form "SRC to DST [and SRC to DST]*" into a typed table of routes,
// each pairing a source pattern bound to a listener with a destination
// template.
//
// Patterns are stored as typed segment variants rather than strings with
// ad-hoc flags: a Literal, Var or VarRest is a distinct Go type, not a
// struct with isParam/isWildcard booleans.
package route

import "fmt"

// Protocol is the transport a listener accepts.
type Protocol string

const (
	HTTP Protocol = "http"
	TCP  Protocol = "tcp"
)

// MatchKind distinguishes an exact source (leading "=") from a prefix
// source (the default).
type MatchKind int

const (
	Prefix MatchKind = iota
	Exact
)

func (k MatchKind) String() string {
	if k == Exact {
		return "exact"
	}
	return "prefix"
}

// Listener is the concrete socket address a source pattern binds to.
type Listener struct {
	Host string
	Port int
}

func (l Listener) String() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// Segment is one '/'-delimited component of a source pattern or of an
// HttpUpstream path template. It is a closed tagged union of exactly three
// concrete types: Literal, Var, VarRest.
type Segment interface {
	segment()
}

// Literal matches a single path segment by exact, case-sensitive text.
type Literal string

func (Literal) segment() {}

// Var captures exactly one non-empty path segment under the given name.
type Var string

func (Var) segment() {}

// VarRest captures zero or more trailing path segments, joined by "/",
// under the given name. Leftmost VarRest in a pattern is minimal-greedy:
// see match.Match.
type VarRest string

func (VarRest) segment() {}

// SrcPattern is the parsed left-hand side of one route clause.
type SrcPattern struct {
	Listener  Listener
	Protocol  Protocol
	MatchKind MatchKind
	Segments  []Segment
}

// VarNames returns the set of variable names (Var and VarRest) declared by
// the pattern, in declaration order with no duplicates (duplicates are
// rejected at parse time).
func (p SrcPattern) VarNames() []string {
	var names []string
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case Var:
			names = append(names, string(s))
		case VarRest:
			names = append(names, string(s))
		}
	}
	return names
}

// DstPart is one piece of a destination path segment's template: literal
// text, or a reference to a captured variable. Unlike Segment, a
// destination path segment is itself a small template of DstParts, since a
// destination may interpolate a capture into literal text within one
// segment (e.g. "(filename).json").
type DstPart interface {
	dstPart()
}

// DstLiteral is literal text within a destination segment.
type DstLiteral string

func (DstLiteral) dstPart() {}

// DstVarRef interpolates a single-segment capture (Var) by name.
type DstVarRef string

func (DstVarRef) dstPart() {}

// DstVarRestRef interpolates a rest capture (VarRest) by name.
type DstVarRestRef string

func (DstVarRestRef) dstPart() {}

// DstSegment is one '/'-delimited component of a destination template that
// allows mixed literal/variable content (used by File.RootPathTemplate).
type DstSegment []DstPart

// DstTemplate is the parsed right-hand side of one route clause: a closed
// tagged union of HTTPUpstream, File, StatusCodeDst, TCPUpstream.
type DstTemplate interface {
	dstTemplate()
}

// HTTPUpstream forwards to another HTTP endpoint.
type HTTPUpstream struct {
	Scheme        string
	Host          string
	Port          int
	PathTemplate  []Segment
	PreserveQuery bool
}

func (HTTPUpstream) dstTemplate() {}

// File serves from a local filesystem root, which may itself be templated
// ("./files/(filename).json").
type File struct {
	RootPathTemplate []DstSegment
}

func (File) dstTemplate() {}

// StatusCodeDst immediately answers with a fixed HTTP status and empty
// body. Nothing() constructs the 404 alias.
type StatusCodeDst struct {
	Code int
}

func (StatusCodeDst) dstTemplate() {}

// Nothing is the StatusCodeDst{404} alias used when a clause's destination
// is the literal token "nothing".
func Nothing() StatusCodeDst { return StatusCodeDst{Code: 404} }

// TCPUpstream forwards a spliced TCP connection to host:port. Only valid
// paired with a TCP source.
type TCPUpstream struct {
	Host string
	Port int
}

func (TCPUpstream) dstTemplate() {}

// Route is one (source pattern, destination template) pair, decorated with
// the zero-based declaration index used for priority tie-breaking and for
// --dump-routes output.
type Route struct {
	Src       SrcPattern
	Dst       DstTemplate
	DeclIndex int
}
