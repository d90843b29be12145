package route

import (
	"fmt"
	"regexp"
	"strings"
)

var varNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// parseSegment parses one whole '/'-delimited component of a source pattern
// or HTTPUpstream path template: either a Var/VarRest reference spanning
// the entire segment, or a Literal.
func parseSegment(s string) (Segment, error) {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) >= 2 {
		inner := s[1 : len(s)-1]
		name, isRest := strings.CutSuffix(inner, "..")
		if !varNamePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid variable name %q", inner)
		}
		if isRest {
			return VarRest(name), nil
		}
		return Var(name), nil
	}
	return Literal(s), nil
}

// parsePathTemplate splits a '/'-delimited path (no leading slash expected)
// into whole-segment Segments, skipping empty components produced by
// doubled or trailing slashes.
func parsePathTemplate(path string) ([]Segment, error) {
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, "/")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		seg, err := parseSegment(p)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// varRefPattern finds "(name)" and "(name..)" references embedded anywhere
// within a destination path component, e.g. "(filename).json".
var varRefPattern = regexp.MustCompile(`\(([A-Za-z][A-Za-z0-9_-]*)(\.\.)?\)`)

// parseDstComponent parses one '/'-delimited component of a File
// RootPathTemplate, which unlike a source Segment may mix literal text and
// variable references within a single component.
func parseDstComponent(s string) DstSegment {
	matches := varRefPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return DstSegment{DstLiteral(s)}
	}

	var out DstSegment
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			out = append(out, DstLiteral(s[pos:m[0]]))
		}
		name := s[m[2]:m[3]]
		if m[4] != -1 {
			out = append(out, DstVarRestRef(name))
		} else {
			out = append(out, DstVarRef(name))
		}
		pos = m[1]
	}
	if pos < len(s) {
		out = append(out, DstLiteral(s[pos:]))
	}
	return out
}

// parseDstPathTemplate splits a filesystem path template into its
// '/'-delimited DstSegments, preserving leading "." or ".." components so
// relative paths like "./client/files" round-trip.
func parseDstPathTemplate(path string) []DstSegment {
	parts := strings.Split(path, "/")
	segs := make([]DstSegment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		segs = append(segs, parseDstComponent(p))
	}
	return segs
}

// dstSegmentVarNames returns every variable name referenced across a slice
// of DstSegments, in order of first appearance.
func dstSegmentVarNames(segs []DstSegment) []string {
	var names []string
	for _, seg := range segs {
		for _, part := range seg {
			switch p := part.(type) {
			case DstVarRef:
				names = append(names, string(p))
			case DstVarRestRef:
				names = append(names, string(p))
			}
		}
	}
	return names
}

// segmentVarNames returns every variable name referenced across a slice of
// whole-segment Segments (used for HTTPUpstream.PathTemplate).
func segmentVarNames(segs []Segment) []string {
	var names []string
	for _, seg := range segs {
		switch s := seg.(type) {
		case Var:
			names = append(names, string(s))
		case VarRest:
			names = append(names, string(s))
		}
	}
	return names
}
