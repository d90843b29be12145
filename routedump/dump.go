// Package routedump renders a parsed, sorted route table as YAML for the
// "--dump-routes" debug flag: an introspection aid for verifying priority
// ordering without binding any listener, never a config format that is
// read back in.
package routedump

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/routetable"
)

// entry is one line of the rendered table, in final priority order.
type entry struct {
	Index    int    `yaml:"decl_index"`
	Listener string `yaml:"listener"`
	Protocol string `yaml:"protocol"`
	Class    string `yaml:"class"`
	Source   string `yaml:"source"`
	Dest     string `yaml:"destination"`
}

// Render marshals table's routes, in their already-sorted priority order,
// to YAML.
func Render(table *routetable.Table) (string, error) {
	entries := make([]entry, 0, len(table.Routes))
	for _, r := range table.Routes {
		entries = append(entries, entry{
			Index:    r.DeclIndex,
			Listener: r.Src.Listener.String(),
			Protocol: string(r.Src.Protocol),
			Class:    routetable.ClassOf(r.Src).String(),
			Source:   renderSrc(r.Src),
			Dest:     renderDst(r.Dst),
		})
	}

	out, err := yaml.Marshal(map[string]any{"routes": entries})
	if err != nil {
		return "", fmt.Errorf("marshal route table: %w", err)
	}
	return string(out), nil
}

func renderSrc(src route.SrcPattern) string {
	var b strings.Builder
	if src.MatchKind == route.Exact {
		b.WriteByte('=')
	}
	if src.Protocol == route.TCP {
		b.WriteString("tcp://")
	}
	b.WriteString(src.Listener.String())
	for _, seg := range src.Segments {
		b.WriteByte('/')
		b.WriteString(renderSegment(seg))
	}
	return b.String()
}

func renderSegment(seg route.Segment) string {
	switch s := seg.(type) {
	case route.Literal:
		return string(s)
	case route.Var:
		return "(" + string(s) + ")"
	case route.VarRest:
		return "(" + string(s) + "..)"
	default:
		return "?"
	}
}

func renderDst(dst route.DstTemplate) string {
	switch d := dst.(type) {
	case route.HTTPUpstream:
		var b strings.Builder
		fmt.Fprintf(&b, "%s://%s:%d", d.Scheme, d.Host, d.Port)
		for _, seg := range d.PathTemplate {
			b.WriteByte('/')
			b.WriteString(renderSegment(seg))
		}
		return b.String()
	case route.File:
		var parts []string
		for _, comp := range d.RootPathTemplate {
			parts = append(parts, renderDstSegment(comp))
		}
		return strings.Join(parts, "/")
	case route.StatusCodeDst:
		return fmt.Sprintf("statuscode://%d", d.Code)
	case route.TCPUpstream:
		return fmt.Sprintf("tcp://%s:%d", d.Host, d.Port)
	default:
		return "?"
	}
}

func renderDstSegment(seg route.DstSegment) string {
	var b strings.Builder
	for _, part := range seg {
		switch p := part.(type) {
		case route.DstLiteral:
			b.WriteString(string(p))
		case route.DstVarRef:
			b.WriteString("(" + string(p) + ")")
		case route.DstVarRestRef:
			b.WriteString("(" + string(p) + "..)")
		}
	}
	return b.String()
}
