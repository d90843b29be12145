package routedump

import (
	"strings"
	"testing"

	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/routetable"
)

func TestRenderIncludesEveryRouteAndField(t *testing.T) {
	listener := route.Listener{Host: "127.0.0.1", Port: 8080}
	table, err := routetable.Build([]route.Route{
		{
			Src: route.SrcPattern{Listener: listener, Protocol: route.HTTP, MatchKind: route.Exact,
				Segments: []route.Segment{route.Literal("favicon.ico")}},
			Dst: route.File{RootPathTemplate: []route.DstSegment{{route.DstLiteral("./favicon.ico")}}},
		},
		{
			Src: route.SrcPattern{Listener: listener, Protocol: route.HTTP, MatchKind: route.Prefix},
			Dst: route.HTTPUpstream{Scheme: "http", Host: "127.0.0.1", Port: 9090, PreserveQuery: true},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	out, err := Render(table)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(out, "favicon.ico") {
		t.Errorf("output missing favicon.ico route:\n%s", out)
	}
	if !strings.Contains(out, "exact-no-vars") {
		t.Errorf("output missing exact-no-vars class:\n%s", out)
	}
	if !strings.Contains(out, "9090") {
		t.Errorf("output missing upstream port:\n%s", out)
	}
}
