package route

import "testing"

func mustParse(t *testing.T, phrase string) []Route {
	t.Helper()
	routes, err := Parse(splitWords(phrase))
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", phrase, err)
	}
	return routes
}

func splitWords(phrase string) []string {
	var out []string
	cur := ""
	for _, r := range phrase {
		if r == ' ' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func TestParseFileDestination(t *testing.T) {
	routes := mustParse(t, "8080 to ./client/files")
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	r := routes[0]
	if r.Src.Listener != (Listener{Host: "127.0.0.1", Port: 8080}) {
		t.Errorf("unexpected listener: %+v", r.Src.Listener)
	}
	f, ok := r.Dst.(File)
	if !ok {
		t.Fatalf("expected File destination, got %T", r.Dst)
	}
	want := []DstSegment{{DstLiteral(".")}, {DstLiteral("client")}, {DstLiteral("files")}}
	if len(f.RootPathTemplate) != len(want) {
		t.Fatalf("unexpected template length: %+v", f.RootPathTemplate)
	}
}

func TestParseBarePortUpstream(t *testing.T) {
	routes := mustParse(t, "8080/api to 9090")
	r := routes[0]
	if len(r.Src.Segments) != 1 || r.Src.Segments[0] != Literal("api") {
		t.Fatalf("unexpected src segments: %+v", r.Src.Segments)
	}
	up, ok := r.Dst.(HTTPUpstream)
	if !ok {
		t.Fatalf("expected HTTPUpstream, got %T", r.Dst)
	}
	if up.Scheme != "http" || up.Host != "127.0.0.1" || up.Port != 9090 {
		t.Errorf("unexpected upstream: %+v", up)
	}
}

func TestParseVarCaptureInUpstreamPath(t *testing.T) {
	routes := mustParse(t, "8080/api/(id) to https://some.site/api/(id)")
	r := routes[0]
	if len(r.Src.Segments) != 2 {
		t.Fatalf("unexpected segments: %+v", r.Src.Segments)
	}
	if v, ok := r.Src.Segments[1].(Var); !ok || v != "id" {
		t.Fatalf("expected Var(id), got %#v", r.Src.Segments[1])
	}
	up := r.Dst.(HTTPUpstream)
	if up.Scheme != "https" || up.Host != "some.site" || up.Port != 443 {
		t.Errorf("unexpected upstream: %+v", up)
	}
	if len(up.PathTemplate) != 2 {
		t.Fatalf("unexpected path template: %+v", up.PathTemplate)
	}
	if v, ok := up.PathTemplate[1].(Var); !ok || v != "id" {
		t.Errorf("expected Var(id) in path template, got %#v", up.PathTemplate[1])
	}
}

func TestParseMixedLiteralVarFileDestination(t *testing.T) {
	routes := mustParse(t, "8080/download/(filename) to ./files/(filename).json")
	f := routes[0].Dst.(File)
	last := f.RootPathTemplate[len(f.RootPathTemplate)-1]
	if len(last) != 2 {
		t.Fatalf("expected 2 parts in last component, got %+v", last)
	}
	if ref, ok := last[0].(DstVarRef); !ok || ref != "filename" {
		t.Errorf("expected DstVarRef(filename), got %#v", last[0])
	}
	if lit, ok := last[1].(DstLiteral); !ok || lit != ".json" {
		t.Errorf("expected literal .json suffix, got %#v", last[1])
	}
}

func TestParseVarRestAndExactMatch(t *testing.T) {
	routes := mustParse(t, "=8080/static/(rest..) to ./public/(rest..)")
	r := routes[0]
	if r.Src.MatchKind != Exact {
		t.Errorf("expected exact match kind, got %v", r.Src.MatchKind)
	}
	if vr, ok := r.Src.Segments[1].(VarRest); !ok || vr != "rest" {
		t.Fatalf("expected VarRest(rest), got %#v", r.Src.Segments[1])
	}
}

func TestParseHTTPSchemeOnSource(t *testing.T) {
	routes := mustParse(t, "http://localhost:8080/api to 9090")
	r := routes[0]
	if r.Src.Protocol != HTTP {
		t.Errorf("expected http protocol, got %v", r.Src.Protocol)
	}
	if r.Src.Listener != (Listener{Host: "localhost", Port: 8080}) {
		t.Errorf("unexpected listener: %+v", r.Src.Listener)
	}
}

func TestParseTCPRoute(t *testing.T) {
	routes := mustParse(t, "tcp://2222 to 1.2.3.4:22")
	r := routes[0]
	if r.Src.Protocol != TCP {
		t.Errorf("expected tcp protocol, got %v", r.Src.Protocol)
	}
	tc, ok := r.Dst.(TCPUpstream)
	if !ok {
		t.Fatalf("expected TCPUpstream, got %T", r.Dst)
	}
	if tc.Host != "1.2.3.4" || tc.Port != 22 {
		t.Errorf("unexpected tcp upstream: %+v", tc)
	}
}

func TestParseStatusCodeAndNothingDestinations(t *testing.T) {
	routes := mustParse(t, "8080/blocked to statuscode://403 and 8080/gone to nothing")
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if sc, ok := routes[0].Dst.(StatusCodeDst); !ok || sc.Code != 403 {
		t.Errorf("expected statuscode 403, got %#v", routes[0].Dst)
	}
	if sc, ok := routes[1].Dst.(StatusCodeDst); !ok || sc.Code != 404 {
		t.Errorf("expected nothing alias (404), got %#v", routes[1].Dst)
	}
}

func TestParseNothingClauseIsDropped(t *testing.T) {
	routes := mustParse(t, "nothing and 8080 to 9090")
	if len(routes) != 1 {
		t.Fatalf("expected the bare nothing clause to be dropped, got %d routes", len(routes))
	}
	if routes[0].DeclIndex != 0 {
		t.Errorf("expected declaration index to count only emitted routes, got %d", routes[0].DeclIndex)
	}
}

func TestParseNothingSourceIsDropped(t *testing.T) {
	routes, err := Parse(splitWords("nothing to 9090 and 8080 to 9090"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected the nothing-source clause to be dropped, got %d routes", len(routes))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		phrase string
	}{
		{"unknown keyword", "8080 toward 9090"},
		{"tcp source with path", "tcp://2222/foo to 1.2.3.4:22"},
		{"duplicate variable", "8080/(id)/(id) to 9090"},
		{"undeclared destination variable", "8080/api to https://some.site/(missing)"},
		{"tcp dest on http src", "8080 to tcp://1.2.3.4:22"},
		{"http dest on tcp src", "tcp://2222 to 9090/foo"},
		{"missing port on source", "localhost to 9090"},
		{"status code out of range", "8080 to statuscode://999"},
		{"unknown destination scheme", "8080 to ftp://files.example:21"},
		{"unknown source scheme", "https://8080 to 9090"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(splitWords(tc.phrase)); err == nil {
				t.Fatalf("Parse(%q): expected error, got none", tc.phrase)
			}
		})
	}
}
