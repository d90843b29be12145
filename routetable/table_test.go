package routetable

import (
	"testing"

	"github.com/arkd0ng/weave/route"
)

func routes(t *testing.T, phrase string) []route.Route {
	t.Helper()
	rs, err := route.Parse(splitWords(phrase))
	if err != nil {
		t.Fatalf("Parse(%q): %v", phrase, err)
	}
	return rs
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

func TestBuildPriorityOrder(t *testing.T) {
	rs := routes(t, "8080/api/(id) to 9090 and =8080/favicon.ico to ./favicon.ico and 8080/api/static to 9191 and 8080 to 9090")
	tbl, err := Build(rs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var classes []Class
	for _, r := range tbl.Routes {
		classes = append(classes, ClassOf(r.Src))
	}
	want := []Class{ClassExactNoVars, ClassPrefixNoVars, ClassPrefixNoVars, ClassPrefixVars}
	if len(classes) != len(want) {
		t.Fatalf("got %d routes, want %d", len(classes), len(want))
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Errorf("route %d: class = %v, want %v", i, classes[i], want[i])
		}
	}
	// Within ClassPrefixNoVars, "8080/api/static" (2 literals) must precede
	// the bare "8080" route (0 literals).
	if tbl.Routes[1].Src.Segments == nil || len(tbl.Routes[1].Src.Segments) == 0 {
		t.Errorf("expected the more specific prefix route first, got %+v", tbl.Routes[1].Src)
	}
}

func TestBuildRejectsConflictingProtocols(t *testing.T) {
	rs := routes(t, "8080 to 9090 and tcp://8080 to 1.2.3.4:22")
	if _, err := Build(rs); err == nil {
		t.Fatal("expected an error for conflicting protocols on one listener")
	}
}

func TestBuildRejectsMultipleTCPRoutesOnOneListener(t *testing.T) {
	rs := routes(t, "tcp://2222 to 1.2.3.4:22 and tcp://2222 to 5.6.7.8:22")
	if _, err := Build(rs); err == nil {
		t.Fatal("expected an error for multiple tcp routes on one listener")
	}
}

func TestForListener(t *testing.T) {
	rs := routes(t, "8080 to 9090 and 9999 to 1111")
	tbl, err := Build(rs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l := route.Listener{Host: "127.0.0.1", Port: 8080}
	got := tbl.ForListener(l)
	if len(got) != 1 {
		t.Fatalf("expected 1 route for %v, got %d", l, len(got))
	}
}
