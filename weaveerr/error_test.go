package weaveerr

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstream, "dial upstream failed", cause).With("host", "127.0.0.1")

	kind, ok := KindOf(err)
	if !ok || kind != KindUpstream {
		t.Fatalf("KindOf() = %v, %v, want %v, true", kind, ok, KindUpstream)
	}

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}
}

func TestKindOfPlainErrorVersusWeaveError(t *testing.T) {
	inner := New(KindArgv, "unknown keyword").With("clause", 2)
	outer := errors.New("wrapper without Unwrap")

	if _, ok := KindOf(outer); ok {
		t.Fatalf("KindOf(outer) should not resolve a kind for a plain error")
	}

	kind, ok := KindOf(inner)
	if !ok || kind != KindArgv {
		t.Fatalf("KindOf(inner) = %v, %v, want %v, true", kind, ok, KindArgv)
	}
}

func TestErrorMessageIncludesContextAndCause(t *testing.T) {
	cause := errors.New("no such file")
	err := Wrap(KindFile, "serve failed", cause).With("path", "/var/www/index.html")

	got := err.Error()
	want := "serve failed (path=/var/www/index.html): no such file"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
