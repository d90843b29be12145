// Package weaveerr provides the wrapped, kind-tagged error type used across
// weave's components (parser, table, matcher, resolver, dispatchers). Every
// runtime error that crosses a component boundary carries a Kind so callers
// can decide the right client-facing status code or process exit code
// without string-matching messages.
package weaveerr

import "fmt"

// Kind classifies an error by the stage of the pipeline that produced it,
// mirroring the error kinds enumerated in the route language and dispatch
// design (argv parsing, listener binding, request matching, destination
// resolution, upstream transport, filesystem access).
type Kind string

const (
	// KindArgv marks a malformed command-line route phrase. Reported once
	// to stderr with the offending clause index; the process exits 1.
	KindArgv Kind = "argv"
	// KindBind marks a listener that failed to bind its address. The
	// process exits 2.
	KindBind Kind = "bind"
	// KindMatch marks a request that matched no route on its listener.
	KindMatch Kind = "match"
	// KindResolve marks a failure while materializing a destination from
	// a matched route and its captures (e.g. an unresolved variable).
	KindResolve Kind = "resolve"
	// KindUpstream marks a connect or transport failure talking to an
	// HTTP or TCP upstream.
	KindUpstream Kind = "upstream"
	// KindFile marks a filesystem error (missing file, traversal
	// attempt, I/O failure) while serving a File destination.
	KindFile Kind = "file"
)

// Error is a wrapped error carrying a Kind and optional structured context
// (clause index, address, path) alongside the underlying cause.
type Error struct {
	kind    Kind
	msg     string
	context map[string]any
	cause   error
}

// New creates an Error of the given kind with no cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap creates an Error of the given kind that wraps cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// With attaches a key-value pair of context to the error and returns it,
// enabling chained construction: weaveerr.New(...).With("clause", 2).
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any, 1)
	}
	e.context[key] = value
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.msg
	for k, v := range e.context {
		msg = fmt.Sprintf("%s (%s=%v)", msg, k, v)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the wrapped cause so errors.Is/errors.As see through it.
func (e *Error) Unwrap() error {
	return e.cause
}

// Context returns a copy of the error's structured context.
func (e *Error) Context() map[string]any {
	ctx := make(map[string]any, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}
	return ctx
}

// KindOf returns the Kind classifying err if it is (or wraps) a *Error, and
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	if weaveErr, ok := err.(*Error); ok {
		return weaveErr.kind, true
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return KindOf(unwrapper.Unwrap())
	}
	return "", false
}
