// Package httpproxy is the HTTP dispatcher: per request it runs the
// matcher and resolver over one listener's route slice, then forwards to
// an HTTP upstream, serves a file, or answers a fixed status, streaming
// bodies throughout and never buffering them in full.
package httpproxy

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/arkd0ng/weave/match"
	weavepool "github.com/arkd0ng/weave/pool"
	"github.com/arkd0ng/weave/resolve"
	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/routetable"
	"github.com/arkd0ng/weave/weaveerr"
	"github.com/arkd0ng/weave/weavelog"
)

// Handler serves every HTTP request accepted on one listener.
type Handler struct {
	listener   route.Listener
	routes     []route.Route
	transports *transports
	logger     *weavelog.Logger
}

// NewFactory builds a listenmgr.HTTPHandlerFactory-compatible constructor:
// one Handler per distinct HTTP listener, each holding only the routes
// bound to it so the matcher never walks another listener's table. The
// returned close func releases every idle pooled connection and should run
// once, after the listener manager has drained.
func NewFactory(table *routetable.Table, pool *weavepool.Pool, logger *weavelog.Logger) (factory func(route.Listener) http.Handler, closeIdle func()) {
	if logger == nil {
		logger = weavelog.Default()
	}
	tr := newTransports(pool)
	factory = func(l route.Listener) http.Handler {
		return &Handler{
			listener:   l,
			routes:     table.ForListener(l),
			transports: tr,
			logger:     logger,
		}
	}
	return factory, tr.closeIdle
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := match.SplitPath(r.URL.Path)
	result, ok := match.Match(h.routes, segments)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	if isUpgrade(r) {
		// Upgrade/WebSocket is not supported. Reject rather than silently
		// hang a half-spliced connection.
		http.Error(w, "protocol upgrade not supported", http.StatusNotImplemented)
		return
	}

	dst, err := resolve.Resolve(result, r.URL.RawQuery)
	if err != nil {
		h.logger.Warn("resolve failed", "listener", h.listener.String(), "path", r.URL.Path, "err", err.Error())
		status := http.StatusInternalServerError
		if kind, ok := weaveerr.KindOf(err); ok && kind == weaveerr.KindFile {
			// A ".." smuggled in through a captured segment is a client
			// fault, not a server one (forbidden traversal, not a resolver
			// failure).
			status = http.StatusForbidden
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	switch d := dst.(type) {
	case resolve.Upstream:
		h.forwardUpstream(w, r, d)
	case resolve.FileDestination:
		serveFile(w, r, d)
	case resolve.Status:
		w.WriteHeader(d.Code)
	default:
		h.logger.Warn("unknown destination type", "listener", h.listener.String())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) forwardUpstream(w http.ResponseWriter, r *http.Request, dst resolve.Upstream) {
	outURL := &url.URL{
		Scheme:   dst.Scheme,
		Host:     net.JoinHostPort(dst.Host, strconv.Itoa(dst.Port)),
		Path:     dst.Path,
		RawQuery: dst.Query,
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, outURL.String(), r.Body)
	if err != nil {
		h.logger.Warn("failed to build upstream request", "url", outURL.String(), "err", err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	outReq.ContentLength = r.ContentLength
	outReq.Host = outURL.Host

	copyHeaders(outReq.Header, r.Header)
	setForwardedHeaders(outReq.Header, r)

	resp, err := h.transports.forScheme(dst.Scheme).RoundTrip(outReq)
	if err != nil {
		h.logger.Warn("upstream request failed", "host", dst.Host, "port", dst.Port, "path", dst.Path, "err", err.Error())
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	respHeader := w.Header()
	copyHeaders(respHeader, resp.Header)
	for name := range resp.Trailer {
		respHeader.Add("Trailer", name)
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already flushed; the only recourse is to stop and
		// let the client observe a truncated body.
		h.logger.Warn("upstream response copy failed", "host", dst.Host, "port", dst.Port, "err", err.Error())
		return
	}

	for name, values := range resp.Trailer {
		for _, v := range values {
			respHeader.Add(name, v)
		}
	}
}
