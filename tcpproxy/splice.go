// Package tcpproxy is the raw TCP dispatcher: for each accepted connection
// on a tcp listener, dial the single upstream registered for that listener
// and splice both directions until either side closes, with no framing
// interpretation.
package tcpproxy

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/routetable"
	"github.com/arkd0ng/weave/weavelog"
)

// DialTimeout bounds how long connecting to the upstream may take before
// the inbound connection is closed.
const DialTimeout = 10 * time.Second

// NewFactory builds a listenmgr.TCPHandlerFactory-compatible constructor:
// one upstream target per tcp listener, read once from the route table
// (routetable.Build already enforced that a tcp listener carries at most
// one route).
func NewFactory(table *routetable.Table, logger *weavelog.Logger) func(route.Listener) func(net.Conn) {
	if logger == nil {
		logger = weavelog.Default()
	}
	return func(l route.Listener) func(net.Conn) {
		upstream, ok := upstreamFor(table, l)
		if !ok {
			// routetable.Build's invariants guarantee a tcp listener has
			// exactly one route with a TCPUpstream destination; reaching
			// here means that invariant was bypassed somewhere upstream.
			logger.Warn("tcp listener has no upstream route", "listener", l.String())
			return func(conn net.Conn) { conn.Close() }
		}
		return func(conn net.Conn) {
			handle(conn, upstream, logger)
		}
	}
}

func upstreamFor(table *routetable.Table, l route.Listener) (route.TCPUpstream, bool) {
	for _, r := range table.ForListener(l) {
		if up, ok := r.Dst.(route.TCPUpstream); ok {
			return up, true
		}
	}
	return route.TCPUpstream{}, false
}

func handle(conn net.Conn, upstream route.TCPUpstream, logger *weavelog.Logger) {
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), DialTimeout)
	defer cancel()

	var d net.Dialer
	upConn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(upstream.Host, strconv.Itoa(upstream.Port)))
	if err != nil {
		logger.Warn("tcp upstream dial failed", "host", upstream.Host, "port", upstream.Port, "err", err.Error())
		return
	}
	defer upConn.Close()

	splice(conn, upConn)
}

// splice copies both directions of conn <-> upstream concurrently and
// returns once both directions have drained, closing each write side as
// its counterpart's read side reaches EOF or errors.
func splice(a, b net.Conn) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		io.Copy(b, a)
		closeWrite(b)
	}()
	go func() {
		defer wg.Done()
		io.Copy(a, b)
		closeWrite(a)
	}()

	wg.Wait()
}

// closeWrite half-closes the write side of conn if it supports it (every
// *net.TCPConn does), letting the peer observe EOF without tearing down the
// read side still in flight on the other goroutine.
func closeWrite(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
}

