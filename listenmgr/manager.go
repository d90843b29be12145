// Package listenmgr owns listener lifecycle: one acceptor per distinct
// (listener, protocol) pair in the route table, running concurrently via
// golang.org/x/sync/errgroup, with graceful shutdown on SIGINT/SIGTERM
// bounded by a grace period.
package listenmgr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arkd0ng/weave/route"
	"github.com/arkd0ng/weave/routetable"
	"github.com/arkd0ng/weave/weaveerr"
	"github.com/arkd0ng/weave/weavelog"
)

// GracePeriod bounds how long in-flight requests and connections are given
// to finish on shutdown before listeners are forced closed. Not
// configurable via argv, per the no-config-files non-goal.
const GracePeriod = 15 * time.Second

// HTTPHandlerFactory builds the http.Handler serving one HTTP listener.
type HTTPHandlerFactory func(l route.Listener) http.Handler

// TCPHandlerFactory builds the per-connection handler for one TCP
// listener.
type TCPHandlerFactory func(l route.Listener) func(net.Conn)

// Manager owns every listener's lifecycle: binding, accepting, and
// draining on shutdown.
type Manager struct {
	table       *routetable.Table
	httpHandler HTTPHandlerFactory
	tcpHandler  TCPHandlerFactory
	grace       time.Duration
	logger      *weavelog.Logger

	mu      sync.Mutex
	servers []*http.Server
	tcpLns  []net.Listener
	tcpWG   sync.WaitGroup
}

// New builds a Manager for the given table. grace is the shutdown drain
// period; pass 0 to use GracePeriod.
func New(table *routetable.Table, httpHandler HTTPHandlerFactory, tcpHandler TCPHandlerFactory, grace time.Duration, logger *weavelog.Logger) *Manager {
	if grace == 0 {
		grace = GracePeriod
	}
	if logger == nil {
		logger = weavelog.Default()
	}
	return &Manager{
		table:       table,
		httpHandler: httpHandler,
		tcpHandler:  tcpHandler,
		grace:       grace,
		logger:      logger,
	}
}

// Run binds every listener in the table and blocks until ctx is cancelled
// (the caller wires SIGINT/SIGTERM into ctx) or a listener fails fatally.
// A bind failure returns a *weaveerr.Error of KindBind immediately, without
// waiting for ctx.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var bound []net.Listener
	for listener, proto := range m.table.Listeners {
		listener, proto := listener, proto

		ln, err := net.Listen("tcp", listener.String())
		if err != nil {
			for _, b := range bound {
				b.Close()
			}
			return weaveerr.Wrap(weaveerr.KindBind, "failed to bind listener", err).
				With("listener", listener.String())
		}
		bound = append(bound, ln)
		m.logger.Info("listening", "addr", listener.String(), "protocol", string(proto))

		if proto == route.HTTP {
			srv := &http.Server{Handler: m.httpHandler(listener)}
			m.mu.Lock()
			m.servers = append(m.servers, srv)
			m.mu.Unlock()

			g.Go(func() error {
				err := srv.Serve(ln)
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return weaveerr.Wrap(weaveerr.KindBind, "http listener stopped", err).
						With("listener", listener.String())
				}
				return nil
			})
		} else {
			m.mu.Lock()
			m.tcpLns = append(m.tcpLns, ln)
			m.mu.Unlock()

			handle := m.tcpHandler(listener)
			g.Go(func() error {
				return m.acceptTCP(gctx, ln, handle)
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		m.drain()
		return nil
	})

	return g.Wait()
}

func (m *Manager) acceptTCP(ctx context.Context, ln net.Listener, handle func(net.Conn)) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		m.tcpWG.Add(1)
		go func() {
			defer m.tcpWG.Done()
			handle(conn)
		}()
	}
}

// drain stops accepting new work on every listener, then waits up to the
// configured grace period for in-flight handlers to finish before the
// process's caller forces an exit.
func (m *Manager) drain() {
	m.logger.Info("shutting down, draining in-flight connections", "grace", m.grace.String())

	ctx, cancel := context.WithTimeout(context.Background(), m.grace)
	defer cancel()

	m.mu.Lock()
	servers := append([]*http.Server(nil), m.servers...)
	tcpLns := append([]net.Listener(nil), m.tcpLns...)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, srv := range servers {
		srv := srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.Shutdown(ctx)
		}()
	}
	for _, ln := range tcpLns {
		ln.Close()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		done := make(chan struct{})
		go func() {
			m.tcpWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}()

	wg.Wait()
}
