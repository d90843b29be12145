package httpproxy

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	weavepool "github.com/arkd0ng/weave/pool"
)

// pooledConn wraps a dialed net.Conn so that closing it (done by
// http.Transport when it retires a connection) returns it to the shared
// process-wide pool instead of tearing down the socket.
type pooledConn struct {
	net.Conn
	authority weavepool.Authority
	pool      *weavepool.Pool
	once      sync.Once
	bad       bool
}

func (c *pooledConn) Close() error {
	c.once.Do(func() {
		if c.bad {
			c.pool.Discard(c.Conn)
			return
		}
		c.pool.Release(c.authority, c.Conn)
	})
	return nil
}

// Read/Write are inherited from the embedded net.Conn. A read or write
// error likely leaves the connection in an unknown state, so mark it bad
// rather than returning it to the pool on Close.
func (c *pooledConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if err != nil {
		c.bad = true
	}
	return n, err
}

func (c *pooledConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if err != nil {
		c.bad = true
	}
	return n, err
}

// transports holds one *http.Transport per upstream scheme, shared across
// every HTTP listener in the process. The "http" transport dials through
// the shared connection pool; "https" falls back to a transport with the
// standard dialer, since the pool only speaks plain TCP and has no TLS
// handshake state to reuse across acquisitions.
type transports struct {
	pool     *weavepool.Pool
	mu       sync.Mutex
	byScheme map[string]*http.Transport
}

func newTransports(pool *weavepool.Pool) *transports {
	return &transports{pool: pool, byScheme: make(map[string]*http.Transport)}
}

func (t *transports) forScheme(scheme string) *http.Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.byScheme[scheme]; ok {
		return tr
	}

	var tr *http.Transport
	if scheme == "http" {
		tr = &http.Transport{
			DialContext: t.dialPooled,
		}
	} else {
		tr = http.DefaultTransport.(*http.Transport).Clone()
	}
	t.byScheme[scheme] = tr
	return tr
}

func (t *transports) dialPooled(ctx context.Context, network, addr string) (net.Conn, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return net.Dial(network, addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return net.Dial(network, addr)
	}

	authority := weavepool.Authority{Scheme: "http", Host: host, Port: port}
	conn, err := t.pool.Acquire(ctx, authority)
	if err != nil {
		return nil, err
	}
	return &pooledConn{Conn: conn, authority: authority, pool: t.pool}, nil
}

func (t *transports) closeIdle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.byScheme {
		tr.CloseIdleConnections()
	}
}

// defaultDialer is the raw Dialer a pool.Pool is constructed with: a plain
// net.Dialer with an explicit timeout rather than relying on OS defaults.
func defaultDialer() weavepool.Dialer {
	d := &net.Dialer{Timeout: 10 * time.Second}
	return d.DialContext
}

// PoolStaleAfter bounds how long an idle pooled connection may sit before
// it is discarded instead of reused.
const PoolStaleAfter = 90 * time.Second

// PoolShards is the shard count for the rendezvous-hashed connection pool.
const PoolShards = 16

// NewPool builds the shared upstream connection pool used by every HTTP
// listener's transport.
func NewPool() *weavepool.Pool {
	return weavepool.New(PoolShards, PoolStaleAfter, defaultDialer())
}
