// Package pool implements the process-wide upstream connection pool, the
// only shared mutable state in the proxy besides the immutable route
// table. It is sharded to keep acquisition effectively lock-free under
// load, using rendezvous (highest random weight) hashing to pick a shard
// for an upstream authority.
package pool

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
)

// Authority identifies an upstream by scheme, host and port, the key a
// pooled connection is filed under.
type Authority struct {
	Scheme string
	Host   string
	Port   int
}

func (a Authority) key() string {
	return fmt.Sprintf("%s://%s:%d", a.Scheme, a.Host, a.Port)
}

func (a Authority) addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Dialer opens a new upstream connection. httpproxy supplies a
// net.Dialer's DialContext; the TCP dispatcher dials on its own and does
// not use the pool.
type Dialer func(ctx context.Context, network, addr string) (net.Conn, error)

type idleConn struct {
	conn     net.Conn
	returned time.Time
}

type shard struct {
	mu   sync.Mutex
	idle map[string][]idleConn
}

// Pool is a sharded, keyed pool of idle upstream connections. Acquire
// either hands back a recently-returned connection or dials a new one;
// Release returns a connection for reuse; connections idle past
// staleAfter are discarded on next acquisition rather than handed out.
type Pool struct {
	shards     []*shard
	ring       *rendezvous.Rendezvous
	staleAfter time.Duration
	dial       Dialer
}

// New builds a pool with shardCount shards (a small power of two is
// typical; 16 matches common connections-per-core sizing). staleAfter
// bounds how long an idle connection may sit in a shard before it is
// discarded instead of reused.
func New(shardCount int, staleAfter time.Duration, dial Dialer) *Pool {
	if shardCount < 1 {
		shardCount = 1
	}
	nodes := make([]string, shardCount)
	shards := make([]*shard, shardCount)
	for i := range shards {
		nodes[i] = strconv.Itoa(i)
		shards[i] = &shard{idle: make(map[string][]idleConn)}
	}
	return &Pool{
		shards:     shards,
		ring:       rendezvous.New(nodes, xxhash.Sum64String),
		staleAfter: staleAfter,
		dial:       dial,
	}
}

func (p *Pool) shardFor(key string) *shard {
	idx, err := strconv.Atoi(p.ring.Lookup(key))
	if err != nil || idx < 0 || idx >= len(p.shards) {
		idx = 0
	}
	return p.shards[idx]
}

// Acquire returns an idle connection for a, discarding any that have gone
// stale, or dials a new one if the shard has nothing usable.
func (p *Pool) Acquire(ctx context.Context, a Authority) (net.Conn, error) {
	key := a.key()
	sh := p.shardFor(key)

	sh.mu.Lock()
	list := sh.idle[key]
	for len(list) > 0 {
		last := list[len(list)-1]
		list = list[:len(list)-1]
		if time.Since(last.returned) > p.staleAfter {
			last.conn.Close()
			continue
		}
		sh.idle[key] = list
		sh.mu.Unlock()
		return last.conn, nil
	}
	sh.idle[key] = list
	sh.mu.Unlock()

	return p.dial(ctx, "tcp", a.addr())
}

// Release returns conn to the pool for future reuse by requests to the
// same authority.
func (p *Pool) Release(a Authority, conn net.Conn) {
	key := a.key()
	sh := p.shardFor(key)
	sh.mu.Lock()
	sh.idle[key] = append(sh.idle[key], idleConn{conn: conn, returned: time.Now()})
	sh.mu.Unlock()
}

// Discard closes conn instead of returning it, for use after an error that
// leaves the connection's state unknown.
func (p *Pool) Discard(conn net.Conn) {
	conn.Close()
}

// Close closes every idle connection held by the pool. Called once on
// process shutdown.
func (p *Pool) Close() {
	for _, sh := range p.shards {
		sh.mu.Lock()
		for _, conns := range sh.idle {
			for _, c := range conns {
				c.conn.Close()
			}
		}
		sh.idle = make(map[string][]idleConn)
		sh.mu.Unlock()
	}
}
