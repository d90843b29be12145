package pool

import (
	"context"
	"net"
	"testing"
	"time"
)

type fakeConn struct {
	net.Conn
	closed bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestAcquireReusesReleasedConnection(t *testing.T) {
	dialCount := 0
	p := New(4, time.Minute, func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialCount++
		return &fakeConn{}, nil
	})

	a := Authority{Scheme: "http", Host: "127.0.0.1", Port: 9090}
	c1, err := p.Acquire(context.Background(), a)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(a, c1)

	c2, err := p.Acquire(context.Background(), a)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c2 != c1 {
		t.Fatal("expected the released connection to be reused")
	}
	if dialCount != 1 {
		t.Errorf("dialCount = %d, want 1", dialCount)
	}
}

func TestAcquireDiscardsStaleConnections(t *testing.T) {
	dialCount := 0
	p := New(4, time.Millisecond, func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialCount++
		return &fakeConn{}, nil
	})

	a := Authority{Scheme: "http", Host: "127.0.0.1", Port: 9090}
	c1, _ := p.Acquire(context.Background(), a)
	p.Release(a, c1)
	time.Sleep(5 * time.Millisecond)

	c2, err := p.Acquire(context.Background(), a)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c2 == c1 {
		t.Fatal("expected a stale connection to be discarded, not reused")
	}
	if fc, ok := c1.(*fakeConn); !ok || !fc.closed {
		t.Error("expected the stale connection to be closed")
	}
	if dialCount != 2 {
		t.Errorf("dialCount = %d, want 2", dialCount)
	}
}

func TestDifferentAuthoritiesDoNotShareConnections(t *testing.T) {
	p := New(4, time.Minute, func(ctx context.Context, network, addr string) (net.Conn, error) {
		return &fakeConn{}, nil
	})
	a1 := Authority{Scheme: "http", Host: "127.0.0.1", Port: 9090}
	a2 := Authority{Scheme: "http", Host: "127.0.0.1", Port: 9091}

	c1, _ := p.Acquire(context.Background(), a1)
	p.Release(a1, c1)

	c2, err := p.Acquire(context.Background(), a2)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c2 == c1 {
		t.Fatal("expected a distinct connection for a distinct authority")
	}
}
