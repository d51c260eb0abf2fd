package mongoleaf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pool owns a bounded set of Connections and hands them out to concurrent
// callers wrapped in Clients. At most MaxSize connections exist at any
// time; a Pop against a fully checked-out pool blocks until a Client is
// released or the acquire timeout elapses.
//
// Pools are created by Builder.Connect.
type Pool struct {
	dial           dialFunc
	log            zerolog.Logger
	maxSize        int
	acquireTimeout time.Duration
	defaultDB      string

	// sem holds one token per checked-out connection. Dialing a
	// replacement happens under the checking-out caller's token, so the
	// live connection count never exceeds maxSize.
	sem  chan struct{}
	done chan struct{}

	mu     sync.Mutex
	idle   []*Connection
	closed bool
}

func newPool(dial dialFunc, maxSize int, acquireTimeout time.Duration, defaultDB string, log zerolog.Logger) *Pool {
	return &Pool{
		dial:           dial,
		log:            log,
		maxSize:        maxSize,
		acquireTimeout: acquireTimeout,
		defaultDB:      defaultDB,
		sem:            make(chan struct{}, maxSize),
		done:           make(chan struct{}),
	}
}

// PoolStats is a point-in-time snapshot of pool occupancy.
type PoolStats struct {
	MaxSize    int
	Idle       int
	CheckedOut int
}

// Stats returns a snapshot of the pool's occupancy. It is safe for
// concurrent use and intended for observability; the values may be stale
// by the time the caller reads them.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	return PoolStats{
		MaxSize:    p.maxSize,
		Idle:       idle,
		CheckedOut: len(p.sem),
	}
}

// Pop checks a Connection out of the pool and returns a Client wrapping
// it. If an idle connection exists it is liveness-checked and reused;
// stale ones are discarded and replaced. If the pool is below capacity a
// new connection is opened. If the pool is at capacity, Pop blocks until
// a Client is released, the acquire timeout elapses (ErrPoolExhausted),
// the context is done, or the pool is closed (ErrPoolClosed).
//
// Blocked callers are woken in unspecified order. No caller starves as
// long as checked-out Clients are released.
func (p *Pool) Pop(ctx context.Context) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case p.sem <- struct{}{}:
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, errors.Join(ErrPoolExhausted, ctx.Err())
	case <-timer.C:
		return nil, errors.Join(ErrPoolExhausted,
			fmt.Errorf("no connection became available within %s", p.acquireTimeout))
	}

	conn, err := p.lease(ctx)
	if err != nil {
		p.releaseToken()
		return nil, err
	}
	return newClient(p, conn), nil
}

// lease returns a live connection, preferring the most recently used idle
// one. The caller must hold a semaphore token.
func (p *Pool) lease(ctx context.Context) (*Connection, error) {
	for {
		conn := p.popIdle()
		if conn == nil {
			break
		}
		if err := conn.Ping(ctx); err == nil {
			return conn, nil
		}
		p.log.Debug().Uint64("connection_id", conn.ID()).Msg("discarding idle connection that failed liveness check")
		p.discard(conn)
	}

	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	return p.dial(ctx)
}

func (p *Pool) popIdle() *Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) == 0 {
		return nil
	}
	conn := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]
	return conn
}

// checkIn returns a connection after its Client releases it. Healthy
// connections rejoin the idle set; unhealthy ones are discarded and the
// freed capacity lets a future Pop dial a replacement lazily.
func (p *Pool) checkIn(conn *Connection) {
	defer p.releaseToken()

	if !conn.Alive() {
		p.discard(conn)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.discard(conn)
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// releaseToken frees one unit of pool capacity. Every caller holds
// exactly one token (Pop acquires it before lease, Client.Release
// reaches checkIn at most once), so the receive never blocks; if the
// accounting is ever broken this deadlocks rather than silently
// over-admitting.
func (p *Pool) releaseToken() {
	<-p.sem
}

// discard closes a connection asynchronously; it never rejoins the pool.
func (p *Pool) discard(conn *Connection) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.close(ctx)
	}()
}

// Close tears the pool down: it closes every idle connection, fails any
// blocked Pop with ErrPoolClosed, and causes connections released after
// this call to be closed instead of pooled. Close is idempotent. In-flight
// Clients remain usable until released; their connections are closed on
// release.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	close(p.done)
	p.log.Debug().Int("idle", len(idle)).Msg("closing pool")

	var errs []error
	for _, conn := range idle {
		if err := conn.close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultDatabaseName returns the database name Clients from this pool
// resolve DefaultDatabase against.
func (p *Pool) DefaultDatabaseName() string { return p.defaultDB }
