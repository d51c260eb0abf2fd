package mongoleaf

import (
	"context"
	"sync"
)

// Client is a caller-held handle to one checked-out Connection. It is
// obtained from Pool.Pop and must be released exactly once; Release is
// idempotent, so deferring it covers every exit path:
//
//	client, err := pool.Pop(ctx)
//	if err != nil {
//		return err
//	}
//	defer client.Release()
//
// A Client (and every Database or Collection derived from it) must not be
// used after Release; doing so violates the ownership contract and
// panics. A Client is not safe for concurrent use; for parallelism, give
// each goroutine its own Client.
type Client struct {
	pool *Pool

	mu       sync.Mutex
	conn     *Connection
	released bool
}

func newClient(pool *Pool, conn *Connection) *Client {
	return &Client{pool: pool, conn: conn}
}

// connection returns the checked-out Connection, panicking if the Client
// has been released.
func (c *Client) connection() *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		panic("mongoleaf: use of Client after Release")
	}
	return c.conn
}

// Release returns the Connection to the Pool. Healthy connections rejoin
// the idle set; connections poisoned by a transport failure are discarded
// and lazily replaced. Calling Release more than once is a no-op.
func (c *Client) Release() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.pool.checkIn(conn)
}

// Ping verifies the checked-out Connection with a server round-trip.
func (c *Client) Ping(ctx context.Context) error {
	return c.connection().Ping(ctx)
}

// Database returns a handle on the named database bound to this Client's
// Connection. No I/O happens at construction.
func (c *Client) Database(name string) *Database {
	return newDatabase(c, name)
}

// DefaultDatabase returns a handle on the database configured at connect
// time: the Builder's DefaultDatabase, the URI path, or "test".
func (c *Client) DefaultDatabase() *Database {
	return newDatabase(c, c.pool.DefaultDatabaseName())
}
