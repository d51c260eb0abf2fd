package mongoleaf

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/ikmak/mongoleaf/bsonx"
)

// transport is the lifecycle-facing surface of the underlying driver
// session. *mongo.Client satisfies it; tests substitute fakes.
type transport interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

var nextConnectionID atomic.Uint64

// Connection is a single logical session to the database. It wraps one
// driver client pinned to one server session (driver-side pool size of 1),
// so operations issued through a Connection execute in issue order. A
// Connection is owned by its Pool: callers obtain one transiently through
// a Client and never hold it directly. Once discarded it is never reused.
type Connection struct {
	id   uint64
	sess transport
	cli  *mongo.Client // nil when sess is not a real driver client
	log  zerolog.Logger

	unhealthy atomic.Bool
	closed    atomic.Bool
}

func newConnection(sess transport, cli *mongo.Client, log zerolog.Logger) *Connection {
	id := nextConnectionID.Add(1)
	return &Connection{
		id:   id,
		sess: sess,
		cli:  cli,
		log:  log.With().Uint64("connection_id", id).Logger(),
	}
}

// ID returns the pool-unique identifier of this connection.
func (c *Connection) ID() uint64 { return c.id }

// Alive reports whether the connection is healthy and not yet discarded.
func (c *Connection) Alive() bool {
	return !c.unhealthy.Load() && !c.closed.Load()
}

func (c *Connection) markUnhealthy() {
	if c.unhealthy.CompareAndSwap(false, true) {
		c.log.Debug().Msg("connection marked unhealthy")
	}
}

// observe records the outcome of an operation executed on this
// connection. Transport-level failures poison the connection so that
// release discards it instead of returning it to the idle set.
func (c *Connection) observe(err error) {
	if errors.Is(err, ErrConnection) {
		c.markUnhealthy()
	}
}

// Ping verifies liveness with a server round-trip.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.sess.Ping(ctx, nil); err != nil {
		c.markUnhealthy()
		return connectionErr(err)
	}
	return nil
}

// RunCommand executes a raw database command against the named database
// and returns the decoded reply.
func (c *Connection) RunCommand(ctx context.Context, database string, cmd bsonx.Doc) (bsonx.Doc, error) {
	res := c.cli.Database(database).RunCommand(ctx, cmd)

	var reply bson.D
	if err := res.Decode(&reply); err != nil {
		err = classify(err)
		c.observe(err)
		return nil, err
	}
	doc, err := bsonx.FromD(reply)
	if err != nil {
		return nil, decodeErr(err)
	}
	return doc, nil
}

// close tears down the underlying session. The connection must not be
// used afterwards.
func (c *Connection) close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.log.Debug().Msg("closing connection")
	if err := c.sess.Disconnect(ctx); err != nil {
		return connectionErr(err)
	}
	return nil
}

// database returns the driver handle for the named database on this
// connection's session.
func (c *Connection) database(name string) *mongo.Database {
	return c.cli.Database(name)
}

// dialFunc opens a new Connection. The Pool uses it whenever the idle set
// cannot satisfy a checkout.
type dialFunc func(ctx context.Context) (*Connection, error)

// newDialer returns a dialFunc that connects with bounded exponential
// backoff and validates the session with a ping before handing it out.
func newDialer(optsFn func() *options.ClientOptions, connectTimeout time.Duration, retries int, log zerolog.Logger) dialFunc {
	return func(ctx context.Context) (*Connection, error) {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 250 * time.Millisecond
		bo.MaxInterval = 2 * time.Second

		attempt := 0
		cli, err := backoff.RetryWithData(func() (*mongo.Client, error) {
			attempt++
			cli, err := mongo.Connect(optsFn())
			if err != nil {
				log.Debug().Err(err).Int("attempt", attempt).Msg("dial failed")
				return nil, err
			}

			pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			defer cancel()
			if err := cli.Ping(pingCtx, nil); err != nil {
				_ = cli.Disconnect(context.Background())
				log.Debug().Err(err).Int("attempt", attempt).Msg("handshake ping failed")
				return nil, err
			}
			return cli, nil
		}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx))
		if err != nil {
			return nil, connectionErr(err)
		}

		conn := newConnection(cli, cli, log)
		conn.log.Debug().Msg("opened connection")
		return conn, nil
	}
}
