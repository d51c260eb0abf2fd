package mongoleaf

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ikmak/mongoleaf/bsonx"
)

// batchSource is the buffered batch transport behind a Cursor. The driver
// cursor satisfies it through driverBatch; tests substitute fakes.
type batchSource interface {
	Next(ctx context.Context) bool
	Current() bson.Raw
	Err() error
	Close(ctx context.Context) error
}

// driverBatch adapts *mongo.Cursor to batchSource.
type driverBatch struct {
	cur *mongo.Cursor
}

func (b driverBatch) Next(ctx context.Context) bool   { return b.cur.Next(ctx) }
func (b driverBatch) Current() bson.Raw               { return b.cur.Current }
func (b driverBatch) Err() error                      { return b.cur.Err() }
func (b driverBatch) Close(ctx context.Context) error { return b.cur.Close(ctx) }

// Cursor is a lazy, forward-only sequence of documents produced by
// Collection.Find. Constructing a Cursor performs no I/O; the query
// round-trip happens on the first call to Next, and later batches are
// fetched transparently as the caller advances. A Cursor is never
// restartable: re-querying requires calling Find again.
//
// Typical usage:
//
//	cur := coll.Find(filter)
//	defer cur.Close(ctx)
//	for cur.Next(ctx) {
//		doc := cur.Current()
//		// ...
//	}
//	if err := cur.Err(); err != nil {
//		return err
//	}
//
// A decode or transport failure observed mid-stream surfaces at the
// failing advance via Err and is terminal; documents already delivered
// remain valid.
type Cursor struct {
	// run performs the deferred query round-trip, returning the batch
	// transport and the connection it is bound to.
	run func(ctx context.Context) (batchSource, *Connection, error)

	src     batchSource
	conn    *Connection
	started bool
	current bsonx.Doc
	err     error
}

func newCursor(coll *Collection, filter bsonx.Doc) *Cursor {
	return &Cursor{
		run: func(ctx context.Context) (batchSource, *Connection, error) {
			conn := coll.db.client.connection()
			cur, err := coll.driver().Find(ctx, orEmpty(filter))
			if err != nil {
				err = classify(err)
				conn.observe(err)
				return nil, nil, err
			}
			return driverBatch{cur: cur}, conn, nil
		},
	}
}

// Next advances the cursor. It returns true when the next document is
// available through Current, and false on exhaustion or failure; the two
// are distinguished by Err.
func (c *Cursor) Next(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.err != nil {
		return false
	}

	if !c.started {
		c.started = true
		src, conn, err := c.run(ctx)
		if err != nil {
			c.err = err
			return false
		}
		c.src = src
		c.conn = conn
	}

	if !c.src.Next(ctx) {
		if err := c.src.Err(); err != nil {
			c.err = classify(err)
			c.conn.observe(c.err)
		}
		return false
	}

	var raw bson.D
	if err := bson.Unmarshal(c.src.Current(), &raw); err != nil {
		c.err = decodeErr(err)
		return false
	}
	doc, err := bsonx.FromD(raw)
	if err != nil {
		c.err = decodeErr(err)
		return false
	}
	c.current = doc
	return true
}

// Current returns the document produced by the most recent successful
// Next. It is invalid before the first Next.
func (c *Cursor) Current() bsonx.Doc { return c.current }

// Decode unmarshals the current document into val using the driver's
// decoding rules, for callers that want struct mapping instead of the
// bsonx document model.
func (c *Cursor) Decode(val interface{}) error {
	if c.src == nil || len(c.src.Current()) == 0 {
		return decodeErr(errors.New("cursor has no current document"))
	}
	if err := bson.Unmarshal(c.src.Current(), val); err != nil {
		return decodeErr(err)
	}
	return nil
}

// Err returns the terminal error of the cursor, if any. It is nil after
// plain exhaustion.
func (c *Cursor) Err() error { return c.err }

// Close releases the server-side cursor, if one was opened.
func (c *Cursor) Close(ctx context.Context) error {
	if c.src == nil {
		return nil
	}
	if err := c.src.Close(ctx); err != nil {
		return connectionErr(err)
	}
	return nil
}

// All exhausts the cursor, returning every remaining document, and closes
// it.
func (c *Cursor) All(ctx context.Context) ([]bsonx.Doc, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() { _ = c.Close(ctx) }()

	var docs []bsonx.Doc
	for c.Next(ctx) {
		docs = append(docs, c.Current())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
