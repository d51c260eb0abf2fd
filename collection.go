package mongoleaf

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ikmak/mongoleaf/bsonx"
)

// Collection is a named record set bound to a Database. Like Database it
// is a pure reference handle scoped to the owning Client.
type Collection struct {
	db   *Database
	name string
}

func newCollection(db *Database, name string) *Collection {
	return &Collection{db: db, name: name}
}

// Name returns the name of the collection.
func (coll *Collection) Name() string { return coll.name }

// Database returns the Database the collection handle was created from.
func (coll *Collection) Database() *Database { return coll.db }

func (coll *Collection) driver() *mongo.Collection {
	return coll.db.driver().Collection(coll.name)
}

// InsertOneResult is the outcome of a successful InsertOne.
type InsertOneResult struct {
	// InsertedID is the _id of the inserted document, generated by the
	// driver when the document carried none.
	InsertedID bsonx.Val
}

// InsertManyResult is the outcome of a successful InsertMany.
type InsertManyResult struct {
	InsertedIDs []bsonx.Val
}

// UpdateResult is the outcome of a successful Update.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// InsertOne inserts a single document. Duplicate keys, write-concern
// failures, and other server rejections surface as ErrProtocol; transport
// failures as ErrConnection (after the driver's idempotent retry policy,
// when enabled).
func (coll *Collection) InsertOne(ctx context.Context, doc bsonx.Doc) (*InsertOneResult, error) {
	conn := coll.db.client.connection()
	res, err := coll.driver().InsertOne(ctx, doc)
	if err != nil {
		err = classify(err)
		conn.observe(err)
		return nil, err
	}
	id, err := bsonx.FromInterface(res.InsertedID)
	if err != nil {
		return nil, decodeErr(err)
	}
	return &InsertOneResult{InsertedID: id}, nil
}

// InsertMany inserts the given documents in order.
func (coll *Collection) InsertMany(ctx context.Context, docs []bsonx.Doc) (*InsertManyResult, error) {
	conn := coll.db.client.connection()
	payload := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, doc)
	}
	res, err := coll.driver().InsertMany(ctx, payload)
	if err != nil {
		err = classify(err)
		conn.observe(err)
		return nil, err
	}
	ids := make([]bsonx.Val, 0, len(res.InsertedIDs))
	for _, raw := range res.InsertedIDs {
		id, err := bsonx.FromInterface(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		ids = append(ids, id)
	}
	return &InsertManyResult{InsertedIDs: ids}, nil
}

// Count returns the number of documents matching the filter. A nil or
// empty filter counts every document in the collection.
func (coll *Collection) Count(ctx context.Context, filter bsonx.Doc) (int64, error) {
	conn := coll.db.client.connection()
	n, err := coll.driver().CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		err = classify(err)
		conn.observe(err)
		return 0, err
	}
	return n, nil
}

// Find returns a Cursor over the documents matching the filter. A nil or
// empty filter matches everything; equality filters match documents whose
// field equals the given value. No network I/O happens until the Cursor
// is first advanced.
func (coll *Collection) Find(filter bsonx.Doc) *Cursor {
	return newCursor(coll, filter)
}

// Delete removes the documents matching the selector and returns how many
// were removed.
func (coll *Collection) Delete(ctx context.Context, selector bsonx.Doc) (int64, error) {
	conn := coll.db.client.connection()
	res, err := coll.driver().DeleteMany(ctx, orEmpty(selector))
	if err != nil {
		err = classify(err)
		conn.observe(err)
		return 0, err
	}
	return res.DeletedCount, nil
}

// Update applies the update document to the first document matching the
// selector.
func (coll *Collection) Update(ctx context.Context, selector, update bsonx.Doc) (*UpdateResult, error) {
	conn := coll.db.client.connection()
	res, err := coll.driver().UpdateOne(ctx, orEmpty(selector), update)
	if err != nil {
		err = classify(err)
		conn.observe(err)
		return nil, err
	}
	return &UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// Drop removes the collection and its documents.
func (coll *Collection) Drop(ctx context.Context) error {
	conn := coll.db.client.connection()
	err := classify(coll.driver().Drop(ctx))
	conn.observe(err)
	return err
}

// orEmpty normalizes a nil filter to the match-everything document.
func orEmpty(filter bsonx.Doc) bsonx.Doc {
	if filter == nil {
		return bsonx.Doc{}
	}
	return filter
}
