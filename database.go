package mongoleaf

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ikmak/mongoleaf/bsonx"
)

// Database is a named namespace bound to a Client. It is a pure reference
// handle: construction performs no I/O, and it carries no state beyond
// its name and parent. Its lifetime ends with the owning Client's.
type Database struct {
	client *Client
	name   string
}

func newDatabase(client *Client, name string) *Database {
	return &Database{client: client, name: name}
}

// Name returns the name of the database.
func (db *Database) Name() string { return db.name }

// Client returns the Client the database handle was created from.
func (db *Database) Client() *Client { return db.client }

// Collection returns a handle on the named collection in this database.
func (db *Database) Collection(name string) *Collection {
	return newCollection(db, name)
}

// driver returns the driver-level handle on the bound Connection.
func (db *Database) driver() *mongo.Database {
	return db.client.connection().database(db.name)
}

// Drop destroys the database and all of its collections. It is
// irreversible; the server may recreate the namespace implicitly on the
// next write. A server rejection (such as missing permissions) surfaces
// as ErrProtocol.
func (db *Database) Drop(ctx context.Context) error {
	conn := db.client.connection()
	err := classify(db.driver().Drop(ctx))
	conn.observe(err)
	return err
}

// RunCommand executes a raw database command and returns the decoded
// reply document.
func (db *Database) RunCommand(ctx context.Context, cmd bsonx.Doc) (bsonx.Doc, error) {
	return db.client.connection().RunCommand(ctx, db.name, cmd)
}
