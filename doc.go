// Package mongoleaf is a pooled client-side access layer for MongoDB. It
// manages a bounded set of live connections and exposes a small object
// model — Client, Database, Collection, Cursor — whose operations borrow
// pooled connections. The wire protocol, authentication, and BSON byte
// format are delegated to go.mongodb.org/mongo-driver/v2; mongoleaf owns
// checkout, liveness, backpressure, and recovery from broken connections.
//
// # Usage
//
//	pool, err := mongoleaf.New().
//		URI("mongodb://localhost:27017/app").
//		MaxPoolSize(8).
//		Connect(ctx)
//	if err != nil {
//		return err
//	}
//	defer pool.Close(ctx)
//
//	client, err := pool.Pop(ctx)
//	if err != nil {
//		return err
//	}
//	defer client.Release()
//
//	coll := client.DefaultDatabase().Collection("events")
//	_, err = coll.InsertOne(ctx, bsonx.Doc{{"name", bsonx.String("omg")}})
//
// If no connection string is configured, Connect falls back to the
// MONGODB_URI environment variable and fails with ErrConfiguration when
// that is unset too.
//
// # Concurrency
//
// All operations are synchronous and may block on network I/O.
// Parallelism comes from sizing the pool and giving each goroutine its
// own Client via Pop. The Pool is the only shared mutable component; a
// Pop against a fully checked-out pool blocks until a Client is released
// or the acquire timeout elapses. Operations issued through one Client
// execute in issue order on a single connection; no ordering holds across
// Clients.
//
// # Errors
//
// Every failure wraps one of the package sentinels (ErrConfiguration,
// ErrConnection, ErrPoolExhausted, ErrPoolClosed, ErrProtocol, ErrDecode)
// and is classified with errors.Is. The only panics are ownership-contract
// violations: using a Client, or a handle derived from it, after Release.
package mongoleaf
