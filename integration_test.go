package mongoleaf_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikmak/mongoleaf"
	"github.com/ikmak/mongoleaf/bsonx"
)

// envRSURI names a replica-set deployment with majority read concern
// enabled, used by the replicated-configuration tests.
const envRSURI = "MONGOLEAF_RS_URI"

func connectRandom(t *testing.T, builder *mongoleaf.Builder) *mongoleaf.Pool {
	t.Helper()
	if os.Getenv(mongoleaf.EnvURI) == "" {
		t.Skipf("set %s to run integration tests", mongoleaf.EnvURI)
	}

	ctx := context.Background()
	pool, err := builder.ConnectRandomDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		client, err := pool.Pop(ctx)
		if err == nil {
			_ = client.DefaultDatabase().Drop(ctx)
			client.Release()
		}
		_ = pool.Close(ctx)
	})
	return pool
}

func TestIntegrationInsertCountFindDestroy(t *testing.T) {
	pool := connectRandom(t, mongoleaf.New())
	ctx := context.Background()

	client, err := pool.Pop(ctx)
	require.NoError(t, err)
	defer client.Release()

	coll := client.DefaultDatabase().Collection("people")

	res, err := coll.InsertOne(ctx, bsonx.Doc{{Key: "name", Value: bsonx.String("omg")}})
	require.NoError(t, err)
	assert.Equal(t, bsonx.TypeObjectID, res.InsertedID.Type())

	_, err = coll.InsertOne(ctx, bsonx.Doc{{Key: "name", Value: bsonx.String("foo")}})
	require.NoError(t, err)

	count, err := coll.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	docs, err := coll.Find(bsonx.Doc{{Key: "name", Value: bsonx.String("foo")}}).All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "foo", docs[0].Lookup("name").StringValue())

	require.NoError(t, client.DefaultDatabase().Drop(ctx))

	count, err = coll.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	empty, err := coll.Find(nil).All(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIntegrationCursorExhaustion(t *testing.T) {
	pool := connectRandom(t, mongoleaf.New())
	ctx := context.Background()

	client, err := pool.Pop(ctx)
	require.NoError(t, err)
	defer client.Release()

	coll := client.DefaultDatabase().Collection("seq")
	for i := 0; i < 3; i++ {
		_, err := coll.InsertOne(ctx, bsonx.Doc{{Key: "i", Value: bsonx.Int64(int64(i))}})
		require.NoError(t, err)
	}

	cur := coll.Find(nil)
	defer cur.Close(ctx)

	var seen int
	for cur.Next(ctx) {
		_, ok := cur.Current().LookupOK("i")
		assert.True(t, ok)
		seen++
	}
	assert.Equal(t, 3, seen)
	assert.NoError(t, cur.Err(), "exhaustion is not an error")
	assert.False(t, cur.Next(ctx), "cursor is forward-only and not restartable")
}

func TestIntegrationInsertManyUpdateDelete(t *testing.T) {
	pool := connectRandom(t, mongoleaf.New())
	ctx := context.Background()

	client, err := pool.Pop(ctx)
	require.NoError(t, err)
	defer client.Release()

	coll := client.DefaultDatabase().Collection("fruit")

	res, err := coll.InsertMany(ctx, []bsonx.Doc{
		{{Key: "name", Value: bsonx.String("first")}},
		{{Key: "name", Value: bsonx.String("second")}},
		{{Key: "name", Value: bsonx.String("third")}},
		{{Key: "name", Value: bsonx.String("fourth")}},
	})
	require.NoError(t, err)
	assert.Len(t, res.InsertedIDs, 4)

	upd, err := coll.Update(ctx,
		bsonx.Doc{{Key: "name", Value: bsonx.String("first")}},
		bsonx.Doc{{Key: "$set", Value: bsonx.Document(bsonx.Doc{{Key: "name", Value: bsonx.String("renamed")}})}},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)
	assert.Equal(t, int64(1), upd.ModifiedCount)

	deleted, err := coll.Delete(ctx, bsonx.Doc{{Key: "name", Value: bsonx.String("renamed")}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := coll.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, coll.Drop(ctx))
}

func TestIntegrationRunCommand(t *testing.T) {
	pool := connectRandom(t, mongoleaf.New())
	ctx := context.Background()

	client, err := pool.Pop(ctx)
	require.NoError(t, err)
	defer client.Release()

	reply, err := client.DefaultDatabase().RunCommand(ctx, bsonx.Doc{{Key: "ping", Value: bsonx.Int32(1)}})
	require.NoError(t, err)

	okVal, found := reply.LookupOK("ok")
	require.True(t, found)
	assert.Equal(t, bsonx.TypeDouble, okVal.Type())
	assert.Equal(t, float64(1), okVal.Double())
}

func TestIntegrationConcurrentClients(t *testing.T) {
	pool := connectRandom(t, mongoleaf.New().MaxPoolSize(4).AcquireTimeout(10*time.Second))
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			for i := 0; i < perWorker; i++ {
				client, err := pool.Pop(ctx)
				if err != nil {
					errs <- err
					return
				}
				_, err = client.DefaultDatabase().Collection("load").
					InsertOne(ctx, bsonx.Doc{{Key: "worker", Value: bsonx.Int64(int64(w))}})
				client.Release()
				if err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}(w)
	}
	for w := 0; w < workers; w++ {
		require.NoError(t, <-errs)
	}

	client, err := pool.Pop(ctx)
	require.NoError(t, err)
	defer client.Release()

	count, err := client.DefaultDatabase().Collection("load").Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), count)
}

func TestIntegrationReplicaSetMajorityReads(t *testing.T) {
	rsURI := os.Getenv(envRSURI)
	if rsURI == "" {
		t.Skipf("set %s to run replica-set integration tests", envRSURI)
	}

	ctx := context.Background()
	pool, err := mongoleaf.New().
		URI(rsURI).
		ReadConcernMajority().
		ConnectRandomDatabase(ctx)
	require.NoError(t, err)
	defer pool.Close(ctx)

	client, err := pool.Pop(ctx)
	require.NoError(t, err)
	defer client.Release()
	defer client.DefaultDatabase().Drop(ctx)

	coll := client.DefaultDatabase().Collection("majority")
	_, err = coll.InsertOne(ctx, bsonx.Doc{{Key: "name", Value: bsonx.String("omg")}})
	require.NoError(t, err)

	count, err := coll.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
