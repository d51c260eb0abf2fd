package bsonx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestValAccessors(t *testing.T) {
	t.Run("boolean", func(t *testing.T) {
		v := Boolean(true)
		assert.Equal(t, TypeBoolean, v.Type())
		assert.True(t, v.Boolean())
		got, ok := v.BooleanOK()
		assert.True(t, ok)
		assert.True(t, got)

		_, ok = String("nope").BooleanOK()
		assert.False(t, ok)
	})

	t.Run("integers", func(t *testing.T) {
		assert.Equal(t, int32(7), Int32(7).Int32())
		assert.Equal(t, int64(-9), Int64(-9).Int64())

		w, ok := Int32(7).AsInt64()
		assert.True(t, ok)
		assert.Equal(t, int64(7), w)
		_, ok = Double(7).AsInt64()
		assert.False(t, ok)
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "omg", String("omg").StringValue())
		got, ok := String("omg").StringValueOK()
		assert.True(t, ok)
		assert.Equal(t, "omg", got)
	})

	t.Run("binary", func(t *testing.T) {
		sub, data := Binary(0x04, []byte{1, 2}).Binary()
		assert.Equal(t, byte(0x04), sub)
		assert.Equal(t, []byte{1, 2}, data)
	})

	t.Run("time truncates to milliseconds", func(t *testing.T) {
		at := time.Date(2020, 5, 1, 12, 30, 0, 1_500_999, time.UTC)
		got := Time(at).Time()
		assert.Equal(t, at.Truncate(time.Millisecond), got)
	})

	t.Run("zero value is null", func(t *testing.T) {
		var v Val
		assert.Equal(t, TypeNull, v.Type())
		assert.True(t, v.IsNull())
	})
}

func TestValAccessorPanicsOnWrongType(t *testing.T) {
	require.PanicsWithError(t,
		ElementTypeError{Method: "bsonx.Val.Int64", Type: TypeString}.Error(),
		func() { String("x").Int64() },
	)
	require.Panics(t, func() { Int64(1).Document() })
}

func TestValEqual(t *testing.T) {
	oid := bson.NewObjectID()
	cases := []struct {
		name string
		a, b Val
		want bool
	}{
		{"null == null", Null(), Null(), true},
		{"int32 != int64 of same magnitude", Int32(1), Int64(1), false},
		{"objectID", ObjectID(oid), ObjectID(oid), true},
		{"binary subtype matters", Binary(0x00, []byte{1}), Binary(0x04, []byte{1}), false},
		{"arrays element-wise", Array(Arr{Int64(1), Int64(2)}), Array(Arr{Int64(1), Int64(2)}), true},
		{"array order matters", Array(Arr{Int64(1), Int64(2)}), Array(Arr{Int64(2), Int64(1)}), false},
		{
			"nested documents",
			Document(Doc{{"a", Int64(1)}}),
			Document(Doc{{"a", Int64(1)}}),
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Equal(tc.b))
		})
	}
}

func TestValInterface(t *testing.T) {
	assert.Nil(t, Null().Interface())
	assert.Equal(t, int64(3), Int64(3).Interface())
	assert.Equal(t, bson.Binary{Subtype: 0x00, Data: []byte{9}}, Binary(0x00, []byte{9}).Interface())
	assert.Equal(t,
		bson.D{{Key: "k", Value: "v"}},
		Document(Doc{{"k", String("v")}}).Interface(),
	)
	assert.Equal(t, bson.A{int32(1), "two"}, Array(Arr{Int32(1), String("two")}).Interface())
}
