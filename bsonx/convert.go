package bsonx

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromD converts a driver document into a Doc, preserving element order.
// Values of types outside this package's type universe produce an
// UnsupportedTypeError.
func FromD(d bson.D) (Doc, error) {
	out := make(Doc, 0, len(d))
	for _, e := range d {
		val, err := FromInterface(e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Elem{Key: e.Key, Value: val})
	}
	return out, nil
}

// FromInterface converts a single decoded driver value into a Val.
func FromInterface(v interface{}) (Val, error) {
	switch tv := v.(type) {
	case nil, bson.Null:
		return Null(), nil
	case bool:
		return Boolean(tv), nil
	case int32:
		return Int32(tv), nil
	case int64:
		return Int64(tv), nil
	case int:
		return Int64(int64(tv)), nil
	case float64:
		return Double(tv), nil
	case string:
		return String(tv), nil
	case bson.Binary:
		return Binary(tv.Subtype, tv.Data), nil
	case []byte:
		return Binary(0x00, tv), nil
	case bson.ObjectID:
		return ObjectID(tv), nil
	case bson.DateTime:
		return Val{t: TypeDateTime, i64: int64(tv)}, nil
	case time.Time:
		return Time(tv), nil
	case bson.D:
		doc, err := FromD(tv)
		if err != nil {
			return Null(), err
		}
		return Document(doc), nil
	case bson.A:
		arr := make(Arr, 0, len(tv))
		for _, av := range tv {
			val, err := FromInterface(av)
			if err != nil {
				return Null(), err
			}
			arr = append(arr, val)
		}
		return Array(arr), nil
	default:
		return Null(), UnsupportedTypeError{Value: v}
	}
}
