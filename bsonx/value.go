package bsonx

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Val represents a BSON value of one of the types in this package's type
// universe. The zero value is the null value.
type Val struct {
	t Type

	b    bool
	i64  int64 // int32, int64, and datetime (milliseconds) payloads
	f64  float64
	s    string
	sub  byte
	data []byte
	oid  bson.ObjectID
	arr  Arr
	doc  Doc
}

// Null constructs a Val of type null.
func Null() Val { return Val{t: TypeNull} }

// Boolean constructs a Val of type boolean.
func Boolean(b bool) Val { return Val{t: TypeBoolean, b: b} }

// Int32 constructs a Val of type 32-bit integer.
func Int32(i int32) Val { return Val{t: TypeInt32, i64: int64(i)} }

// Int64 constructs a Val of type 64-bit integer.
func Int64(i int64) Val { return Val{t: TypeInt64, i64: i} }

// Double constructs a Val of type double.
func Double(f float64) Val { return Val{t: TypeDouble, f64: f} }

// String constructs a Val of type string.
func String(s string) Val { return Val{t: TypeString, s: s} }

// Binary constructs a Val of type binary with the given subtype.
func Binary(subtype byte, data []byte) Val {
	return Val{t: TypeBinary, sub: subtype, data: data}
}

// ObjectID constructs a Val of type objectID.
func ObjectID(oid bson.ObjectID) Val { return Val{t: TypeObjectID, oid: oid} }

// Time constructs a Val of type UTC datetime. BSON datetimes have
// millisecond precision, so sub-millisecond components are truncated.
func Time(t time.Time) Val { return Val{t: TypeDateTime, i64: t.UnixMilli()} }

// Array constructs a Val of type array.
func Array(a Arr) Val { return Val{t: TypeArray, arr: a} }

// Document constructs a Val of type embedded document.
func Document(d Doc) Val { return Val{t: TypeEmbeddedDocument, doc: d} }

// Type returns the BSON type of this value. The zero Val reports null.
func (v Val) Type() Type {
	if v.t == 0 {
		return TypeNull
	}
	return v.t
}

// IsNull reports whether this value is of type null.
func (v Val) IsNull() bool { return v.Type() == TypeNull }

// Boolean returns the boolean payload. It panics if the value is of any
// other type.
func (v Val) Boolean() bool {
	if v.t != TypeBoolean {
		panic(ElementTypeError{Method: "bsonx.Val.Boolean", Type: v.Type()})
	}
	return v.b
}

// BooleanOK is the error-free variant of Boolean. The second return value
// is false if the value is of a different type.
func (v Val) BooleanOK() (bool, bool) {
	if v.t != TypeBoolean {
		return false, false
	}
	return v.b, true
}

// Int32 returns the 32-bit integer payload. It panics if the value is of
// any other type.
func (v Val) Int32() int32 {
	if v.t != TypeInt32 {
		panic(ElementTypeError{Method: "bsonx.Val.Int32", Type: v.Type()})
	}
	return int32(v.i64)
}

// Int32OK is the error-free variant of Int32.
func (v Val) Int32OK() (int32, bool) {
	if v.t != TypeInt32 {
		return 0, false
	}
	return int32(v.i64), true
}

// Int64 returns the 64-bit integer payload. It panics if the value is of
// any other type.
func (v Val) Int64() int64 {
	if v.t != TypeInt64 {
		panic(ElementTypeError{Method: "bsonx.Val.Int64", Type: v.Type()})
	}
	return v.i64
}

// Int64OK is the error-free variant of Int64.
func (v Val) Int64OK() (int64, bool) {
	if v.t != TypeInt64 {
		return 0, false
	}
	return v.i64, true
}

// AsInt64 returns the payload of a 32-bit or 64-bit integer value widened
// to int64. The second return value is false for all other types.
func (v Val) AsInt64() (int64, bool) {
	switch v.t {
	case TypeInt32, TypeInt64:
		return v.i64, true
	default:
		return 0, false
	}
}

// Double returns the double payload. It panics if the value is of any
// other type.
func (v Val) Double() float64 {
	if v.t != TypeDouble {
		panic(ElementTypeError{Method: "bsonx.Val.Double", Type: v.Type()})
	}
	return v.f64
}

// DoubleOK is the error-free variant of Double.
func (v Val) DoubleOK() (float64, bool) {
	if v.t != TypeDouble {
		return 0, false
	}
	return v.f64, true
}

// StringValue returns the string payload. It panics if the value is of
// any other type. It is named StringValue to avoid colliding with the
// String method that implements fmt.Stringer.
func (v Val) StringValue() string {
	if v.t != TypeString {
		panic(ElementTypeError{Method: "bsonx.Val.StringValue", Type: v.Type()})
	}
	return v.s
}

// StringValueOK is the error-free variant of StringValue.
func (v Val) StringValueOK() (string, bool) {
	if v.t != TypeString {
		return "", false
	}
	return v.s, true
}

// Binary returns the binary subtype and payload. It panics if the value
// is of any other type.
func (v Val) Binary() (byte, []byte) {
	if v.t != TypeBinary {
		panic(ElementTypeError{Method: "bsonx.Val.Binary", Type: v.Type()})
	}
	return v.sub, v.data
}

// BinaryOK is the error-free variant of Binary.
func (v Val) BinaryOK() (byte, []byte, bool) {
	if v.t != TypeBinary {
		return 0, nil, false
	}
	return v.sub, v.data, true
}

// ObjectID returns the objectID payload. It panics if the value is of any
// other type.
func (v Val) ObjectID() bson.ObjectID {
	if v.t != TypeObjectID {
		panic(ElementTypeError{Method: "bsonx.Val.ObjectID", Type: v.Type()})
	}
	return v.oid
}

// ObjectIDOK is the error-free variant of ObjectID.
func (v Val) ObjectIDOK() (bson.ObjectID, bool) {
	if v.t != TypeObjectID {
		return bson.ObjectID{}, false
	}
	return v.oid, true
}

// Time returns the datetime payload as a time.Time in UTC. It panics if
// the value is of any other type.
func (v Val) Time() time.Time {
	if v.t != TypeDateTime {
		panic(ElementTypeError{Method: "bsonx.Val.Time", Type: v.Type()})
	}
	return time.UnixMilli(v.i64).UTC()
}

// TimeOK is the error-free variant of Time.
func (v Val) TimeOK() (time.Time, bool) {
	if v.t != TypeDateTime {
		return time.Time{}, false
	}
	return time.UnixMilli(v.i64).UTC(), true
}

// Array returns the array payload. It panics if the value is of any other
// type.
func (v Val) Array() Arr {
	if v.t != TypeArray {
		panic(ElementTypeError{Method: "bsonx.Val.Array", Type: v.Type()})
	}
	return v.arr
}

// ArrayOK is the error-free variant of Array.
func (v Val) ArrayOK() (Arr, bool) {
	if v.t != TypeArray {
		return nil, false
	}
	return v.arr, true
}

// Document returns the embedded document payload. It panics if the value
// is of any other type.
func (v Val) Document() Doc {
	if v.t != TypeEmbeddedDocument {
		panic(ElementTypeError{Method: "bsonx.Val.Document", Type: v.Type()})
	}
	return v.doc
}

// DocumentOK is the error-free variant of Document.
func (v Val) DocumentOK() (Doc, bool) {
	if v.t != TypeEmbeddedDocument {
		return nil, false
	}
	return v.doc, true
}

// Equal compares this value to v2 and returns true if they are equal.
// Documents and arrays compare element-wise in order.
func (v Val) Equal(v2 Val) bool {
	if v.Type() != v2.Type() {
		return false
	}
	switch v.Type() {
	case TypeNull:
		return true
	case TypeBoolean:
		return v.b == v2.b
	case TypeInt32, TypeInt64, TypeDateTime:
		return v.i64 == v2.i64
	case TypeDouble:
		return v.f64 == v2.f64
	case TypeString:
		return v.s == v2.s
	case TypeBinary:
		return v.sub == v2.sub && bytes.Equal(v.data, v2.data)
	case TypeObjectID:
		return v.oid == v2.oid
	case TypeArray:
		return v.arr.Equal(v2.arr)
	case TypeEmbeddedDocument:
		return v.doc.Equal(v2.doc)
	default:
		return false
	}
}

// Interface returns the value converted to the underlying driver's
// representation: nil, bool, int32, int64, float64, string, bson.Binary,
// bson.ObjectID, bson.DateTime, bson.A, or bson.D.
func (v Val) Interface() interface{} {
	switch v.Type() {
	case TypeNull:
		return nil
	case TypeBoolean:
		return v.b
	case TypeInt32:
		return int32(v.i64)
	case TypeInt64:
		return v.i64
	case TypeDateTime:
		return bson.DateTime(v.i64)
	case TypeDouble:
		return v.f64
	case TypeString:
		return v.s
	case TypeBinary:
		return bson.Binary{Subtype: v.sub, Data: v.data}
	case TypeObjectID:
		return v.oid
	case TypeArray:
		return v.arr.asA()
	case TypeEmbeddedDocument:
		return v.doc.asD()
	default:
		return nil
	}
}

// String implements the fmt.Stringer interface.
func (v Val) String() string {
	switch v.Type() {
	case TypeNull:
		return "null"
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeInt32, TypeInt64:
		return strconv.FormatInt(v.i64, 10)
	case TypeDateTime:
		return time.UnixMilli(v.i64).UTC().Format(time.RFC3339Nano)
	case TypeDouble:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case TypeString:
		return strconv.Quote(v.s)
	case TypeBinary:
		return fmt.Sprintf("Binary(%d, %x)", v.sub, v.data)
	case TypeObjectID:
		return fmt.Sprintf("ObjectID(%q)", v.oid.Hex())
	case TypeArray:
		return v.arr.String()
	case TypeEmbeddedDocument:
		return v.doc.String()
	default:
		return "invalid"
	}
}

// Arr represents an ordered BSON array.
type Arr []Val

// Equal compares this array to arr2 element-wise, in order.
func (a Arr) Equal(arr2 Arr) bool {
	if len(a) != len(arr2) {
		return false
	}
	for idx := range a {
		if !a[idx].Equal(arr2[idx]) {
			return false
		}
	}
	return true
}

func (a Arr) asA() bson.A {
	out := make(bson.A, 0, len(a))
	for _, v := range a {
		out = append(out, v.Interface())
	}
	return out
}

// String implements the fmt.Stringer interface.
func (a Arr) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for idx, v := range a {
		if idx != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
