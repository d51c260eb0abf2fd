// Package bsonx provides an ordered, type-safe document model for the
// values exchanged with MongoDB. A Doc is an ordered slice of key/value
// elements and can be constructed literally:
//
//	doc := bsonx.Doc{
//		{"name", bsonx.String("omg")},
//		{"count", bsonx.Int64(2)},
//	}
//
// Key order is preserved through encoding and decoding. Duplicate keys
// within a single Doc are rejected by Validate and by encoding.
//
// Doc implements bson.Marshaler, so values of this package can be handed
// directly to the underlying driver. Decoded driver values are converted
// back with ReadDoc or FromD without losing element order.
package bsonx

import (
	"errors"
	"fmt"
)

// Type represents the BSON types addressable through this package. The
// values match the BSON specification's type bytes.
type Type byte

// The subset of BSON types used at this API surface.
const (
	TypeDouble           Type = 0x01
	TypeString           Type = 0x02
	TypeEmbeddedDocument Type = 0x03
	TypeArray            Type = 0x04
	TypeBinary           Type = 0x05
	TypeObjectID         Type = 0x07
	TypeBoolean          Type = 0x08
	TypeDateTime         Type = 0x09
	TypeNull             Type = 0x0A
	TypeInt32            Type = 0x10
	TypeInt64            Type = 0x12
)

// String implements the fmt.Stringer interface.
func (t Type) String() string {
	switch t {
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeEmbeddedDocument:
		return "embedded document"
	case TypeArray:
		return "array"
	case TypeBinary:
		return "binary"
	case TypeObjectID:
		return "objectID"
	case TypeBoolean:
		return "boolean"
	case TypeDateTime:
		return "UTC datetime"
	case TypeNull:
		return "null"
	case TypeInt32:
		return "32-bit integer"
	case TypeInt64:
		return "64-bit integer"
	default:
		return "invalid"
	}
}

// ErrEmptyKey indicates that an element with an empty key was encountered.
var ErrEmptyKey = errors.New("bsonx: empty document key")

// ElementTypeError indicates that a method to obtain a BSON value an
// incorrect type was called on a bson.Value.
type ElementTypeError struct {
	Method string
	Type   Type
}

// Error implements the error interface.
func (ete ElementTypeError) Error() string {
	return "Call of " + ete.Method + " on " + ete.Type.String() + " type"
}

// DuplicateKeyError indicates that the same key appears more than once in
// a single document.
type DuplicateKeyError struct {
	Key string
}

// Error implements the error interface.
func (dke DuplicateKeyError) Error() string {
	return fmt.Sprintf("bsonx: duplicate key %q in document", dke.Key)
}

// UnsupportedTypeError indicates that a Go value with no bsonx
// representation was encountered during conversion.
type UnsupportedTypeError struct {
	Value interface{}
}

// Error implements the error interface.
func (ute UnsupportedTypeError) Error() string {
	return fmt.Sprintf("bsonx: cannot represent value of type %T", ute.Value)
}
