package bsonx

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Elem represents a single document element: a key paired with a value.
type Elem struct {
	Key   string
	Value Val
}

// Equal compares e to e2 and returns true if they are equal.
func (e Elem) Equal(e2 Elem) bool {
	return e.Key == e2.Key && e.Value.Equal(e2.Value)
}

// String implements the fmt.Stringer interface.
func (e Elem) String() string {
	return strconv.Quote(e.Key) + ": " + e.Value.String()
}

// Doc is an ordered BSON document: a slice of elements whose order is
// preserved through encoding and decoding. Doc values can be constructed
// with composite literals:
//
//	bsonx.Doc{{"name", bsonx.String("foo")}}
type Doc []Elem

// Append adds an element to the end of the document and returns the
// updated document. It does not check for duplicate keys; Validate and
// encoding do.
func (d Doc) Append(key string, val Val) Doc {
	return append(d, Elem{Key: key, Value: val})
}

// Set replaces the value of the first element with the given key, or
// appends a new element if the key is not present, and returns the
// updated document.
func (d Doc) Set(key string, val Val) Doc {
	for idx := range d {
		if d[idx].Key == key {
			d[idx].Value = val
			return d
		}
	}
	return append(d, Elem{Key: key, Value: val})
}

// Delete removes the first element with the given key and returns the
// updated document. It is a no-op if the key is not present.
func (d Doc) Delete(key string) Doc {
	for idx := range d {
		if d[idx].Key == key {
			return append(d[:idx], d[idx+1:]...)
		}
	}
	return d
}

// Lookup returns the value of the first element with the given key, or
// the null value if the key is not present.
func (d Doc) Lookup(key string) Val {
	val, _ := d.LookupOK(key)
	return val
}

// LookupOK returns the value of the first element with the given key. The
// second return value is false if the key is not present.
func (d Doc) LookupOK(key string) (Val, bool) {
	for _, elem := range d {
		if elem.Key == key {
			return elem.Value, true
		}
	}
	return Null(), false
}

// LookupElement returns the first element with the given key. The second
// return value is false if the key is not present.
func (d Doc) LookupElement(key string) (Elem, bool) {
	for _, elem := range d {
		if elem.Key == key {
			return elem, true
		}
	}
	return Elem{}, false
}

// Keys returns the document's keys in order.
func (d Doc) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, elem := range d {
		keys = append(keys, elem.Key)
	}
	return keys
}

// Equal compares this document to d2. Documents are equal when they hold
// equal elements in the same order.
func (d Doc) Equal(d2 Doc) bool {
	if len(d) != len(d2) {
		return false
	}
	for idx := range d {
		if !d[idx].Equal(d2[idx]) {
			return false
		}
	}
	return true
}

// Copy returns a shallow copy of the document. The element slice is
// duplicated; nested documents and arrays are shared.
func (d Doc) Copy() Doc {
	out := make(Doc, len(d))
	copy(out, d)
	return out
}

// Validate checks that no key is empty and that no key appears more than
// once, recursing into embedded documents and arrays.
func (d Doc) Validate() error {
	seen := make(map[string]struct{}, len(d))
	for _, elem := range d {
		if elem.Key == "" {
			return ErrEmptyKey
		}
		if _, ok := seen[elem.Key]; ok {
			return DuplicateKeyError{Key: elem.Key}
		}
		seen[elem.Key] = struct{}{}

		if err := elem.Value.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (v Val) validate() error {
	switch v.Type() {
	case TypeEmbeddedDocument:
		return v.doc.Validate()
	case TypeArray:
		for _, av := range v.arr {
			if err := av.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// String implements the fmt.Stringer interface.
func (d Doc) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for idx, elem := range d {
		if idx != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(elem.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// asD converts the document to the driver's ordered document type. It
// assumes the document has been validated.
func (d Doc) asD() bson.D {
	out := make(bson.D, 0, len(d))
	for _, elem := range d {
		out = append(out, bson.E{Key: elem.Key, Value: elem.Value.Interface()})
	}
	return out
}

// MarshalBSON implements the bson.Marshaler interface, letting a Doc be
// passed directly to the underlying driver.
func (d Doc) MarshalBSON() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return bson.Marshal(d.asD())
}

// UnmarshalBSON implements the bson.Unmarshaler interface.
func (d *Doc) UnmarshalBSON(data []byte) error {
	doc, err := ReadDoc(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// ReadDoc decodes a BSON byte slice into a Doc, preserving element order.
func ReadDoc(data []byte) (Doc, error) {
	var raw bson.D
	if err := bson.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return FromD(raw)
}
