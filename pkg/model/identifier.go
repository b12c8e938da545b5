package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegacyID is the "id" field carried by seed data and file records.
// It keeps the kind it was read with: a JSON number stays a number and
// a string (slug or digits) stays a string.
type LegacyID struct {
	str   string
	num   int64
	isNum bool
}

func StringID(s string) LegacyID {
	return LegacyID{str: s}
}

func NumericID(n int64) LegacyID {
	return LegacyID{num: n, isNum: true}
}

func (id LegacyID) IsZero() bool {
	return !id.isNum && id.str == ""
}

func (id LegacyID) IsNumeric() bool {
	return id.isNum
}

func (id LegacyID) Int64() (int64, bool) {
	if id.isNum {
		return id.num, true
	}
	n, err := strconv.ParseInt(id.str, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id LegacyID) String() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Equal compares kind and value; 7 and "7" are different LegacyIDs.
// Use Aliases to match across kinds.
func (id LegacyID) Equal(other LegacyID) bool {
	if id.isNum != other.isNum {
		return false
	}
	if id.isNum {
		return id.num == other.num
	}
	return id.str == other.str
}

// Aliases returns the id together with its cross-kind twin ("7" <-> 7).
func (id LegacyID) Aliases() []LegacyID {
	if id.IsZero() {
		return nil
	}
	out := []LegacyID{id}
	if id.isNum {
		return append(out, StringID(id.String()))
	}
	if n, ok := id.Int64(); ok {
		out = append(out, NumericID(n))
	}
	return out
}

// BSONValue returns the value as it would be stored in a document.
func (id LegacyID) BSONValue() any {
	if id.isNum {
		return id.num
	}
	return id.str
}

func (id LegacyID) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	if id.str == "" {
		return []byte("null"), nil
	}
	return json.Marshal(id.str)
}

func (id *LegacyID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = LegacyID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	n, err := parseJSONNumber(string(data))
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = NumericID(n)
	return nil
}

func (id LegacyID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(id.BSONValue())
}

func (id *LegacyID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*id = StringID(raw.StringValue())
	case bsontype.Int32:
		*id = NumericID(int64(raw.Int32()))
	case bsontype.Int64:
		*id = NumericID(raw.Int64())
	case bsontype.Double:
		f := raw.Double()
		if f != math.Trunc(f) {
			return fmt.Errorf("id %v is not an integer", f)
		}
		*id = NumericID(int64(f))
	case bsontype.ObjectID:
		*id = StringID(raw.ObjectID().Hex())
	case bsontype.Null, bsontype.Undefined:
		*id = LegacyID{}
	default:
		return fmt.Errorf("unsupported id type %s", t)
	}
	return nil
}

func parseJSONNumber(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}

// Representation names one way a record may be addressed.
type Representation int

const (
	ByNative Representation = iota
	ByString
	ByNumeric
)

var (
	CarLookupOrder    = []Representation{ByNative, ByString, ByNumeric}
	UserLookupOrder   = []Representation{ByNative, ByNumeric, ByString}
	RentalLookupOrder = []Representation{ByNative, ByString, ByNumeric}
)

// Identifier is a raw identifier parsed once at the boundary into every
// representation it can stand for. Resolvers walk a lookup order and try
// each representation the identifier supports.
type Identifier struct {
	raw        string
	native     primitive.ObjectID
	hasNative  bool
	numeric    int64
	hasNumeric bool
}

func ParseIdentifier(raw string) Identifier {
	raw = strings.TrimSpace(raw)
	id := Identifier{raw: raw}
	if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
		id.native = oid
		id.hasNative = true
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		id.numeric = n
		id.hasNumeric = true
	}
	return id
}

func (i Identifier) String() string {
	return i.raw
}

func (i Identifier) IsEmpty() bool {
	return i.raw == ""
}

func (i Identifier) Native() (primitive.ObjectID, bool) {
	return i.native, i.hasNative
}

func (i Identifier) Numeric() (int64, bool) {
	return i.numeric, i.hasNumeric
}

// Supports reports whether the identifier has a value for rep.
func (i Identifier) Supports(rep Representation) bool {
	switch rep {
	case ByNative:
		return i.hasNative
	case ByNumeric:
		return i.hasNumeric
	case ByString:
		return i.raw != ""
	}
	return false
}

// Matches reports whether a record stored with objectID and legacy id is
// addressed by i under rep.
func (i Identifier) Matches(rep Representation, objectID primitive.ObjectID, legacy LegacyID) bool {
	switch rep {
	case ByNative:
		return i.hasNative && !objectID.IsZero() && objectID == i.native
	case ByString:
		return i.raw != "" && !legacy.IsNumeric() && legacy.String() == i.raw
	case ByNumeric:
		return i.hasNumeric && legacy.IsNumeric() && legacy.num == i.numeric
	}
	return false
}

// aliasesOf collects the identifiers a record can be referenced by from
// other records: its ObjectID hex (and the ObjectID value itself is
// handled by the stores) plus both kinds of its legacy id.
func aliasesOf(objectID primitive.ObjectID, legacy LegacyID) []LegacyID {
	var out []LegacyID
	seen := map[string]bool{}
	add := func(id LegacyID) {
		key := fmt.Sprintf("%t:%s", id.isNum, id.String())
		if id.IsZero() || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, id)
	}
	if !objectID.IsZero() {
		add(StringID(objectID.Hex()))
	}
	for _, a := range legacy.Aliases() {
		add(a)
	}
	return out
}

// ContainsAlias reports whether id equals any of aliases.
func ContainsAlias(aliases []LegacyID, id LegacyID) bool {
	for _, a := range aliases {
		if a.Equal(id) {
			return true
		}
	}
	return false
}

// Resolve tries each representation of order that id supports and returns
// the first record find reports. find is called at most once per
// representation.
func Resolve[T any](id Identifier, order []Representation, find func(rep Representation) (T, bool, error)) (T, bool, error) {
	var zero T
	for _, rep := range order {
		if !id.Supports(rep) {
			continue
		}
		rec, ok, err := find(rep)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return rec, true, nil
		}
	}
	return zero, false, nil
}
