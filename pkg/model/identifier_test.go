package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLegacyID_JSONKeepsKind(t *testing.T) {
	var ids []LegacyID
	require.NoError(t, json.Unmarshal([]byte(`[7, "7", "2019-ferrari-488-gtb", null, 12.0]`), &ids))

	assert.True(t, ids[0].Equal(NumericID(7)))
	assert.True(t, ids[1].Equal(StringID("7")))
	assert.False(t, ids[0].Equal(ids[1]))
	assert.Equal(t, "2019-ferrari-488-gtb", ids[2].String())
	assert.True(t, ids[3].IsZero())
	assert.True(t, ids[4].Equal(NumericID(12)))

	out, err := json.Marshal(ids[:3])
	require.NoError(t, err)
	assert.JSONEq(t, `[7, "7", "2019-ferrari-488-gtb"]`, string(out))
}

func TestLegacyID_RejectsFractionalNumber(t *testing.T) {
	var id LegacyID
	assert.Error(t, json.Unmarshal([]byte(`7.5`), &id))
}

func TestLegacyID_BSON(t *testing.T) {
	type doc struct {
		ID LegacyID `bson:"id"`
	}
	oid := primitive.NewObjectID()

	tests := []struct {
		name  string
		value any
		want  LegacyID
	}{
		{name: "int32", value: int32(7), want: NumericID(7)},
		{name: "int64", value: int64(7), want: NumericID(7)},
		{name: "double", value: 7.0, want: NumericID(7)},
		{name: "string", value: "slug", want: StringID("slug")},
		{name: "object id", value: oid, want: StringID(oid.Hex())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"id": tt.value})
			require.NoError(t, err)
			var d doc
			require.NoError(t, bson.Unmarshal(raw, &d))
			assert.True(t, tt.want.Equal(d.ID), "got %v", d.ID)
		})
	}

	raw, err := bson.Marshal(doc{ID: NumericID(9)})
	require.NoError(t, err)
	assert.Equal(t, int64(9), bson.Raw(raw).Lookup("id").Int64())
}

func TestLegacyID_Aliases(t *testing.T) {
	assert.Len(t, NumericID(7).Aliases(), 2)
	assert.True(t, ContainsAlias(NumericID(7).Aliases(), StringID("7")))
	assert.True(t, ContainsAlias(StringID("7").Aliases(), NumericID(7)))
	assert.Len(t, StringID("slug").Aliases(), 1)
	assert.Empty(t, LegacyID{}.Aliases())
}

func TestIdentifier_Matches(t *testing.T) {
	oid := primitive.NewObjectID()

	native := ParseIdentifier(oid.Hex())
	assert.True(t, native.Matches(ByNative, oid, LegacyID{}))
	assert.True(t, native.Matches(ByString, primitive.NilObjectID, StringID(oid.Hex())))
	assert.False(t, native.Supports(ByNumeric))

	numeric := ParseIdentifier(" 42 ")
	assert.Equal(t, "42", numeric.String())
	assert.True(t, numeric.Matches(ByNumeric, primitive.NilObjectID, NumericID(42)))
	assert.True(t, numeric.Matches(ByString, primitive.NilObjectID, StringID("42")))
	assert.False(t, numeric.Matches(ByString, primitive.NilObjectID, NumericID(42)))
	assert.False(t, numeric.Matches(ByNumeric, primitive.NilObjectID, StringID("42")))
	assert.False(t, numeric.Supports(ByNative))

	slug := ParseIdentifier("2019-ferrari-488-gtb")
	assert.True(t, slug.Matches(ByString, primitive.NilObjectID, StringID("2019-ferrari-488-gtb")))
	assert.False(t, slug.Supports(ByNumeric))

	assert.True(t, ParseIdentifier("").IsEmpty())
}

type stored struct {
	oid primitive.ObjectID
	id  LegacyID
}

func resolveIn(records []stored, id Identifier, order []Representation) (stored, bool) {
	rec, ok, _ := Resolve(id, order, func(rep Representation) (stored, bool, error) {
		for _, r := range records {
			if id.Matches(rep, r.oid, r.id) {
				return r, true, nil
			}
		}
		return stored{}, false, nil
	})
	return rec, ok
}

func TestResolve_EveryRepresentationFindsSameRecord(t *testing.T) {
	oid := primitive.NewObjectID()
	records := []stored{
		{id: StringID("2019-ferrari-488-gtb")},
		{oid: oid, id: NumericID(7)},
		{id: StringID("1736512345123")},
	}

	for _, raw := range []string{oid.Hex(), "7"} {
		rec, ok := resolveIn(records, ParseIdentifier(raw), CarLookupOrder)
		require.True(t, ok, raw)
		assert.Equal(t, oid, rec.oid, raw)
	}

	rec, ok := resolveIn(records, ParseIdentifier("1736512345123"), RentalLookupOrder)
	require.True(t, ok)
	assert.True(t, rec.id.Equal(StringID("1736512345123")))

	_, ok = resolveIn(records, ParseIdentifier("missing"), CarLookupOrder)
	assert.False(t, ok)
}

func TestResolve_OrderDecidesAmbiguousMatches(t *testing.T) {
	records := []stored{
		{id: NumericID(5)},
		{id: StringID("5")},
	}

	rec, ok := resolveIn(records, ParseIdentifier("5"), CarLookupOrder)
	require.True(t, ok)
	assert.False(t, rec.id.IsNumeric(), "cars try the string form before the numeric form")

	rec, ok = resolveIn(records, ParseIdentifier("5"), UserLookupOrder)
	require.True(t, ok)
	assert.True(t, rec.id.IsNumeric(), "users try the numeric form before the string form")
}
