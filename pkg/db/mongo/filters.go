package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"

	"carrental/pkg/model"
)

// IdentifierFilter builds the query for one representation of id, or
// returns false when id has no value for rep.
func IdentifierFilter(id model.Identifier, rep model.Representation) (bson.M, bool) {
	if !id.Supports(rep) {
		return nil, false
	}
	switch rep {
	case model.ByNative:
		oid, _ := id.Native()
		return bson.M{"_id": oid}, true
	case model.ByString:
		return bson.M{"id": id.String()}, true
	case model.ByNumeric:
		n, _ := id.Numeric()
		// numeric comparison matches int32, int64 and double documents
		return bson.M{"id": n}, true
	}
	return nil, false
}

// AliasValues turns record aliases into the values a reference field may
// hold: each alias as stored, plus the ObjectID form of hex aliases for
// references written by tools that kept the native type.
func AliasValues(aliases []model.LegacyID) bson.A {
	values := bson.A{}
	for _, a := range aliases {
		values = append(values, a.BSONValue())
		if a.IsNumeric() {
			continue
		}
		if oid, err := primitive.ObjectIDFromHex(a.String()); err == nil {
			values = append(values, oid)
		}
	}
	return values
}

// IsDuplicateKey reports a unique index violation.
func IsDuplicateKey(err error) bool {
	return driver.IsDuplicateKeyError(err)
}

// RecordFilter addresses a record already loaded from the store: by _id
// when it has one, otherwise by its legacy id.
func RecordFilter(objectID primitive.ObjectID, id model.LegacyID) bson.M {
	if !objectID.IsZero() {
		return bson.M{"_id": objectID}
	}
	return bson.M{"id": id.BSONValue()}
}
