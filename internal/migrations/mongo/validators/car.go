package validators

import "go.mongodb.org/mongo-driver/bson"

// Legacy seed ids may be strings or integers.
var legacyID = bson.M{
	"bsonType": bson.A{"string", "int", "long", "double"},
}

var CarValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"make",
			"model",
			"year",
			"price_per_day",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"id": legacyID,

			"make": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"model": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"year": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  1886,
				"maximum":  2100,
			},

			"price_per_day": bson.M{
				"bsonType":         bson.A{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
			},

			"images": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"category": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
