package validators

import "go.mongodb.org/mongo-driver/bson"

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"carId",
			"userId",
			"rating",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"carId":  legacyID,
			"userId": legacyID,

			"rating": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  1,
				"maximum":  5,
			},

			"comment": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
