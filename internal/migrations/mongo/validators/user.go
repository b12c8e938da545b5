package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"email",
			"role",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"id": legacyID,

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"role": bson.M{
				"enum": []string{"user", "admin"},
			},

			"passwordHash": bson.M{
				"bsonType": "string",
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
