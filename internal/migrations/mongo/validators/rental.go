package validators

import "go.mongodb.org/mongo-driver/bson"

var RentalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"carId",
			"startDate",
			"endDate",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"id":     legacyID,
			"carId":  legacyID,
			"userId": legacyID,

			// Seed data carries timestamps as well as bare dates.
			"startDate": bson.M{
				"bsonType": bson.A{"string", "date"},
			},

			"endDate": bson.M{
				"bsonType": bson.A{"string", "date"},
			},

			"totalDays": bson.M{
				"bsonType": bson.A{"int", "long", "double"},
				"minimum":  0,
			},

			"pricePerDay": bson.M{
				"bsonType": bson.A{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"totalPrice": bson.M{
				"bsonType": bson.A{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{"active", "completed", "cancelled"},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"cancelledAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var RentalLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"owner",
			"expiresAt",
		},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"owner": bson.M{
				"bsonType": "string",
			},
			"expiresAt": bson.M{
				"bsonType": "date",
			},
			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
