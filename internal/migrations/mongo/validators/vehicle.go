package validators

import "go.mongodb.org/mongo-driver/bson"

var VehicleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"owner",
			"name",
			"category",
			"price_per_km",
			"travelled",
			"active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"owner": userSnapshotSchema,

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"category": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"price_per_km": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"fine_percentage": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"travelled": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
