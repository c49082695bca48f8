package validators

import "go.mongodb.org/mongo-driver/bson"

var BidValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"vehicle_id",
			"owner_id",
			"vehicle",
			"renter",
			"owner",
			"amount",
			"start_date",
			"end_date",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"vehicle_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"vehicle": bson.M{
				"bsonType": "object",
				"required": []string{"vehicle_id", "name", "price_per_km"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"price_per_km": bson.M{
						"bsonType": []string{"double", "int", "long", "decimal"},
						"minimum":  0,
					},
					"fine_percentage": bson.M{
						"bsonType": []string{"double", "int", "long", "decimal"},
						"minimum":  0,
					},
				},
			},

			"renter": userSnapshotSchema,
			"owner":  userSnapshotSchema,

			"amount": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"end_date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"enum": []string{"pending", "accepted", "rejected"},
			},

			"source_event_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var userSnapshotSchema = bson.M{
	"bsonType": "object",
	"required": []string{"name", "email"},
	"properties": bson.M{
		"name": bson.M{
			"bsonType":  "string",
			"minLength": 2,
			"maxLength": 100,
		},
		"email": bson.M{
			"bsonType": "string",
			"pattern":  `^[^@\s]+@[^@\s]+\.[^@\s]+$`,
		},
		"phone": bson.M{
			"bsonType": "string",
		},
	},
}
