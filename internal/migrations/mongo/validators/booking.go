package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"user_id",
			"ticket_count",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"ticket_count": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  10,
			},

			"status": bson.M{
				"enum": []string{"active", "cancelled", "attended"},
			},

			"payment_status": bson.M{
				"enum": []string{"pending", "completed"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
