package validators

import "go.mongodb.org/mongo-driver/bson"

var WaitlistValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"user_id",
			"requested_tickets",
			"status",
			"request_date",
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

			"requested_tickets": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  10,
			},

			"status": bson.M{
				"enum": []string{"waiting", "notified", "converted"},
			},

			"request_date": bson.M{
				"bsonType": "date",
			},

			"notification_sent_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
