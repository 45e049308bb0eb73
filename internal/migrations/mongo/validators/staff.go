package validators

import "go.mongodb.org/mongo-driver/bson"

var StaffValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "business_id", "name", "active", "schedule"},
		"properties": bson.M{
			"_id":         idString,
			"business_id": idString,
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"active":   bson.M{"bsonType": "bool"},
			"schedule": weeklySchedule,
			"service_ids": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    idString,
			},
			"time_off": bson.M{
				"bsonType": []string{"array", "null"},
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "all_day"},
					"properties": bson.M{
						"date":    bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
						"all_day": bson.M{"bsonType": "bool"},
						"start":   clock,
						"end":     clock,
						"reason":  bson.M{"bsonType": "string", "maxLength": 200},
					},
				},
			},
		},
	},
}

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "business_id", "name", "active", "duration_minutes", "max_bookings_per_slot"},
		"properties": bson.M{
			"_id":         idString,
			"business_id": idString,
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"active":                bson.M{"bsonType": "bool"},
			"duration_minutes":      bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 1440},
			"buffer_minutes":        bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 480},
			"max_bookings_per_slot": bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 1000},
			"eligible_staff_ids": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    idString,
			},
		},
	},
}
