package validators

import "go.mongodb.org/mongo-driver/bson"

var idString = bson.M{
	"bsonType":  "string",
	"minLength": 1,
	"maxLength": 64,
}

var clock = bson.M{
	"bsonType": "string",
	"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
}

// dayHours matches one row of a weekly schedule.
var dayHours = bson.M{
	"bsonType": "object",
	"required": []string{"weekday"},
	"properties": bson.M{
		"weekday": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 6},
		"open":    clock,
		"close":   clock,
		"closed":  bson.M{"bsonType": "bool"},
	},
}

var weeklySchedule = bson.M{
	"bsonType": "array",
	"maxItems": 7,
	"items":    dayHours,
}

var BusinessValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "name", "hours"},
		"properties": bson.M{
			"_id": idString,
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"time_zone":  bson.M{"bsonType": "string"},
			"hours":      weeklySchedule,
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var CustomerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "business_id", "name"},
		"properties": bson.M{
			"_id":         idString,
			"business_id": idString,
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{1,14}$`,
			},
		},
	},
}
