package validators

import "go.mongodb.org/mongo-driver/bson"

// AppointmentValidator mirrors model.Appointment. Clock and date shape is
// enforced here as well as in the service so imported data cannot break
// the slot index.
var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"date", "time", "duration_min", "status", "patient_name", "created_at"},
		"properties": bson.M{
			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},
			"time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},
			"duration_min": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  720,
			},
			"status": bson.M{
				"enum": []string{"pending", "confirmed", "cancelled", "completed", "no-show"},
			},
			"type":          bson.M{"bsonType": "string", "maxLength": 100},
			"provider_id":   bson.M{"bsonType": "string", "maxLength": 64},
			"patient_name":  bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"patient_phone": bson.M{"bsonType": "string"},
			"patient_email": bson.M{"bsonType": "string"},
			"notes":         bson.M{"bsonType": "string", "maxLength": 2000},
			"status_history": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"from", "to", "at"},
				},
			},
			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

var ProviderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string", "maxLength": 64},
			"name":       bson.M{"bsonType": "string"},
			"specialty":  bson.M{"bsonType": "string"},
			"work_start": bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
			"work_end":   bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
		},
	},
}

var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
