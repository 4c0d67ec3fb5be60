package model

// Provider is owned by an external directory; only the fields the scheduler
// reads are mapped.
type Provider struct {
	ID        string `json:"id" bson:"_id"`
	Name      string `json:"name,omitempty" bson:"name"`
	Specialty string `json:"specialty,omitempty" bson:"specialty"`
	WorkStart string `json:"work_start" bson:"work_start"`
	WorkEnd   string `json:"work_end" bson:"work_end"`
}
