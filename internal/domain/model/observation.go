package model

import "time"

// Observation is a record a subscriber saw for the first time.
type Observation struct {
	Record    Record    `json:"record"`
	Publisher string    `json:"publisher"`
	SchemaID  string    `json:"schemaId"`
	SeenAt    time.Time `json:"seenAt"`
}
