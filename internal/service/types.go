// Package service contains business logic for the plat-rawan platform.
package service

// Marker is a hazard location ("lokasi rawan").
// Huma reads the tags for OpenAPI and validation; the JSON names are the
// wire contract shared with existing clients.
type Marker struct {
	ID          int64   `json:"id" doc:"Unique hazard location identifier" example:"12"`
	Name        string  `json:"namaLokasi" doc:"Display name" example:"Pasar Baru"`
	Latitude    float64 `json:"latitude" doc:"Latitude in degrees" example:"-6.5714"`
	Longitude   float64 `json:"longitude" doc:"Longitude in degrees" example:"107.7636"`
	Description string  `json:"deskripsi,omitempty" doc:"Free text notes" example:"Kabel listrik semrawut"`
}

// MarkerInput is the create/update body.
type MarkerInput struct {
	Name        string  `json:"namaLokasi" required:"true" minLength:"1" maxLength:"200" doc:"Display name" example:"Pasar Baru"`
	Description string  `json:"deskripsi,omitempty" maxLength:"2000" doc:"Free text notes" example:"Kabel listrik semrawut"`
	Latitude    float64 `json:"latitude" required:"true" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"-6.5714"`
	Longitude   float64 `json:"longitude" required:"true" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"107.7636"`
}

// Event represents a resource mutation.
type Event struct {
	Resource string // e.g. "lokasi-rawan"
	Action   string // "created", "updated", "deleted"
	ID       int64  // resource ID
}
