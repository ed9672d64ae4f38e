package models

// CameraType identifies which homescreen device array a camera came from.
type CameraType string

const (
	CameraTypeOwl      CameraType = "owl"
	CameraTypeCamera   CameraType = "camera"
	CameraTypeDoorbell CameraType = "doorbell"
)

// Camera is a normalized Blink device descriptor. The homescreen endpoint
// returns owls, cameras and doorbells as separate arrays; they are flattened
// into this one shape and tagged with their source type.
type Camera struct {
	ID        int        `json:"id"`
	NetworkID int        `json:"network_id"`
	Name      string     `json:"name"`
	Type      CameraType `json:"type"`
	Enabled   bool       `json:"enabled"`
	// Thumbnail is the media path from the homescreen response, used later
	// to resolve a thumbnail URL without re-querying.
	Thumbnail string `json:"thumbnail"`
}
