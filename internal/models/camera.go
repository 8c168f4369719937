package models

import "time"

const (
	CameraOnline      = "online"
	CameraOffline     = "offline"
	CameraMaintenance = "maintenance"
)

// Camera is a CCTV feed registered with the association.
type Camera struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	StreamURL string    `json:"stream_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CameraRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Location  string `json:"location" validate:"required,max=200"`
	StreamURL string `json:"stream_url" validate:"required,url"`
	Status    string `json:"status" validate:"omitempty,oneof=online offline maintenance"`
}
