package models

import "time"

const (
	VisitorExpected = "expected"
	VisitorEntered  = "entered"
	VisitorExited   = "exited"
	VisitorDenied   = "denied"
)

var visitorTransitions = map[string][]string{
	VisitorExpected: {VisitorEntered, VisitorDenied},
	VisitorEntered:  {VisitorExited},
}

// Visitor is a pre-registered guest pass.
type Visitor struct {
	ID           int        `json:"id"`
	HostID       int        `json:"host_id"`
	HostName     string     `json:"host_name,omitempty"`
	Unit         string     `json:"unit,omitempty"`
	VisitorName  string     `json:"visitor_name"`
	Purpose      string     `json:"purpose"`
	VehiclePlate string     `json:"vehicle_plate,omitempty"`
	ExpectedDate time.Time  `json:"expected_date"`
	PassCode     string     `json:"pass_code"`
	Status       string     `json:"status"`
	EnteredAt    *time.Time `json:"entered_at,omitempty"`
	ExitedAt     *time.Time `json:"exited_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Versioned
}

func CanTransitionVisitor(from, to string) bool {
	for _, next := range visitorTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type CreateVisitorRequest struct {
	VisitorName  string `json:"visitor_name" validate:"required,max=120"`
	Purpose      string `json:"purpose" validate:"max=300"`
	VehiclePlate string `json:"vehicle_plate" validate:"max=20"`
	ExpectedDate string `json:"expected_date" validate:"required,datetime=2006-01-02"`
}

type UpdateVisitorStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=entered exited denied"`
	ExpectedVersion int64  `json:"expected_version" validate:"required"`
}

type VisitorFilter struct {
	Status string
	Date   string // YYYY-MM-DD
	HostID int
}
