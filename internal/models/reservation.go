package models

import "time"

const (
	ReservationPending   = "pending"
	ReservationApproved  = "approved"
	ReservationDenied    = "denied"
	ReservationCompleted = "completed"
)

var reservationTransitions = map[string][]string{
	ReservationPending:  {ReservationApproved, ReservationDenied},
	ReservationApproved: {ReservationCompleted},
}

// Reservation is a time-boxed booking request for a shared amenity.
type Reservation struct {
	ID         int        `json:"id"`
	Amenity    string     `json:"amenity"`
	UserID     int        `json:"user_id"`
	UserName   string     `json:"user_name,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Purpose    string     `json:"purpose"`
	GuestCount int        `json:"guest_count"`
	Status     string     `json:"status"`
	AdminNotes string     `json:"admin_notes,omitempty"`
	DecidedBy  *int       `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Versioned
}

// Overlaps reports whether two half-open [start, end) windows intersect.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// ConflictsWith reports whether approving r would double-book other: same
// amenity, other already approved, and the windows overlap.
func (r *Reservation) ConflictsWith(other *Reservation) bool {
	return other.ID != r.ID &&
		other.Amenity == r.Amenity &&
		other.Status == ReservationApproved &&
		other.Overlaps(r.StartTime, r.EndTime)
}

// CanTransitionReservation reports whether from -> to is allowed.
func CanTransitionReservation(from, to string) bool {
	for _, next := range reservationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type CreateReservationRequest struct {
	Amenity    string    `json:"amenity" validate:"required,max=100"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	Purpose    string    `json:"purpose" validate:"max=500"`
	GuestCount int       `json:"guest_count" validate:"gte=0,lte=500"`
}

type UpdateReservationStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=approved denied completed"`
	Notes           string `json:"notes" validate:"max=500"`
	ExpectedVersion int64  `json:"expected_version" validate:"required"`
}

type ReservationFilter struct {
	Status  string
	Amenity string
	UserID  int
}
