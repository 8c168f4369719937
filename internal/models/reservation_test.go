package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservation_ConflictsWith(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 5, 2, h, 0, 0, 0, time.UTC) }
	booking := func(id int, amenity, status string, from, to int) *Reservation {
		return &Reservation{ID: id, Amenity: amenity, Status: status, StartTime: at(from), EndTime: at(to)}
	}
	request := booking(1, "Pool", ReservationPending, 14, 17)

	tests := []struct {
		name  string
		other *Reservation
		want  bool
	}{
		{"partial overlap", booking(2, "Pool", ReservationApproved, 16, 18), true},
		{"contains request", booking(2, "Pool", ReservationApproved, 13, 19), true},
		{"inside request", booking(2, "Pool", ReservationApproved, 15, 16), true},
		{"ends when request starts", booking(2, "Pool", ReservationApproved, 11, 14), false},
		{"starts when request ends", booking(2, "Pool", ReservationApproved, 17, 20), false},
		{"other amenity", booking(2, "Clubhouse", ReservationApproved, 14, 17), false},
		{"still pending", booking(2, "Pool", ReservationPending, 14, 17), false},
		{"denied", booking(2, "Pool", ReservationDenied, 14, 17), false},
		{"same reservation", booking(1, "Pool", ReservationApproved, 14, 17), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request.ConflictsWith(tt.other))
		})
	}
}
