package services

import (
	"context"
	"testing"
	"time"

	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationFixture(rows ...*models.Reservation) (*ReservationService, *fakeReservations, *fakePublisher) {
	store := newFakeReservations(rows...)
	hub := &fakePublisher{}
	svc := NewReservationService(store, &fakeAudit{}, hub)
	svc.now = fixedClock(testNow)
	return svc, store, hub
}

func clubhouse(status string) *models.Reservation {
	return &models.Reservation{
		Amenity:   "Clubhouse",
		UserID:    residentActor.ID,
		StartTime: testNow.Add(48 * time.Hour),
		EndTime:   testNow.Add(52 * time.Hour),
		Status:    status,
	}
}

func TestUpdateReservationStatus_ConcurrentAdminsConflict(t *testing.T) {
	svc, store, _ := newReservationFixture(clubhouse(models.ReservationPending))
	ctx := context.Background()

	// both admins loaded the reservation at version 1
	first, err := svc.UpdateReservationStatus(ctx, adminActor, 1, models.UpdateReservationStatusRequest{
		Status: models.ReservationApproved, ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.RowVersion)

	_, err = svc.UpdateReservationStatus(ctx, otherAdmin, 1, models.UpdateReservationStatusRequest{
		Status: models.ReservationDenied, Notes: "double booked", ExpectedVersion: 1,
	})
	assert.ErrorIs(t, err, utils.ErrRowVersionConflict)

	stored, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationApproved, stored.Status)
	require.NotNil(t, stored.DecidedBy)
	assert.Equal(t, adminActor.ID, *stored.DecidedBy)
}

func TestUpdateReservationStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"approve pending", models.ReservationPending, models.ReservationApproved, nil},
		{"deny pending", models.ReservationPending, models.ReservationDenied, nil},
		{"complete approved", models.ReservationApproved, models.ReservationCompleted, nil},
		{"complete pending", models.ReservationPending, models.ReservationCompleted, utils.ErrInvalidTransition},
		{"reopen denied", models.ReservationDenied, models.ReservationApproved, utils.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newReservationFixture(clubhouse(tt.from))
			_, err := svc.UpdateReservationStatus(context.Background(), adminActor, 1, models.UpdateReservationStatusRequest{
				Status: tt.to, ExpectedVersion: 1,
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateReservationStatus_StaffCannotDecide(t *testing.T) {
	svc, _, _ := newReservationFixture(clubhouse(models.ReservationPending))

	_, err := svc.UpdateReservationStatus(context.Background(), staffActor, 1, models.UpdateReservationStatusRequest{
		Status: models.ReservationApproved, ExpectedVersion: 1,
	})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestCreateReservation(t *testing.T) {
	svc, _, hub := newReservationFixture()
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, residentActor, models.CreateReservationRequest{
		Amenity:    " Pool ",
		StartTime:  testNow.Add(24 * time.Hour),
		EndTime:    testNow.Add(26 * time.Hour),
		GuestCount: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pool", res.Amenity)
	assert.Equal(t, models.ReservationPending, res.Status)
	assert.Equal(t, []string{notify.EventReservationCreated}, hub.types())

	// overlapping pending requests are accepted
	_, err = svc.CreateReservation(ctx, models.Actor{ID: 11, Role: models.RoleTenant}, models.CreateReservationRequest{
		Amenity:   "Pool",
		StartTime: testNow.Add(25 * time.Hour),
		EndTime:   testNow.Add(27 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestCreateReservation_RejectsBadWindows(t *testing.T) {
	svc, _, _ := newReservationFixture()
	ctx := context.Background()

	_, err := svc.CreateReservation(ctx, residentActor, models.CreateReservationRequest{
		Amenity:   "Pool",
		StartTime: testNow.Add(26 * time.Hour),
		EndTime:   testNow.Add(24 * time.Hour),
	})
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "end_time", vErr.Field)

	_, err = svc.CreateReservation(ctx, residentActor, models.CreateReservationRequest{
		Amenity:   "Pool",
		StartTime: testNow.Add(-2 * time.Hour),
		EndTime:   testNow.Add(-1 * time.Hour),
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "start_time", vErr.Field)
}

func TestGetAllReservations_StaffOnly(t *testing.T) {
	svc, _, _ := newReservationFixture(clubhouse(models.ReservationPending))
	ctx := context.Background()

	_, err := svc.GetAllReservations(ctx, residentActor, models.ReservationFilter{})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	list, err := svc.GetAllReservations(ctx, staffActor, models.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateReservationStatus_ApprovingIntoBookedSlotConflicts(t *testing.T) {
	evening := clubhouse(models.ReservationPending)
	overlapping := clubhouse(models.ReservationPending)
	overlapping.UserID = 11
	overlapping.StartTime = evening.StartTime.Add(2 * time.Hour)
	overlapping.EndTime = evening.EndTime.Add(2 * time.Hour)
	afterwards := clubhouse(models.ReservationPending)
	afterwards.StartTime = evening.EndTime
	afterwards.EndTime = evening.EndTime.Add(3 * time.Hour)

	svc, store, _ := newReservationFixture(evening, overlapping, afterwards)
	ctx := context.Background()
	approve := models.UpdateReservationStatusRequest{Status: models.ReservationApproved, ExpectedVersion: 1}

	_, err := svc.UpdateReservationStatus(ctx, adminActor, 1, approve)
	require.NoError(t, err)

	_, err = svc.UpdateReservationStatus(ctx, adminActor, 2, approve)
	assert.ErrorIs(t, err, utils.ErrBookingConflict)
	stored, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, stored.Status)

	// starts exactly when the first booking ends
	_, err = svc.UpdateReservationStatus(ctx, adminActor, 3, approve)
	assert.NoError(t, err)
}
