package services

import (
	"context"
	"strings"

	"hoa-backend/internal/metrics"
	"hoa-backend/internal/models"
	"hoa-backend/internal/notify"
	"hoa-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

type ReservationService struct {
	reservations ReservationStore
	audit        AuditLogger
	hub          notify.Publisher
	now          clock
}

func NewReservationService(reservations ReservationStore, audit AuditLogger, hub notify.Publisher) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		audit:        audit,
		hub:          hub,
		now:          defaultClock(nil),
	}
}

// CreateReservation files a pending booking request. Overlapping pending
// requests are accepted; conflicts are resolved when an admin approves.
func (s *ReservationService) CreateReservation(ctx context.Context, actor models.Actor, req models.CreateReservationRequest) (*models.Reservation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, utils.NewValidationError("end_time", "End time must be after the start time")
	}
	if req.StartTime.Before(s.now()) {
		return nil, utils.NewValidationError("start_time", "Start time must be in the future")
	}

	res := &models.Reservation{
		Amenity:    strings.TrimSpace(req.Amenity),
		UserID:     actor.ID,
		UserName:   actor.Name,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Purpose:    req.Purpose,
		GuestCount: req.GuestCount,
		Status:     models.ReservationPending,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	publish(s.hub, notify.EventReservationCreated, map[string]any{
		"reservation_id": res.ID,
		"amenity":        res.Amenity,
		"start_time":     res.StartTime,
		"end_time":       res.EndTime,
		"user":           actor.Name,
	})
	return res, nil
}

// UpdateReservationStatus applies an admin decision. The write only lands if
// the reservation still carries req.ExpectedVersion; approvals also fail when
// an approved booking of the same amenity overlaps.
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, actor models.Actor, id int, req models.UpdateReservationStatusRequest) (*models.Reservation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	res, err := s.reservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowVersion != req.ExpectedVersion {
		countConflict("reservation", utils.ErrRowVersionConflict)
		return nil, utils.ErrRowVersionConflict
	}
	if !models.CanTransitionReservation(res.Status, req.Status) {
		return nil, utils.ErrInvalidTransition
	}

	now := s.now()
	decider := actor.ID
	res.Status = req.Status
	res.AdminNotes = req.Notes
	res.DecidedBy = &decider
	res.DecidedAt = &now

	if err := s.reservations.SaveStatus(ctx, res, req.ExpectedVersion); err != nil {
		countConflict("reservation", err)
		return nil, err
	}

	metrics.ReservationDecisions.WithLabelValues(res.Status).Inc()
	audit(ctx, s.audit, actor, models.ActionReservationDecide, "reservation", res.ID,
		"Reservation of "+res.Amenity+" "+res.Status)
	utils.Logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"status":         res.Status,
		"admin_id":       actor.ID,
	}).Info("reservation decided")

	publish(s.hub, notify.EventReservationUpdated, map[string]any{
		"reservation_id": res.ID,
		"amenity":        res.Amenity,
		"status":         res.Status,
	})
	return res, nil
}

func (s *ReservationService) GetReservationsForUser(ctx context.Context, actor models.Actor, filter models.ReservationFilter) ([]*models.Reservation, error) {
	filter.UserID = actor.ID
	return s.reservations.List(ctx, filter)
}

// GetAllReservations lists every booking. Staff need it to manage the gate
// and the clubhouse schedule.
func (s *ReservationService) GetAllReservations(ctx context.Context, actor models.Actor, filter models.ReservationFilter) ([]*models.Reservation, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.reservations.List(ctx, filter)
}
