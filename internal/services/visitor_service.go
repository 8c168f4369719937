package services

import (
	"context"
	"errors"

	"hoa-backend/internal/models"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"
)

const (
	passCodeLength   = 6
	passCodeAttempts = 5
)

var errPassCodeExhausted = errors.New("could not allocate a unique pass code")

type VisitorService struct {
	visitors VisitorStore
	now      clock
}

func NewVisitorService(visitors VisitorStore) *VisitorService {
	return &VisitorService{visitors: visitors, now: defaultClock(nil)}
}

// CreateVisitorPass pre-registers a guest and issues a gate pass code.
func (s *VisitorService) CreateVisitorPass(ctx context.Context, actor models.Actor, req models.CreateVisitorRequest) (*models.Visitor, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	expected, err := timeutil.ParseLocal(timeutil.DateLayout, req.ExpectedDate)
	if err != nil {
		return nil, utils.NewValidationError("expected_date", "must be a date (YYYY-MM-DD)")
	}
	if expected.Before(timeutil.StartOfDay(s.now())) {
		return nil, utils.NewValidationError("expected_date", "Expected date cannot be in the past")
	}

	v := &models.Visitor{
		HostID:       actor.ID,
		HostName:     actor.Name,
		VisitorName:  req.VisitorName,
		Purpose:      req.Purpose,
		VehiclePlate: req.VehiclePlate,
		ExpectedDate: expected,
		Status:       models.VisitorExpected,
	}
	for i := 0; i < passCodeAttempts; i++ {
		v.PassCode = generateRandomCode(passCodeLength)
		created, err := s.visitors.Create(ctx, v)
		if err != nil {
			return nil, err
		}
		if created {
			return v, nil
		}
	}
	return nil, errPassCodeExhausted
}

func (s *VisitorService) GetVisitorsForUser(ctx context.Context, actor models.Actor, filter models.VisitorFilter) ([]*models.Visitor, error) {
	filter.HostID = actor.ID
	return s.visitors.List(ctx, filter)
}

// GetAllVisitors lists every pass. Gate staff and admins only.
func (s *VisitorService) GetAllVisitors(ctx context.Context, actor models.Actor, filter models.VisitorFilter) ([]*models.Visitor, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.visitors.List(ctx, filter)
}

// LookupPass finds a pass by the code shown at the gate.
func (s *VisitorService) LookupPass(ctx context.Context, actor models.Actor, code string) (*models.Visitor, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.visitors.GetByPassCode(ctx, code)
}

// UpdateVisitorStatus records a gate event: expected -> entered|denied,
// entered -> exited.
func (s *VisitorService) UpdateVisitorStatus(ctx context.Context, actor models.Actor, id int, req models.UpdateVisitorStatusRequest) (*models.Visitor, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	v, err := s.visitors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.RowVersion != req.ExpectedVersion {
		return nil, utils.ErrRowVersionConflict
	}
	if !models.CanTransitionVisitor(v.Status, req.Status) {
		return nil, utils.ErrInvalidTransition
	}

	now := s.now()
	v.Status = req.Status
	switch req.Status {
	case models.VisitorEntered:
		v.EnteredAt = &now
	case models.VisitorExited:
		v.ExitedAt = &now
	}
	if err := s.visitors.SaveStatus(ctx, v, req.ExpectedVersion); err != nil {
		countConflict("visitor", err)
		return nil, err
	}
	return v, nil
}
