package services

import (
	"context"
	"testing"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memVisitors struct {
	rows map[int]*models.Visitor
	next int
}

func (m *memVisitors) Create(_ context.Context, v *models.Visitor) (bool, error) {
	for _, existing := range m.rows {
		if existing.PassCode == v.PassCode {
			return false, nil
		}
	}
	m.next++
	v.ID = m.next
	v.RowVersion = 1
	c := *v
	m.rows[v.ID] = &c
	return true, nil
}

func (m *memVisitors) Get(_ context.Context, id int) (*models.Visitor, error) {
	v, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (m *memVisitors) GetByPassCode(_ context.Context, code string) (*models.Visitor, error) {
	for _, v := range m.rows {
		if v.PassCode == code {
			c := *v
			return &c, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memVisitors) List(_ context.Context, filter models.VisitorFilter) ([]*models.Visitor, error) {
	var out []*models.Visitor
	for _, v := range m.rows {
		if filter.HostID != 0 && v.HostID != filter.HostID {
			continue
		}
		c := *v
		out = append(out, &c)
	}
	return out, nil
}

func (m *memVisitors) SaveStatus(_ context.Context, v *models.Visitor, expectedVersion int64) error {
	stored, ok := m.rows[v.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if stored.RowVersion != expectedVersion {
		return utils.ErrRowVersionConflict
	}
	v.RowVersion = expectedVersion + 1
	c := *v
	m.rows[v.ID] = &c
	return nil
}

func TestVisitorPassLifecycle(t *testing.T) {
	store := &memVisitors{rows: map[int]*models.Visitor{}}
	svc := NewVisitorService(store)
	svc.now = fixedClock(testNow)
	ctx := context.Background()

	v, err := svc.CreateVisitorPass(ctx, residentActor, models.CreateVisitorRequest{
		VisitorName:  "Juan Dela Cruz",
		ExpectedDate: "2026-03-21",
	})
	require.NoError(t, err)
	assert.Len(t, v.PassCode, 6)
	assert.Equal(t, models.VisitorExpected, v.Status)

	found, err := svc.LookupPass(ctx, staffActor, v.PassCode)
	require.NoError(t, err)
	assert.Equal(t, v.ID, found.ID)

	entered, err := svc.UpdateVisitorStatus(ctx, staffActor, v.ID, models.UpdateVisitorStatusRequest{
		Status: models.VisitorEntered, ExpectedVersion: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, entered.EnteredAt)

	_, err = svc.UpdateVisitorStatus(ctx, staffActor, v.ID, models.UpdateVisitorStatusRequest{
		Status: models.VisitorDenied, ExpectedVersion: entered.RowVersion,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	exited, err := svc.UpdateVisitorStatus(ctx, staffActor, v.ID, models.UpdateVisitorStatusRequest{
		Status: models.VisitorExited, ExpectedVersion: entered.RowVersion,
	})
	require.NoError(t, err)
	assert.NotNil(t, exited.ExitedAt)
}

func TestVisitorPass_Rules(t *testing.T) {
	store := &memVisitors{rows: map[int]*models.Visitor{}}
	svc := NewVisitorService(store)
	svc.now = fixedClock(testNow)
	ctx := context.Background()

	_, err := svc.CreateVisitorPass(ctx, residentActor, models.CreateVisitorRequest{
		VisitorName: "Late guest", ExpectedDate: "2026-03-01",
	})
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "expected_date", vErr.Field)

	_, err = svc.LookupPass(ctx, residentActor, "ABC123")
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = svc.GetAllVisitors(ctx, residentActor, models.VisitorFilter{})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}
