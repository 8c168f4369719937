package services

import (
	"context"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"
)

// CCTVService manages the registered camera feeds.
type CCTVService struct {
	cameras CameraStore
}

func NewCCTVService(cameras CameraStore) *CCTVService {
	return &CCTVService{cameras: cameras}
}

func (s *CCTVService) GetCCTVList(ctx context.Context, actor models.Actor) ([]*models.Camera, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.cameras.List(ctx)
}

func (s *CCTVService) CreateCCTV(ctx context.Context, actor models.Actor, req models.CameraRequest) (*models.Camera, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c := &models.Camera{}
	applyCameraRequest(c, req)
	if err := s.cameras.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CCTVService) UpdateCCTV(ctx context.Context, actor models.Actor, id int, req models.CameraRequest) (*models.Camera, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c := &models.Camera{ID: id}
	applyCameraRequest(c, req)
	if err := s.cameras.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CCTVService) DeleteCCTV(ctx context.Context, actor models.Actor, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.cameras.Delete(ctx, id)
}

func applyCameraRequest(c *models.Camera, req models.CameraRequest) {
	c.Name = req.Name
	c.Location = req.Location
	c.StreamURL = req.StreamURL
	c.Status = req.Status
	if c.Status == "" {
		c.Status = models.CameraOnline
	}
}
