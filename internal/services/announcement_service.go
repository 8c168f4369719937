package services

import (
	"context"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"
)

type AnnouncementService struct {
	announcements AnnouncementStore
}

func NewAnnouncementService(announcements AnnouncementStore) *AnnouncementService {
	return &AnnouncementService{announcements: announcements}
}

// GetAnnouncements lists announcements, pinned first.
func (s *AnnouncementService) GetAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	return s.announcements.List(ctx)
}

func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, actor models.Actor, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category := req.Category
	if category == "" {
		category = "general"
	}
	a := &models.Announcement{
		Title:      req.Title,
		Body:       req.Body,
		Category:   category,
		Pinned:     req.Pinned,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, actor models.Actor, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.announcements.Delete(ctx, id)
}
