package services

import (
	"context"
	"sort"
	"strings"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"
)

type SystemSettingService struct {
	Repo  SettingStore
	audit AuditLogger
}

func NewSystemSettingService(repo SettingStore, audit AuditLogger) *SystemSettingService {
	return &SystemSettingService{Repo: repo, audit: audit}
}

// GetAppSettings returns settings as a key/value map. Residents and staff get
// the public subset; admins get everything with secrets masked.
func (s *SystemSettingService) GetAppSettings(ctx context.Context, actor models.Actor) (map[string]string, error) {
	settings, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		switch {
		case actor.IsAdmin() && models.IsSensitiveSetting(st.SettingKey):
			if st.SettingValue != "" {
				out[st.SettingKey] = models.MaskSensitiveValue(st.SettingValue)
			}
		case actor.IsAdmin() || models.IsPublicSetting(st.SettingKey):
			out[st.SettingKey] = st.SettingValue
		}
	}
	return out, nil
}

// UpdateAppSettings writes several settings at once. Masked secrets sent
// back unchanged are skipped.
func (s *SystemSettingService) UpdateAppSettings(ctx context.Context, actor models.Actor, req models.UpdateSettingsRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	if err := requireAdmin(actor); err != nil {
		return err
	}

	values := make(map[string]string, len(req.Settings))
	for key, value := range req.Settings {
		if !models.IsKnownSetting(key) {
			return utils.NewValidationError("settings", "Unknown setting "+key)
		}
		if models.IsSensitiveSetting(key) && strings.Contains(value, "****") {
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.Repo.UpsertMany(ctx, values, actor.ID); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	audit(ctx, s.audit, actor, models.ActionSettingUpdate, "setting", 0, "Updated settings: "+strings.Join(keys, ", "))
	return nil
}

// Value returns one setting value, or "" when it is unset.
func (s *SystemSettingService) Value(ctx context.Context, key string) string {
	st, err := s.Repo.Get(ctx, key)
	if err != nil || st == nil {
		return ""
	}
	return st.SettingValue
}
