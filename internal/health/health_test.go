package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestCheckBasic(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		cache  Pinger
		status string
		cacheS string
	}{
		{"all up", up, up, "healthy", "healthy"},
		{"no cache configured", up, nil, "healthy", "disabled"},
		{"cache down", up, down, "unhealthy", "unhealthy"},
		{"db down", down, up, "unhealthy", "healthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewHealthChecker(tt.db, tt.cache).CheckBasic(context.Background())
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.cacheS, got.Cache.Status)
			assert.Nil(t, got.Host)
		})
	}
}

func TestCheckBasic_ReportsPingError(t *testing.T) {
	got := NewHealthChecker(down, nil).CheckBasic(context.Background())
	assert.Equal(t, "connection refused", got.Database.Error)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512.0 MB", formatBytes(512<<20))
	assert.Equal(t, "2.0 GB", formatBytes(2<<30))
}
