package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"path"

	"hoa-backend/internal/storage"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// MaxProofBytes is the largest accepted proof-of-payment upload.
	MaxProofBytes = 5 << 20
	thumbSize     = 320
)

var (
	ErrProofTooLarge = utils.NewValidationError("proof", "File size cannot exceed 5MB")
	ErrProofNotImage = utils.NewValidationError("proof", "Proof must be a JPG, PNG or GIF image")
	ErrProofRequired = utils.NewValidationError("proof", "Proof of payment is required for this method")
)

var allowedProofTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Proof is an uploaded proof-of-payment image.
type Proof struct {
	Filename string
	Data     []byte
}

// StoredProof is where a proof ended up.
type StoredProof struct {
	Key      string
	ThumbKey string
}

// ProofService validates proof uploads and writes them to object storage.
type ProofService struct {
	store       storage.ObjectStore
	encodeThumb func(w io.Writer, img image.Image) error
}

func NewProofService(store storage.ObjectStore) *ProofService {
	return &ProofService{store: store, encodeThumb: encodeJPEG}
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(80))
}

// Check validates size and content without storing anything. It is the
// server-side copy of the form's file rules.
func (s *ProofService) Check(p *Proof) (image.Image, string, error) {
	if p == nil || len(p.Data) == 0 {
		return nil, "", ErrProofRequired
	}
	if len(p.Data) > MaxProofBytes {
		return nil, "", ErrProofTooLarge
	}
	contentType := http.DetectContentType(p.Data)
	if _, ok := allowedProofTypes[contentType]; !ok {
		return nil, "", ErrProofNotImage
	}
	img, err := imaging.Decode(bytes.NewReader(p.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", ErrProofNotImage
	}
	return img, contentType, nil
}

// Store validates p and uploads it with a JPEG thumbnail under kind/.
func (s *ProofService) Store(ctx context.Context, kind string, p *Proof) (*StoredProof, error) {
	img, contentType, err := s.Check(p)
	if err != nil {
		return nil, err
	}

	base := path.Join(kind, timeutil.Now().Format("2006/01"), uuid.NewString())
	stored := &StoredProof{
		Key:      base + allowedProofTypes[contentType],
		ThumbKey: base + "_thumb.jpg",
	}

	if err := s.store.Put(ctx, stored.Key, p.Data, contentType); err != nil {
		return nil, fmt.Errorf("store proof: %w", err)
	}

	thumb := imaging.Thumbnail(img, thumbSize, thumbSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := s.encodeThumb(&buf, thumb); err != nil {
		_ = s.store.Delete(ctx, stored.Key)
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := s.store.Put(ctx, stored.ThumbKey, buf.Bytes(), "image/jpeg"); err != nil {
		_ = s.store.Delete(ctx, stored.Key)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	return stored, nil
}

// Discard removes a stored proof after the record it belonged to failed to save.
func (s *ProofService) Discard(ctx context.Context, stored *StoredProof) {
	if stored == nil {
		return
	}
	for _, key := range []string{stored.Key, stored.ThumbKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			utils.Logger.WithError(err).WithField("key", key).Warn("failed to delete orphaned proof")
		}
	}
}

// URL resolves a stored key to a URL the browser can load. Empty keys give "".
func (s *ProofService) URL(ctx context.Context, key string) string {
	if s == nil || key == "" {
		return ""
	}
	u, err := s.store.URL(ctx, key)
	if err != nil {
		utils.Logger.WithError(err).WithField("key", key).Warn("failed to resolve proof url")
		return ""
	}
	return u
}
