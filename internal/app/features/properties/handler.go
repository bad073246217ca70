// Package properties serves the listing endpoints under /properties.
package properties

import (
	"context"
	"io"

	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"go.uber.org/zap"
)

const (
	defaultMaxBody  = 1 << 20
	defaultMaxImage = 5 << 20
)

// ImageStore stores uploaded listing images and returns their public URL.
type ImageStore interface {
	PutImage(ctx context.Context, propertyID, contentType string, r io.Reader, size int64) (string, error)
}

// Handler holds the dependencies of the listing endpoints.
type Handler struct {
	Listings *listings.Service
	Images   ImageStore
	Log      *zap.Logger
	MaxBody  int64
	MaxImage int64
}

// NewHandler constructs a Handler. images may be nil, in which case image
// uploads answer 503.
func NewHandler(svc *listings.Service, images ImageStore, logger *zap.Logger) *Handler {
	return &Handler{
		Listings: svc,
		Images:   images,
		Log:      logger,
		MaxBody:  defaultMaxBody,
		MaxImage: defaultMaxImage,
	}
}
