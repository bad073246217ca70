package properties

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"github.com/dalemusser/propertyhub/internal/app/system/mediastore"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleImage handles POST /properties/{id}/image/ with a multipart "image"
// file. The caller must be allowed to modify the listing. The content type
// is sniffed from the file, not taken from the client.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		apierr.Write(w, h.Log, apierr.Unavailable("image storage is not configured"))
		return
	}

	id := chi.URLParam(r, "id")
	user := auth.UserOrNil(r)
	if err := h.Listings.Authorize(r.Context(), user, id); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxImage+(1<<16))
	file, header, err := r.FormFile("image")
	if err != nil {
		apierr.Write(w, h.Log, apierr.Validation("image", "an image file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.MaxImage {
		apierr.Write(w, h.Log, apierr.Validation("image", "file is too large"))
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		apierr.Write(w, h.Log, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if _, ok := mediastore.Extension(contentType); !ok {
		apierr.Write(w, h.Log, apierr.Validation("image", "unsupported image type "+contentType))
		return
	}

	url, err := h.Images.PutImage(r.Context(), id, contentType, io.MultiReader(bytes.NewReader(head), file), header.Size)
	if err != nil {
		h.Log.Error("image upload failed", zap.String("property_id", id), zap.Error(err))
		apierr.Write(w, h.Log, err)
		return
	}

	p, err := h.Listings.AttachImage(r.Context(), user, id, url)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, listings.NewView(p, true))
}
