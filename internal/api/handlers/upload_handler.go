package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avelez/shopadmin-be/internal/services"
)

// maxUploadSize caps product image uploads at 10 MiB.
const maxUploadSize = 10 << 20

// UploadHandler forwards product images to the configured image host.
type UploadHandler struct {
	uploader services.Uploader
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploader services.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload accepts a multipart "file" field and returns the hosted image's URL
// and public id.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	result, err := h.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to upload image")
		respondError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	respondData(w, http.StatusOK, result)
}
