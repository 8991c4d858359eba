package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/avelez/shopadmin-be/internal/models"
)

// uploadFolder is where product images land on the external host.
const uploadFolder = "ecommerce-products"

// Uploader sends an image to the configured host and returns its public URL
// and identifier.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (models.UploadResult, error)
}

// CloudinaryUploader uploads images through Cloudinary's unsigned upload
// endpoint.
type CloudinaryUploader struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	client       *http.Client
}

// NewCloudinaryUploader creates an uploader for the given cloud and unsigned
// upload preset.
func NewCloudinaryUploader(cloudName, uploadPreset string) *CloudinaryUploader {
	return &CloudinaryUploader{
		baseURL:      "https://api.cloudinary.com/v1_1",
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload posts the file as multipart form data and decodes the host's
// response into an UploadResult.
func (u *CloudinaryUploader) Upload(ctx context.Context, filename, contentType string, content io.Reader) (models.UploadResult, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		defer form.Close()
		if err := form.WriteField("upload_preset", u.uploadPreset); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := form.WriteField("folder", uploadFolder); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
		}
	}()

	url := fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return models.UploadResult{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("upload to image host: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.UploadResult{}, fmt.Errorf("image host returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.UploadResult{}, fmt.Errorf("decode image host response: %w", err)
	}

	return models.UploadResult{URL: payload.SecureURL, PublicID: payload.PublicID}, nil
}

// LocalUploader stores images on disk and serves them from the app itself.
// Used in development when no Cloudinary credentials are configured.
type LocalUploader struct {
	dir     string
	baseURL string // URL prefix the files are served under, e.g. "/uploads"
}

// NewLocalUploader creates an uploader writing into dir.
func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return &LocalUploader{dir: dir, baseURL: baseURL}
}

// Upload writes the file under a fresh uuid name, keeping the original
// extension.
func (u *LocalUploader) Upload(_ context.Context, filename, _ string, content io.Reader) (models.UploadResult, error) {
	id := uuid.New().String()
	name := id + filepath.Ext(filename)

	f, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return models.UploadResult{}, fmt.Errorf("write upload file: %w", err)
	}

	return models.UploadResult{
		URL:      u.baseURL + "/" + name,
		PublicID: id,
	}, nil
}
