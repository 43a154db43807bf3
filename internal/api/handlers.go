package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"wastesort/internal/capture"
	"wastesort/internal/database"
	"wastesort/internal/inference"
	"wastesort/internal/media"
	"wastesort/internal/model"
	"wastesort/internal/models"
	"wastesort/internal/pipeline"
	"wastesort/internal/storage"
	"wastesort/internal/waste"
)

// App wires the HTTP handlers to the pipeline. Storage and ImageRepo
// are optional; without them uploads are classified but not archived.
type App struct {
	Pipeline      *pipeline.Service
	Hub           *pipeline.Hub
	Storage       storage.Storage
	ImageRepo     *database.ImageRepository
	MaxUploadSize int64
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps pipeline errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, capture.ErrNoActiveSession), errors.Is(err, pipeline.ErrNoImage):
		return http.StatusConflict
	case errors.Is(err, inference.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, capture.ErrDeviceUnavailable),
		errors.Is(err, inference.ErrModelNotReady),
		errors.Is(err, model.ErrDependencyUnavailable),
		errors.Is(err, model.ErrModelLoad):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (app *App) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	img, err := app.Pipeline.IngestFile(r.Context(), data)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	app.archive(img, data, header.Filename, contentType)

	writeJSON(w, http.StatusCreated, pipeline.NewImageInfo(img))
}

// archive stores the ingested bytes when archiving is configured. A
// failure only logs, ingestion already succeeded.
func (app *App) archive(img *media.Image, data []byte, filename, contentType string) {
	if app.Storage == nil || app.ImageRepo == nil {
		return
	}

	stored, err := app.Storage.SaveFile(data, storage.FileInfo{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		log.Printf("[API] Failed to archive image %s: %v", img.ID, err)
		return
	}

	record := models.NewImageRecord(img.ID, stored, contentType, string(img.Source),
		img.Width, img.Height, int64(len(data)))
	if err := app.ImageRepo.Create(record); err != nil {
		app.Storage.DeleteFile(stored)
		log.Printf("[API] Failed to index image %s: %v", img.ID, err)
	}
}

func (app *App) OpenCameraHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Pipeline.OpenCamera(r.Context()); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"camera_open": true})
}

func (app *App) CaptureFrameHandler(w http.ResponseWriter, r *http.Request) {
	img, err := app.Pipeline.CaptureFrame(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	if data, err := media.EncodeJPEG(img.Pixels); err == nil {
		app.archive(img, data, img.ID+".jpg", "image/jpeg")
	}

	writeJSON(w, http.StatusCreated, pipeline.NewImageInfo(img))
}

func (app *App) CloseCameraHandler(w http.ResponseWriter, r *http.Request) {
	app.Pipeline.CloseCamera()
	writeJSON(w, http.StatusOK, map[string]bool{"camera_open": false})
}

func (app *App) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	result, err := app.Pipeline.Classify(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (app *App) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.Pipeline.Snapshot())
}

func (app *App) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, waste.Categories())
}

func (app *App) ListImagesHandler(w http.ResponseWriter, r *http.Request) {
	if app.ImageRepo == nil {
		writeError(w, http.StatusNotFound, "Archive is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := app.ImageRepo.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list images")
		return
	}
	if records == nil {
		records = []*models.ImageRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (app *App) ServeImageHandler(w http.ResponseWriter, r *http.Request) {
	if app.ImageRepo == nil || app.Storage == nil {
		writeError(w, http.StatusNotFound, "Archive is not configured")
		return
	}

	imageID := chi.URLParam(r, "id")
	if imageID == "" {
		http.NotFound(w, r)
		return
	}

	record, err := app.ImageRepo.GetByID(imageID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	file, err := app.Storage.OpenFile(record.Filename)
	if err != nil {
		http.Error(w, "Image file not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.(interface{ Stat() (os.FileInfo, error) }).Stat()
	if err != nil {
		http.Error(w, "Error accessing image file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", record.ContentType)
	http.ServeContent(w, r, record.Filename, stat.ModTime(), file)
}
