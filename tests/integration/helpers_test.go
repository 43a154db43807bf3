package integration

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"wastesort/internal/api"
	"wastesort/internal/capture"
	"wastesort/internal/database"
	"wastesort/internal/inference"
	"wastesort/internal/model"
	"wastesort/internal/pipeline"
	"wastesort/internal/storage"
)

// stubModel stands in for the ONNX session so the full HTTP stack can
// run without the native runtime. Preprocessing and postprocessing
// still run for real.
type stubModel struct {
	status  model.Status
	loadErr error
	scores  []float32
	classes []string
}

func (m *stubModel) Status() model.Status  { return m.status }
func (m *stubModel) LoadErr() error        { return m.loadErr }
func (m *stubModel) InputSize() (int, int) { return 224, 224 }
func (m *stubModel) Classes() []string     { return m.classes }

func (m *stubModel) Run(data []float32, shape []int64) ([]float32, error) {
	return m.scores, nil
}

type fakeStream struct{}

func (fakeStream) Frame(ctx context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 200, B: 90, A: 255})
		}
	}
	return img, nil
}

func (fakeStream) Close() error { return nil }

type fakeDevice struct {
	openErr error
}

func (d *fakeDevice) Name() string           { return "test-cam" }
func (d *fakeDevice) Facing() capture.Facing { return capture.FacingEnvironment }

func (d *fakeDevice) Open(ctx context.Context) (capture.Stream, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return fakeStream{}, nil
}

type TestServer struct {
	Server    *httptest.Server
	App       *api.App
	Pipeline  *pipeline.Service
	Hub       *pipeline.Hub
	Model     *stubModel
	DB        *database.DB
	ImageRepo *database.ImageRepository
	TempDir   string
}

func setupTestServer(t *testing.T, m *stubModel, devices ...capture.Device) *TestServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "wastesort_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	archiveDir := filepath.Join(tempDir, "archive")
	localStorage, err := storage.NewLocalStorage(archiveDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(tempDir, "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	imageRepo := database.NewImageRepository(db)

	hub := pipeline.NewHub()
	engine := inference.New(m)
	manager := capture.NewManager(devices, capture.FacingEnvironment)
	service := pipeline.NewService(m, engine, manager, hub)

	app := &api.App{
		Pipeline:      service,
		Hub:           hub,
		Storage:       localStorage,
		ImageRepo:     imageRepo,
		MaxUploadSize: 10 * 1024 * 1024, // 10MB
	}

	server := httptest.NewServer(api.NewRouter(app))

	return &TestServer{
		Server:    server,
		App:       app,
		Pipeline:  service,
		Hub:       hub,
		Model:     m,
		DB:        db,
		ImageRepo: imageRepo,
		TempDir:   tempDir,
	}
}

func (ts *TestServer) Cleanup() {
	ts.Server.Close()
	ts.DB.Close()
	os.RemoveAll(ts.TempDir)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 120, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func createMultipartUpload(filename string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func uploadTestImage(t *testing.T, server string, content []byte) *http.Response {
	t.Helper()

	body, contentType, err := createMultipartUpload("test.png", content)
	if err != nil {
		t.Fatalf("Failed to create multipart upload: %v", err)
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/images", server), body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to upload image: %v", err)
	}
	return resp
}

func postJSON(t *testing.T, url string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to POST %s: %v", url, err)
	}
	return resp
}

func countImagesInDB(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM images").Scan(&count)
	return count, err
}
