package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"wastesort/internal/api"
	"wastesort/internal/capture"
	"wastesort/internal/database"
	"wastesort/internal/inference"
	"wastesort/internal/metrics"
	"wastesort/internal/model"
	"wastesort/internal/pipeline"
	"wastesort/internal/storage"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	maxUploadSize := os.Getenv("MAX_UPLOAD_SIZE")
	if maxUploadSize == "" {
		maxUploadSize = "10485760"
	}
	maxSize, err := strconv.ParseInt(maxUploadSize, 10, 64)
	if err != nil {
		log.Fatal("Invalid MAX_UPLOAD_SIZE:", err)
	}

	modelPath := getEnv("MODEL_PATH", "./models/waste_classifier.onnx")

	hub := pipeline.NewHub()

	handle := model.New(model.Config{
		ModelPath:    modelPath,
		MetadataPath: os.Getenv("MODEL_METADATA"),
		LibraryPath:  os.Getenv("ONNX_LIB_PATH"),
		Notify: func(status model.Status, err error) {
			if status == model.StatusReady {
				metrics.ModelReady.Set(1)
			} else {
				metrics.ModelReady.Set(0)
			}
			if err != nil {
				log.Printf("[MODEL] Status %s: %v", status, err)
			} else {
				log.Printf("[MODEL] Status %s", status)
			}
			hub.Publish(pipeline.ModelStatusEvent(status, err))
		},
	})
	defer handle.Close()

	// The model loads in the background; the API reports it as
	// loading until the runtime and session are up.
	go func() {
		if err := handle.Load(context.Background()); err != nil {
			log.Printf("[MODEL] Load failed: %v", err)
		}
	}()

	engine := inference.New(handle)

	facing := capture.Facing(getEnv("CAMERA_FACING", string(capture.FacingEnvironment)))
	manager := capture.NewManager(cameraDevices(facing), facing)

	service := pipeline.NewService(handle, engine, manager, hub)

	app := &api.App{
		Pipeline:      service,
		Hub:           hub,
		MaxUploadSize: maxSize,
	}

	// Archiving is optional and only wired when ARCHIVE_DIR is set.
	archiveDir := os.Getenv("ARCHIVE_DIR")
	if archiveDir != "" {
		localStorage, err := storage.NewLocalStorage(archiveDir)
		if err != nil {
			log.Fatal("Failed to initialize storage:", err)
		}

		db, err := database.NewDB(dbConfigFromEnv())
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer db.Close()

		migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")
		log.Printf("Running database migrations from %s", migrationsPath)
		if err := db.RunMigrations(migrationsPath); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}

		app.Storage = localStorage
		app.ImageRepo = database.NewImageRepository(db)
		log.Printf("Archive directory: %s", archiveDir)
	}

	router := api.NewRouter(app)

	log.Printf("Server starting on port %s", port)
	log.Printf("Model path: %s", modelPath)
	log.Printf("Max upload size: %d bytes", maxSize)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// cameraDevices builds the capture device list from the environment.
// CAMERA_URL points at an MJPEG stream, CAMERA_DEVICE_ID at a local
// webcam.
func cameraDevices(facing capture.Facing) []capture.Device {
	var devices []capture.Device

	if url := os.Getenv("CAMERA_URL"); url != "" {
		devices = append(devices, capture.NewMJPEGDevice(url, "mjpeg", facing))
	}

	if idStr := os.Getenv("CAMERA_DEVICE_ID"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			log.Fatal("Invalid CAMERA_DEVICE_ID:", err)
		}
		devices = append(devices, capture.NewWebcamDevice(id, facing))
	}

	return devices
}

func dbConfigFromEnv() database.Config {
	dbType := getEnv("DB_TYPE", "sqlite")

	config := database.Config{Type: dbType}
	if dbType == "postgres" {
		config.Host = getEnv("DB_HOST", "localhost")

		dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			log.Fatal("Invalid DB_PORT:", err)
		}
		config.Port = dbPort

		config.User = getEnv("DB_USER", "wastesort")
		config.Password = getEnv("DB_PASSWORD", "wastesort_dev")
		config.Name = getEnv("DB_NAME", "wastesort")
	} else {
		config.SQLitePath = getEnv("DB_PATH", "./wastesort.db")
	}
	return config
}
