package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"wastesort/internal/capture"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("🔍 Checking Camera & Archive")
	fmt.Println("============================")

	checkCamera()
	checkArchive()
}

func checkCamera() {
	cameraURL := os.Getenv("CAMERA_URL")
	deviceID := os.Getenv("CAMERA_DEVICE_ID")

	if cameraURL == "" && deviceID == "" {
		fmt.Println("⚠️  WARNING: No camera configured!")
		fmt.Println("   Set CAMERA_URL or CAMERA_DEVICE_ID")
		fmt.Println()
		return
	}

	var device capture.Device
	if cameraURL != "" {
		fmt.Printf("📷 MJPEG camera: %s\n", cameraURL)
		device = capture.NewMJPEGDevice(cameraURL, "mjpeg", capture.FacingEnvironment)
	} else {
		id, err := strconv.Atoi(deviceID)
		if err != nil {
			log.Fatal("Invalid CAMERA_DEVICE_ID:", err)
		}
		fmt.Printf("📷 Webcam device: %d\n", id)
		device = capture.NewWebcamDevice(id, capture.FacingEnvironment)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := device.Open(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to open camera: %v\n\n", err)
		return
	}
	defer stream.Close()

	frame, err := stream.Frame(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to grab a frame: %v\n\n", err)
		return
	}

	bounds := frame.Bounds()
	fmt.Printf("✅ Camera is working! Got a %dx%d frame.\n\n", bounds.Dx(), bounds.Dy())
}

func checkArchive() {
	if os.Getenv("ARCHIVE_DIR") == "" {
		fmt.Println("⚠️  Archive is disabled (ARCHIVE_DIR not set)")
		return
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./wastesort.db"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	var imageCount int
	err = db.QueryRow("SELECT COUNT(*) FROM images").Scan(&imageCount)
	if err != nil {
		fmt.Println("❌ No images table found (nothing archived yet)")
		return
	}
	fmt.Printf("🖼️  Archived images: %d\n\n", imageCount)

	rows, err := db.Query(`
		SELECT filename, source, width, height, size, created_at
		FROM images
		ORDER BY created_at DESC
		LIMIT 5
	`)
	if err != nil {
		log.Fatal("Failed to query images:", err)
	}
	defer rows.Close()

	fmt.Println("📊 Recent Images:")
	fmt.Println("-----------------")

	count := 0
	for rows.Next() {
		var filename, source string
		var width, height int
		var size int64
		var createdAt time.Time

		if err := rows.Scan(&filename, &source, &width, &height, &size, &createdAt); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		count++
		fmt.Printf("\n🗑️  %s (%s)\n", filename, source)
		fmt.Printf("   📐 %dx%d, %d bytes\n", width, height, size)
		fmt.Printf("   🕒 %s\n", createdAt.Format(time.RFC3339))
	}

	if count == 0 {
		fmt.Println("No archived images yet. Upload one to test!")
	} else {
		fmt.Printf("\n✅ Archive is working! Found %d recent images.\n", count)
	}
}
