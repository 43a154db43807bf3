package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"wastesort/internal/inference"
	"wastesort/internal/media"
	"wastesort/internal/model"
)

func main() {
	_ = godotenv.Load()

	modelPath := flag.String("model", getEnv("MODEL_PATH", "./models/waste_classifier.onnx"), "Path to the ONNX model")
	metadataPath := flag.String("metadata", os.Getenv("MODEL_METADATA"), "Path to the model metadata JSON")
	libPath := flag.String("lib", os.Getenv("ONNX_LIB_PATH"), "Path to the onnxruntime shared library")
	imagePath := flag.String("image", "", "Image file to classify")
	flag.Parse()

	if *imagePath == "" {
		log.Fatal("Usage: classify -image <path> [-model <path>] [-metadata <path>] [-lib <path>]")
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	img, err := media.FromBytes(data, media.SourceFile)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}

	handle := model.New(model.Config{
		ModelPath:    *modelPath,
		MetadataPath: *metadataPath,
		LibraryPath:  *libPath,
	})
	defer handle.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := handle.Load(ctx); err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}

	engine := inference.New(handle)

	result, err := engine.Classify(ctx, img)
	if err != nil {
		log.Fatalf("Classification failed: %v", err)
	}

	fmt.Printf("Category:    %s (%s)\n", result.Category.Label, result.Category.ID)
	fmt.Printf("Confidence:  %.1f%%\n", result.Confidence*100)
	if result.RawLabel != "" {
		fmt.Printf("Model label: %s\n", result.RawLabel)
	}
	fmt.Printf("Disposal:    %s\n", result.Category.Hint)
	fmt.Printf("Elapsed:     %s\n", result.Elapsed)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
