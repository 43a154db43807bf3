package model

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// locateRuntime looks for the ONNX Runtime shared library: an explicitly
// configured path first, then the usual system locations, then a directory
// relative to the working directory.
func locateRuntime(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("configured library path: %w", err)
		}
		return explicit, nil
	}

	system := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
	for _, p := range system {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	name, err := libraryName()
	if err != nil {
		return "", err
	}
	p := filepath.Join("onnxruntime", "lib", name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("onnxruntime shared library not found")
}

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
