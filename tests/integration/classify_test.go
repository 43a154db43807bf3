package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"wastesort/internal/model"
	"wastesort/internal/pipeline"
	"wastesort/internal/waste"
)

func TestClassifyFlow(t *testing.T) {
	ts := setupTestServer(t, &stubModel{
		status:  model.StatusReady,
		scores:  []float32{0.1, 3.0, 0.2},
		classes: []string{"organic", "plastic", "paper"},
	})
	defer ts.Cleanup()

	resp := uploadTestImage(t, ts.Server.URL, pngBytes(t))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Upload failed with status %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.Server.URL+"/api/classify")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result waste.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	resp.Body.Close()

	if result.Index != 1 {
		t.Errorf("Expected index 1, got %d", result.Index)
	}
	if result.Category.ID != "non-biodegradable" {
		t.Errorf("Expected non-biodegradable, got %s", result.Category.ID)
	}
	if result.RawLabel != "plastic" {
		t.Errorf("Expected raw label plastic, got %s", result.RawLabel)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("Expected confidence in (0,1], got %f", result.Confidence)
	}

	// Classification is repeatable for the same image.
	resp = postJSON(t, ts.Server.URL+"/api/classify")
	var repeat waste.Result
	if err := json.NewDecoder(resp.Body).Decode(&repeat); err != nil {
		t.Fatalf("Failed to decode repeat result: %v", err)
	}
	resp.Body.Close()
	if repeat.Category.ID != result.Category.ID {
		t.Errorf("Expected a repeatable classification, got %s then %s",
			result.Category.ID, repeat.Category.ID)
	}

	statusResp, err := http.Get(ts.Server.URL + "/api/status")
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	defer statusResp.Body.Close()

	var snap pipeline.Snapshot
	if err := json.NewDecoder(statusResp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.State != pipeline.StateClassified {
		t.Errorf("Expected classified state, got %s", snap.State)
	}
	if snap.Result == nil || snap.Result.Category.ID != "non-biodegradable" {
		t.Errorf("Expected the snapshot to carry the result, got %+v", snap.Result)
	}
}

func TestClassifyBeforeUpload(t *testing.T) {
	ts := setupTestServer(t, &stubModel{status: model.StatusReady})
	defer ts.Cleanup()

	resp := postJSON(t, ts.Server.URL+"/api/classify")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", resp.StatusCode)
	}
}

func TestClassifyWhileModelLoading(t *testing.T) {
	ts := setupTestServer(t, &stubModel{status: model.StatusLoading})
	defer ts.Cleanup()

	resp := uploadTestImage(t, ts.Server.URL, pngBytes(t))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Upload failed with status %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.Server.URL+"/api/classify")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", resp.StatusCode)
	}
}
