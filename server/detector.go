package attento

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	Mt "github.com/maroda/attento/types"
)

const (
	webTimeout = 10 * time.Second
)

// ErrDetectorUnavailable is the processing-failure kind surfaced
// when the pose sidecar cannot be reached or answers garbage.
// The pipeline never retries, that policy belongs to the caller.
var ErrDetectorUnavailable = errors.New("detector unavailable")

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// PoseDetector is the external collaborator boundary:
// one still image in, per-person keypoint arrays out.
// No people means an empty slice, not an error.
type PoseDetector interface {
	Detect(image []byte) ([][]Mt.Keypoint, error)
}

// poseResponse is the sidecar wire shape
type poseResponse struct {
	People [][]Mt.Keypoint `json:"people"`
}

// PoseClient calls a pose-estimation sidecar over HTTP
type PoseClient struct {
	URL    string
	Client HTTPClient
}

// NewPoseClient uses the shared client:
// - to reuse existing endpoint connections
// - to avoid stale connections that eat up OS FDs
func NewPoseClient(url string) *PoseClient {
	return &PoseClient{URL: url, Client: sharedHTTPClient}
}

// Detect posts the raw image and decodes the keypoint arrays.
// Every failure mode maps onto ErrDetectorUnavailable so callers
// can distinguish it from a missing snapshot.
func (pc *PoseClient) Detect(image []byte) ([][]Mt.Keypoint, error) {
	req, err := http.NewRequest(http.MethodPost, pc.URL, bytes.NewReader(image))
	if err != nil {
		slog.Error("Could not build detector request", slog.Any("Error", err))
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := pc.Client.Do(req)
	if err != nil {
		slog.Error("Detector fetch error", slog.Any("Error", err))
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Detector returned bad status", slog.Int("Status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrDetectorUnavailable, resp.StatusCode)
	}

	var pr poseResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		slog.Error("Could not decode detector response", slog.Any("Error", err))
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	if pr.People == nil {
		pr.People = [][]Mt.Keypoint{}
	}
	return pr.People, nil
}
