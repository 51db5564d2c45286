// Package media talks to the Cloudinary upload and transcoding pipeline:
// unsigned uploads on the way in, poster/adaptive-playlist derivation on the
// way out.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/steelsons/league-feed/backend/internal/models"
)

const (
	hlsMIMEType = "application/x-mpegURL"
	mp4MIMEType = "video/mp4"
)

var videoExtSuffix = regexp.MustCompile(`(?i)\.(mp4|mov)$`)

// Playback describes how to play an uploaded video: source plus poster frame.
type Playback struct {
	SourceURL  string `json:"sourceUrl"`
	SourceType string `json:"sourceType"`
	PosterURL  string `json:"posterUrl,omitempty"`
}

// UploadResult is the stored outcome of a media upload.
type UploadResult struct {
	URL  string           `json:"url"`
	Type models.MediaType `json:"type"`
}

// Pipeline wraps the Cloudinary account used for uploads and derived assets.
type Pipeline struct {
	httpClient   *http.Client
	cloudName    string
	uploadPreset string
	log          *zap.Logger
}

// NewPipeline builds a pipeline for the given Cloudinary cloud. A nil client
// falls back to http.DefaultClient.
func NewPipeline(httpClient *http.Client, cloudName, uploadPreset string, logger *zap.Logger) *Pipeline {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		httpClient:   httpClient,
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		log:          logger,
	}
}

// Upload sends a file through the unsigned upload endpoint and returns the
// delivered URL plus whether Cloudinary classified it as image or video.
func (p *Pipeline) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if err := writer.WriteField("upload_preset", p.uploadPreset); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", p.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloudinary upload: unexpected status %d", res.StatusCode)
	}

	var payload struct {
		SecureURL    string `json:"secure_url"`
		ResourceType string `json:"resource_type"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	mediaType := models.MediaImage
	if payload.ResourceType == "video" {
		mediaType = models.MediaVideo
	}
	return &UploadResult{URL: payload.SecureURL, Type: mediaType}, nil
}

// Resolve derives the playback sources for an uploaded video: a poster frame
// and the adaptive-bitrate (HLS) playlist, with a HEAD probe that falls back
// to the original file when the playlist has not been generated.
func (p *Pipeline) Resolve(ctx context.Context, mediaURL string) Playback {
	_, after, found := strings.Cut(mediaURL, "/upload/")
	if !found {
		return Playback{SourceURL: mediaURL, SourceType: mp4MIMEType}
	}

	basePath := videoExtSuffix.ReplaceAllString(after, "")
	playlistURL := fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/sp_auto/%s.m3u8", p.cloudName, basePath)
	posterURL := fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/so_0/%s.jpg", p.cloudName, basePath)

	if p.probe(ctx, playlistURL) {
		return Playback{SourceURL: playlistURL, SourceType: hlsMIMEType, PosterURL: posterURL}
	}
	return Playback{SourceURL: mediaURL, SourceType: mp4MIMEType, PosterURL: posterURL}
}

// probe checks whether a derived asset exists with a lightweight HEAD
// request. Any failure means "use the fallback", never an error.
func (p *Pipeline) probe(ctx context.Context, assetURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return false
	}
	res, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Debug("asset probe failed", zap.String("url", assetURL), zap.Error(err))
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK
}
