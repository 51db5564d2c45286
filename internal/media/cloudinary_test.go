package media

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// roundTripperFunc lets a test intercept outbound requests without a server.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func clientWith(f roundTripperFunc) *http.Client {
	return &http.Client{Transport: f}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestUploadVideo(t *testing.T) {
	var captured *http.Request
	client := clientWith(func(r *http.Request) (*http.Response, error) {
		captured = r
		return jsonResponse(http.StatusOK, `{"secure_url":"https://res.cloudinary.com/steel/video/upload/v1/clip.mp4","resource_type":"video"}`), nil
	})
	p := NewPipeline(client, "steel", "fan-uploads", nil)

	result, err := p.Upload(context.Background(), "clip.mp4", strings.NewReader("data"))
	assert.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/steel/video/upload/v1/clip.mp4", result.URL)
	assert.Equal(t, "video", string(result.Type))

	assert.Equal(t, "https://api.cloudinary.com/v1_1/steel/auto/upload", captured.URL.String())
	assert.Contains(t, captured.Header.Get("Content-Type"), "multipart/form-data")
}

func TestUploadImageDefault(t *testing.T) {
	client := clientWith(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"secure_url":"https://res.cloudinary.com/steel/image/upload/v1/pic.jpg","resource_type":"image"}`), nil
	})
	p := NewPipeline(client, "steel", "fan-uploads", nil)

	result, err := p.Upload(context.Background(), "pic.jpg", strings.NewReader("data"))
	assert.NoError(t, err)
	assert.Equal(t, "image", string(result.Type))
}

func TestUploadRejectsBadStatus(t *testing.T) {
	client := clientWith(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error":{"message":"invalid preset"}}`), nil
	})
	p := NewPipeline(client, "steel", "fan-uploads", nil)

	_, err := p.Upload(context.Background(), "pic.jpg", strings.NewReader("data"))
	assert.Error(t, err)
}

func TestResolvePrefersAdaptivePlaylist(t *testing.T) {
	var probed string
	client := clientWith(func(r *http.Request) (*http.Response, error) {
		probed = r.URL.String()
		assert.Equal(t, http.MethodHead, r.Method)
		return jsonResponse(http.StatusOK, ""), nil
	})
	p := NewPipeline(client, "steel", "fan-uploads", nil)

	playback := p.Resolve(context.Background(), "https://res.cloudinary.com/steel/video/upload/v123/clips/win.mp4")
	assert.Equal(t, "https://res.cloudinary.com/steel/video/upload/sp_auto/v123/clips/win.m3u8", playback.SourceURL)
	assert.Equal(t, "application/x-mpegURL", playback.SourceType)
	assert.Equal(t, "https://res.cloudinary.com/steel/video/upload/so_0/v123/clips/win.jpg", playback.PosterURL)
	assert.Equal(t, playback.SourceURL, probed)
}

func TestResolveFallsBackToOriginal(t *testing.T) {
	client := clientWith(func(r *http.Request) (*http.Response, error) {
		// Playlist not generated yet
		return jsonResponse(http.StatusNotFound, ""), nil
	})
	p := NewPipeline(client, "steel", "fan-uploads", nil)

	src := "https://res.cloudinary.com/steel/video/upload/v123/clips/win.MOV"
	playback := p.Resolve(context.Background(), src)
	assert.Equal(t, src, playback.SourceURL)
	assert.Equal(t, "video/mp4", playback.SourceType)
	assert.Equal(t, "https://res.cloudinary.com/steel/video/upload/so_0/v123/clips/win.jpg", playback.PosterURL)
}

func TestResolveNonCloudinaryURL(t *testing.T) {
	client := clientWith(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no probe expected for a URL outside the upload path")
		return nil, nil
	})
	p := NewPipeline(client, "steel", "fan-uploads", nil)

	playback := p.Resolve(context.Background(), "https://example.com/video.mp4")
	assert.Equal(t, "https://example.com/video.mp4", playback.SourceURL)
	assert.Equal(t, "video/mp4", playback.SourceType)
	assert.Empty(t, playback.PosterURL)
}
