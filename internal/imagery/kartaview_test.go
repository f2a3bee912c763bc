package imagery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestPhoto_ReturnsThumbWhenAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/photo/", r.URL.Path)
		w.Write([]byte(`{"status":{"apiCode":"200"},"data":[{"thumb_name":"th/123.jpg","name":"full/123.jpg"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	url, err := client.NearestPhoto(context.Background(), 42.36, -71.06)
	require.NoError(t, err)
	assert.Equal(t, "th/123.jpg", url)
}

func TestNearestPhoto_EmptyWhenCoverageSparse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"apiCode":"200"},"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	url, err := client.NearestPhoto(context.Background(), 42.36, -71.06)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestGoogleStreetViewLink(t *testing.T) {
	link := GoogleStreetViewLink(42.360000, -71.060000)
	assert.Equal(t, "https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=42.360000,-71.060000", link)
}
