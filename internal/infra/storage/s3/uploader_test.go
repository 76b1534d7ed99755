package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "https://cdn.example.com/",
		AccessKey:     "key",
		SecretKey:     "secret",
		Bucket:        "photos",
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(Config{Bucket: "photos"}, nil)
	assert.EqualError(t, err, "s3: endpoint is required")
	_, err = NewClient(Config{Endpoint: "localhost:9000"}, nil)
	assert.EqualError(t, err, "s3: bucket is required")
}

func TestObjectURL(t *testing.T) {
	c := newTestClient(t)
	assert.Equal(t, "https://cdn.example.com/photos/communities/c1/a.jpg", c.objectURL("/communities/c1/a.jpg"))
}

func TestPublicURLDefaultsToEndpoint(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "http://minio:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/photos/x.png", c.objectURL("x.png"))
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
}

func TestUploadRejectsBadInput(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, "k", nil, "image/png")
	assert.ErrorIs(t, err, ErrReaderRequired)

	_, err = c.Upload(ctx, " / ", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrKeyRequired)

	_, err = c.Upload(ctx, "doc.pdf", strings.NewReader("x"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}
