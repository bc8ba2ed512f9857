package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/snake/internal/edges"
	"github.com/MeKo-Tech/snake/internal/pipeline"
	"github.com/MeKo-Tech/snake/internal/snake"
	"github.com/stretchr/testify/require"
)

// outlinePNG encodes a 50x50 black image with a white square outline on
// rows and columns 10 and 39.
func outlinePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	for k := 10; k <= 39; k++ {
		img.SetGray(k, 10, color.Gray{Y: 255})
		img.SetGray(k, 39, color.Gray{Y: 255})
		img.SetGray(10, k, color.Gray{Y: 255})
		img.SetGray(39, k, color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func octagon() []snake.Position {
	return []snake.Position{
		{Row: 25, Col: 31}, {Row: 29, Col: 29}, {Row: 31, Col: 25}, {Row: 29, Col: 21},
		{Row: 25, Col: 19}, {Row: 21, Col: 21}, {Row: 19, Col: 25}, {Row: 21, Col: 29},
	}
}

func squareCorners() []snake.Position {
	return []snake.Position{
		{Row: 25, Col: 39}, {Row: 39, Col: 39}, {Row: 39, Col: 25}, {Row: 39, Col: 10},
		{Row: 25, Col: 10}, {Row: 10, Col: 10}, {Row: 10, Col: 25}, {Row: 10, Col: 39},
	}
}

// newTestServer returns a server whose base config runs the octagon over
// raw intensities for four rounds.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := pipeline.DefaultConfig()
	cfg.Edges.Method = edges.MethodNone
	cfg.Contour.Rounds = 4
	cfg.Contour.Points = octagon()

	s, err := NewServer(Config{CORSOrigin: "*", MaxUploadMB: 1, PipelineConfig: cfg})
	require.NoError(t, err)
	return s
}

// multipartRequest builds a POST /segment request.
func multipartRequest(t *testing.T, imageData []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if imageData != nil {
		fw, err := mw.CreateFormFile("image", "outline.png")
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/segment", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
