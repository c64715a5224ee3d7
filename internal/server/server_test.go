package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	field, name string
	data        []byte
}

func pngBytes(t *testing.T, colors ...color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, len(colors), 1))
	for x, c := range colors {
		img.Set(x, 0, c)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newRequest(t *testing.T, query string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/palette"+query, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewHandler(DefaultConfig(), nil).ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPalette_JSON(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	img := pngBytes(t, red, red, red, blue)

	rec := serve(newRequest(t, "?n=2&seed=4", nil, upload{"image", "a.png", img}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("X-Palette-Seed"))

	var doc struct {
		Colors []struct {
			Hex    string `json:"hex"`
			Pixels uint64 `json:"pixels"`
		} `json:"colors"`
		Pixels       uint64 `json:"pixels"`
		UniqueColors int    `json:"unique_colors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, uint64(4), doc.Pixels)
	assert.Equal(t, 2, doc.UniqueColors)
	require.Len(t, doc.Colors, 2)

	got := map[string]uint64{}
	for _, c := range doc.Colors {
		got[c.Hex] = c.Pixels
	}
	assert.Equal(t, map[string]uint64{"#ff0000": 3, "#0000ff": 1}, got)
}

func TestPalette_FormFieldsAndFixed(t *testing.T) {
	img := pngBytes(t, color.RGBA{0x11, 0x22, 0x33, 255})
	fixed := pngBytes(t, color.White)

	rec := serve(newRequest(t, "",
		map[string]string{"n": "8", "format": "hex", "seed": "1"},
		upload{"image", "a.png", img},
		upload{"fixed", "ui.png", fixed},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "#112233\n", rec.Body.String())
}

func TestPalette_PNG(t *testing.T) {
	img := pngBytes(t, color.RGBA{10, 20, 30, 255}, color.RGBA{200, 100, 50, 255})

	rec := serve(newRequest(t, "?format=png&seed=2", nil, upload{"image", "a.png", img}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestPalette_Errors(t *testing.T) {
	good := pngBytes(t, color.Black)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no image", newRequest(t, "", nil), http.StatusBadRequest},
		{"bad n", newRequest(t, "?n=many", nil, upload{"image", "a.png", good}), http.StatusBadRequest},
		{"bad seed", newRequest(t, "?seed=-1", nil, upload{"image", "a.png", good}), http.StatusBadRequest},
		{"bad dedupe", newRequest(t, "?dedupe=maybe", nil, upload{"image", "a.png", good}), http.StatusBadRequest},
		{"bad format", newRequest(t, "?format=ase", nil, upload{"image", "a.png", good}), http.StatusBadRequest},
		{"corrupt image", newRequest(t, "", nil, upload{"image", "a.png", []byte("not a png")}), http.StatusUnprocessableEntity},
		{"unsupported extension", newRequest(t, "", nil, upload{"image", "a.xcf", good}), http.StatusUnprocessableEntity},
		{"corrupt fixed image", newRequest(t, "", nil, upload{"image", "a.png", good}, upload{"fixed", "b.png", []byte{1, 2}}), http.StatusUnprocessableEntity},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/v1/palette", strings.NewReader("x")), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.req)
			assert.Equal(t, tt.status, rec.Code)

			var e apiError
			body, _ := io.ReadAll(rec.Body)
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestPalette_MethodNotAllowed(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/v1/palette", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
