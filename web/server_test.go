// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
	"github.com/miramas-sig/adressage/session"
)

// stubGeocoder locates every address but the ones on "Rue Inconnue".
type stubGeocoder struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (*geocoding.Location, error) {
	if g.release != nil {
		g.once.Do(func() { close(g.started) })
		<-g.release
	}

	if address == "1 Rue Inconnue, Miramas, France" {
		return nil, &geocoding.GeocodingError{Type: geocoding.ErrorTypeNotFound, Message: "no results"}
	}

	return &geocoding.Location{Latitude: 43.5843217, Longitude: 5.0012345}, nil
}

var header = []any{
	"Parcelle", "Nom Prénom", "Situation", "Voie d'origine", "Adresse d'origine",
	"N° nouvelle numérotation", "Nouvelle voie", "Adresse d'élection",
}

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", adresse.DefaultSheet))

	all := append([][]any{{"Ville de Miramas"}, {"Nouvelle numérotation"}}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(adresse.DefaultSheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf.Bytes()
}

func validWorkbook(t *testing.T) []byte {
	t.Helper()

	return workbook(t,
		header,
		[]any{"AB 12", "DUPONT Jean", "Clos", "Chemin", "Lot 4", 12, "Rue Exemple", ""},
		[]any{"AB 13", "MARTIN Paul", "Clos", "Chemin", "Lot 5", nil, "Rue Exemple", ""},
		[]any{"AB 14", "DURAND Léa", "Val", "Chemin", "Lot 6", 1, "Rue Inconnue", ""},
	)
}

type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func setupServerTest(t *testing.T, g geocoding.Geocoder) *client {
	t.Helper()

	gin.SetMode(gin.TestMode)

	srv := NewServer(session.NewStore(time.Hour), g, adresse.DefaultOptions())

	return &client{t: t, router: srv.Router()}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}

	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(c.t, err)

	return c.do(req)
}

func (c *client) post(path string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(http.MethodPost, path, nil)
	require.NoError(c.t, err)

	return c.do(req)
}

func (c *client) upload(data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "adresses.xlsx")
	require.NoError(c.t, err)

	_, err = fw.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/upload", &body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))

	return v
}

func TestMapView(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	w := c.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `disableClusteringAtZoom:\s*17`, w.Body.String())
	assert.Contains(t, w.Body.String(), "43.5861")
	assert.Contains(t, w.Body.String(), "/api/export/shp")
}

func TestUploadGeocodeAndResults(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	w := c.upload(validWorkbook(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	up := decode[uploadResponse](t, w)
	assert.NotEmpty(t, up.SessionID)
	assert.Equal(t, 2, up.Count)
	require.Len(t, up.Preview, 2)
	assert.Equal(t, "12 Rue Exemple, Miramas, France", up.Preview[0].FullAddress)
	require.NotEmpty(t, c.cookies)
	assert.Equal(t, SessionCookie, c.cookies[0].Name)

	// nothing geocoded yet
	assert.Equal(t, http.StatusNotFound, c.get("/api/results").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/api/export/csv").Code)

	w = c.post("/api/geocode")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, session.Stats{Total: 2, Located: 1, NotFound: 1}, decode[session.Stats](t, w))

	progress := decode[progressResponse](t, c.get("/api/progress"))
	assert.Equal(t, progressResponse{Done: 2, Total: 2, Fraction: 1}, progress)

	results := decode[struct {
		Stats session.Stats `json:"stats"`
		Rows  []ResultRow   `json:"rows"`
	}](t, c.get("/api/results"))
	require.Len(t, results.Rows, 2)
	assert.Equal(t, 43.5843217, *results.Rows[0].Latitude)
	assert.Equal(t, geocoding.OutcomeNotFound, results.Rows[1].Outcome)
	assert.Nil(t, results.Rows[1].Latitude)

	filtered := decode[struct {
		Rows []ResultRow `json:"rows"`
	}](t, c.get("/api/results?q=inconnue"))
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "1 Rue Inconnue, Miramas, France", filtered.Rows[0].FullAddress)

	clusters := decode[[]Cluster](t, c.get("/api/clusters?res=9"))
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Count)
	assert.Equal(t, []string{"12 Rue Exemple, Miramas, France"}, clusters[0].Addresses)

	assert.Equal(t, http.StatusBadRequest, c.get("/api/clusters?res=42").Code)
}

func TestDownloads(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	require.Equal(t, http.StatusOK, c.upload(validWorkbook(t)).Code)
	require.Equal(t, http.StatusOK, c.post("/api/geocode").Code)

	tests := []struct {
		format      string
		fileName    string
		contentType string
	}{
		{"csv", "adresses.csv", "text/csv"},
		{"geojson", "adresses.geojson", "application/geo+json"},
		{"xlsx", "adresses.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"gpkg", "adresses.gpkg", "application/geopackage+sqlite3"},
		{"shp", "adresses_shapefile.zip", "application/zip"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := c.get("/api/export/" + tt.format)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+tt.fileName+`"`, w.Header().Get("Content-Disposition"))
			assert.NotEmpty(t, w.Body.Bytes())
		})
	}

	assert.Equal(t, http.StatusNotFound, c.get("/api/export/kml").Code)
}

func TestUploadRejectsBadWorkbooks(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	badHeader := workbook(t,
		[]any{"Parcelle", "Nom", "Situation", "Voie", "Adresse", "Montant", "Nouvelle voie", "Election"},
		[]any{"AB 12", "DUPONT Jean", "Clos", "Chemin", "Lot 4", 12, "Rue Exemple", ""},
	)
	w := c.upload(badHeader)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "schema mismatch")

	assert.Equal(t, http.StatusBadRequest, c.upload([]byte("not a workbook")).Code)

	req, err := http.NewRequest(http.MethodPost, "/api/upload", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, c.do(req).Code)
}

func TestGeocodeWithoutUpload(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	assert.Equal(t, http.StatusBadRequest, c.post("/api/geocode").Code)

	progress := decode[progressResponse](t, c.get("/api/progress"))
	assert.Equal(t, progressResponse{}, progress)
}

func TestConcurrentPassIsRejected(t *testing.T) {
	g := &stubGeocoder{started: make(chan struct{}), release: make(chan struct{})}
	c := setupServerTest(t, g)

	require.Equal(t, http.StatusOK, c.upload(validWorkbook(t)).Code)

	done := make(chan int)

	go func() {
		req, _ := http.NewRequest(http.MethodPost, "/api/geocode", nil)
		for _, cookie := range c.cookies {
			req.AddCookie(cookie)
		}

		w := httptest.NewRecorder()
		c.router.ServeHTTP(w, req)
		done <- w.Code
	}()

	<-g.started

	assert.Equal(t, http.StatusConflict, c.post("/api/geocode").Code)
	assert.True(t, decode[progressResponse](t, c.get("/api/progress")).Running)

	close(g.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestReset(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	require.Equal(t, http.StatusOK, c.upload(validWorkbook(t)).Code)
	require.Equal(t, http.StatusOK, c.post("/api/geocode").Code)

	saved := c.cookies

	assert.Equal(t, http.StatusNoContent, c.post("/api/reset").Code)

	c.cookies = saved
	assert.Equal(t, http.StatusNotFound, c.get("/api/results").Code)
	assert.Equal(t, http.StatusBadRequest, c.post("/api/geocode").Code)
}

func TestBasemaps(t *testing.T) {
	c := setupServerTest(t, &stubGeocoder{})

	basemaps := decode[[]Basemap](t, c.get("/api/basemaps"))
	require.Len(t, basemaps, 3)
	assert.Equal(t, "OpenStreetMap", basemaps[0].Name)
	assert.Equal(t, "Tiles © Esri", basemaps[1].Attribution)
	assert.Equal(t, "© OpenStreetMap, CartoDB", basemaps[2].Attribution)
}
