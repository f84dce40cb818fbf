// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

// Package web serves the map page and the JSON API of a geocoding session.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/export"
	"github.com/miramas-sig/adressage/geocoding"
	"github.com/miramas-sig/adressage/session"
	"github.com/miramas-sig/adressage/spatial"
)

const (
	// SessionCookie carries the session id.
	SessionCookie = "adressage_session"
	// DefaultAddr is the listen address of the server.
	DefaultAddr = "localhost:8080"
	// PreviewSize is the number of records echoed after an upload.
	PreviewSize = 10
	// DefaultClusterResolution is the H3 resolution used by /api/clusters.
	DefaultClusterResolution = 9

	maxUploadBytes = 32 << 20
	noDataMessage  = "Aucune donnée géocodée disponible."
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server is the HTTP surface of the geocoding tool.
type Server struct {
	store    *session.Store
	geocoder geocoding.Geocoder
	opts     adresse.Options
}

// NewServer creates a server geocoding with g and keeping its sessions in store.
func NewServer(store *session.Store, g geocoding.Geocoder, opts adresse.Options) *Server {
	return &Server{store: store, geocoder: g, opts: opts}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = maxUploadBytes
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", s.mapView)

	api := r.Group("/api")
	api.POST("/upload", s.upload)
	api.POST("/geocode", s.geocode)
	api.GET("/progress", s.getProgress)
	api.GET("/results", s.listResults)
	api.GET("/clusters", s.listClusters)
	api.GET("/basemaps", s.listBasemaps)
	api.GET("/export/:format", s.download)
	api.POST("/reset", s.reset)

	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Printf("Listening on http://%s", addr)

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}

func (s *Server) mapView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.html", gin.H{
		"Center":           MapCenter,
		"Zoom":             MapZoom,
		"MaxZoom":          MapMaxZoom,
		"ClusterUntilZoom": ClusterUntilZoom,
		"Basemaps":         Basemaps,
		"Formats":          export.Formats(),
		"NoData":           noDataMessage,
	})
}

// currentSession returns the session of the request cookie, if it is still alive.
func (s *Server) currentSession(ctx *gin.Context) (*session.Session, bool) {
	id, err := ctx.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}

	return s.store.Get(id)
}

func (s *Server) setCookie(ctx *gin.Context, id string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(SessionCookie, id, maxAge, "/", "", false, true)
}

type uploadResponse struct {
	SessionID string            `json:"session_id"`
	Source    string            `json:"source"`
	Count     int               `json:"count"`
	Preview   []*adresse.Record `json:"preview"`
}

func (s *Server) upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file form field is required"})

		return
	}

	f, err := fh.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer f.Close()

	records, err := adresse.Load(f, s.opts)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, adresse.ErrSchemaMismatch) || errors.Is(err, adresse.ErrSheetNotFound) {
			status = http.StatusUnprocessableEntity
		}

		log.Printf("Rejected upload %q: %v", fh.Filename, err)
		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	sess, ok := s.currentSession(ctx)
	if !ok {
		sess = s.store.Create()
	}

	s.setCookie(ctx, sess.ID, 0)
	sess.SetPrepared(fh.Filename, records)

	log.Printf("Session %s: %d addresses prepared from %q", sess.ID, len(records), fh.Filename)

	preview := records
	if len(preview) > PreviewSize {
		preview = preview[:PreviewSize]
	}

	ctx.JSON(http.StatusOK, uploadResponse{
		SessionID: sess.ID,
		Source:    fh.Filename,
		Count:     len(records),
		Preview:   preview,
	})
}

func (s *Server) geocode(ctx *gin.Context) {
	sess, ok := s.currentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "upload a workbook first"})

		return
	}

	table, err := sess.Geocode(ctx.Request.Context(), s.geocoder, nil)

	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, table.Stats())
	case errors.Is(err, session.ErrNothingPrepared):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "upload a workbook first"})
	case errors.Is(err, session.ErrPassRunning), errors.Is(err, session.ErrPassDiscarded):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Printf("Session %s: %v", sess.ID, err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding interrupted"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type progressResponse struct {
	Done     int     `json:"done"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
	Running  bool    `json:"running"`
}

func (s *Server) getProgress(ctx *gin.Context) {
	var p session.Progress
	if sess, ok := s.currentSession(ctx); ok {
		p = sess.Progress()
	}

	ctx.JSON(http.StatusOK, progressResponse{
		Done:     p.Done,
		Total:    p.Total,
		Fraction: p.Fraction(),
		Running:  p.Running,
	})
}

// ResultRow is one row of /api/results.
type ResultRow struct {
	FullAddress string            `json:"adresse_complete"`
	Latitude    *float64          `json:"latitude"`
	Longitude   *float64          `json:"longitude"`
	Outcome     geocoding.Outcome `json:"outcome"`
}

// storedTable returns the table of the session, answering 404 when there is none.
func (s *Server) storedTable(ctx *gin.Context) (*session.Table, bool) {
	sess, ok := s.currentSession(ctx)
	if !ok || sess.Table() == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": noDataMessage})

		return nil, false
	}

	return sess.Table(), true
}

func (s *Server) listResults(ctx *gin.Context) {
	table, ok := s.storedTable(ctx)
	if !ok {
		return
	}

	filtered := table.Filter(ctx.Query("q"))

	rows := make([]ResultRow, 0, filtered.Len())
	for _, row := range filtered.Rows() {
		rows = append(rows, ResultRow{
			FullAddress: row.Record.FullAddress,
			Latitude:    row.Result.Latitude,
			Longitude:   row.Result.Longitude,
			Outcome:     row.Result.Outcome,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"stats": filtered.Stats(), "rows": rows})
}

// Cluster is one H3 cell of /api/clusters.
type Cluster struct {
	Cell      string   `json:"cell"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Count     int      `json:"count"`
	Radius    float64  `json:"radius_m"`
	Addresses []string `json:"addresses"`
}

func (s *Server) listClusters(ctx *gin.Context) {
	resolution := DefaultClusterResolution

	if v := ctx.Query("res"); v != "" {
		res, err := strconv.Atoi(v)
		if err != nil || res < 0 || res > 15 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "res must be an integer between 0 and 15"})

			return
		}

		resolution = res
	}

	table, ok := s.storedTable(ctx)
	if !ok {
		return
	}

	filtered := table.Filter(ctx.Query("q"))
	points, indices := filtered.Points()
	rows := filtered.Rows()

	groups, err := spatial.GroupByCell(points, resolution)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	spatial.LargestFirst(groups)

	clusters := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		addresses := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			addresses = append(addresses, rows[indices[m]].Record.FullAddress)
		}

		clusters = append(clusters, Cluster{
			Cell:      g.Cell,
			Latitude:  g.Center.Lat,
			Longitude: g.Center.Lng,
			Count:     g.Count,
			Radius:    g.Radius,
			Addresses: addresses,
		})
	}

	ctx.JSON(http.StatusOK, clusters)
}

func (s *Server) listBasemaps(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, Basemaps)
}

func (s *Server) download(ctx *gin.Context) {
	format, err := export.Lookup(ctx.Param("format"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	table, ok := s.storedTable(ctx)
	if !ok {
		return
	}

	data, err := format.Encode(table)
	if err != nil {
		log.Printf("Export %s failed: %v", format.Name, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName))
	ctx.Data(http.StatusOK, format.ContentType, data)
}

func (s *Server) reset(ctx *gin.Context) {
	if sess, ok := s.currentSession(ctx); ok {
		sess.Reset()
		s.store.Delete(sess.ID)
	}

	s.setCookie(ctx, "", -1)
	ctx.Status(http.StatusNoContent)
}
