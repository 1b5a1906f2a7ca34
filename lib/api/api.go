// Copyright (C) 2025 The Geocoding Authors.

// Package api implements runserver: a small supervised HTTP server
// exposing forward/reverse search and build metadata, with Prometheus
// metrics, over httprouter (§4.9).
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/adimajo/geocoding/lib/build"
	"github.com/adimajo/geocoding/lib/logger"
	"github.com/adimajo/geocoding/lib/reverse"
	"github.com/adimajo/geocoding/lib/search"
	"github.com/adimajo/geocoding/lib/store"
)

var l = logger.DefaultLogger

// Service is a suture.Service exposing /geocode, /near, /version, and
// /metrics over addr. The zero value is not usable; construct one with
// New.
type Service struct {
	suture.Service

	addr string
	db   *store.Database
	tree reverse.Tree

	listenerAddr net.Addr
}

// New wires a Service around an already-open database. tree may be nil,
// in which case /near always reports a 503, mirroring §4.7's "reverse
// search fails only if the Localisation table is empty" by treating an
// unbuilt tree the same way.
func New(addr string, db *store.Database, tree reverse.Tree) *Service {
	return &Service{addr: addr, db: db, tree: tree}
}

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_api_requests_total",
		Help: "Total number of API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geocoder_api_request_duration_seconds",
		Help:    "API request latency by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	qualityHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocoder_api_find_quality",
		Help:    "Distribution of forward-search quality codes returned.",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, qualityHistogram)
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer listener.Close()
	s.listenerAddr = listener.Addr()

	router := httprouter.New()
	router.GET("/geocode", s.handleGeocode)
	router.GET("/near", s.handleNear)
	router.GET("/version", s.handleVersion)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	srv := http.Server{
		Handler:  router,
		ErrorLog: log.New(io.Discard, "", 0),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	l.Infoln("runserver listening on", listener.Addr())

	select {
	case <-ctx.Done():
		l.Debugln("runserver: shutting down")
	case err = <-serveErr:
		l.Warnln("runserver:", err)
	}

	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(timeout); err != nil {
		srv.Close()
	}
	return nil
}

func (s *Service) handleGeocode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	defer func() { requestDuration.WithLabelValues("geocode").Observe(time.Since(start).Seconds()) }()

	q := r.URL.Query()
	postal := q.Get("postal")
	if postal == "" {
		requestsTotal.WithLabelValues("geocode", "bad_request").Inc()
		writeError(w, http.StatusBadRequest, "missing required parameter: postal")
		return
	}

	result := search.Find(s.db, postal, q.Get("city"), q.Get("address"))
	qualityHistogram.Observe(float64(result.Quality))
	requestsTotal.WithLabelValues("geocode", "ok").Inc()

	writeJSON(w, http.StatusOK, geocodeResponse{
		Longitude: result.Longitude,
		Latitude:  result.Latitude,
		Quality:   result.Quality,
		Commune:   result.Commune,
		Voie:      result.Voie,
	})
}

func (s *Service) handleNear(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	defer func() { requestDuration.WithLabelValues("near").Observe(time.Since(start).Seconds()) }()

	q := r.URL.Query()
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil {
		requestsTotal.WithLabelValues("near", "bad_request").Inc()
		writeError(w, http.StatusBadRequest, "lon and lat must be valid floating-point numbers")
		return
	}

	if s.tree == nil {
		requestsTotal.WithLabelValues("near", "unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, "reverse index not built")
		return
	}

	result, ok := reverse.Near(s.tree, s.db, lon, lat)
	if !ok {
		requestsTotal.WithLabelValues("near", "not_found").Inc()
		writeError(w, http.StatusNotFound, "no localisation available")
		return
	}

	requestsTotal.WithLabelValues("near", "ok").Inc()
	writeJSON(w, http.StatusOK, nearResponse{
		Longitude: result.Longitude,
		Latitude:  result.Latitude,
		Numero:    result.Number,
		Commune:   namedEntity{Nom: result.Commune},
		Voie:      namedEntity{Nom: result.Voie},
	})
}

func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version:     build.Version,
		LongVersion: build.LongVersion,
	})
}

type geocodeResponse struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Quality   int     `json:"quality"`
	Commune   string  `json:"commune"`
	Voie      string  `json:"voie"`
}

// namedEntity matches §6's `{nom}` shape for near's commune/voie fields.
type namedEntity struct {
	Nom string `json:"nom"`
}

type nearResponse struct {
	Longitude float64     `json:"longitude"`
	Latitude  float64     `json:"latitude"`
	Numero    uint32      `json:"numero"`
	Commune   namedEntity `json:"commune"`
	Voie      namedEntity `json:"voie"`
}

type versionResponse struct {
	Version     string `json:"version"`
	LongVersion string `json:"longVersion"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
