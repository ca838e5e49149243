// Package web exposes the classification and application-listing API.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jobtrail/jobtrail/internal/record"
	jobsync "github.com/jobtrail/jobtrail/internal/sync"
)

const (
	defaultRateLimit  = 30
	defaultRateWindow = time.Minute
)

type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) filterRecent(times []time.Time, windowStart time.Time) []time.Time {
	n := 0
	for _, t := range times {
		if t.After(windowStart) {
			times[n] = t
			n++
		}
	}
	return times[:n]
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := rl.filterRecent(rl.requests[key], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return false
	}
	rl.requests[key] = append(recent, now)
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		windowStart := time.Now().Add(-rl.window)
		for key, times := range rl.requests {
			recent := rl.filterRecent(times, windowStart)
			if len(recent) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = recent
			}
		}
		rl.mu.Unlock()
	}
}

// Syncer runs mailbox sync passes. Satisfied by jobsync.Engine.
type Syncer interface {
	FullSync(ctx context.Context) (*jobsync.Result, error)
	IncrementalSync(ctx context.Context, since time.Time, existing record.Set) (*jobsync.Result, error)
}

type Server struct {
	engine      Syncer
	store       jobsync.StateStore
	authToken   string
	port        int
	rateLimiter *RateLimiter
	httpServer  *http.Server

	// syncInFlight keeps API-triggered passes single-writer: the record
	// set and watermark must only ever be touched by one pass at a time.
	syncInFlight atomic.Bool
}

func NewServer(port int, authToken string, engine Syncer, store jobsync.StateStore) *Server {
	return &Server{
		engine:      engine,
		store:       store,
		authToken:   authToken,
		port:        port,
		rateLimiter: NewRateLimiter(defaultRateLimit, defaultRateWindow),
	}
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server: listening on :%d", s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.rateLimit)
		r.Get("/classify", s.handleClassify)
		r.Post("/classify/incremental", s.handleClassifyIncremental)
		r.Get("/applications", s.handleApplications)
	})

	return r
}

// authenticate requires "Authorization: Bearer <token>" on every API route.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(r.RemoteAddr) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// beginSync claims the in-flight slot for a sync pass. When another pass
// is already running it answers 409 and reports false; the caller must
// release the slot when it reports true.
func (s *Server) beginSync(w http.ResponseWriter) bool {
	if !s.syncInFlight.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a sync pass is already running"})
		return false
	}
	return true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleClassify runs a full mailbox sweep and returns the resulting
// record set. The swept set replaces the stored one.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if !s.beginSync(w) {
		return
	}
	defer s.syncInFlight.Store(false)

	result, err := s.engine.FullSync(r.Context())
	if err != nil {
		writeSyncError(w, err)
		return
	}
	if err := s.store.Save(result.Records, result.Watermark); err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sortedByDate(result.Records.List()))
}

type incrementalRequest struct {
	// LastFetchTime is epoch milliseconds; messages after it are fetched.
	LastFetchTime int64 `json:"lastFetchTime"`
}

// handleClassifyIncremental fetches and classifies messages received after
// lastFetchTime, merges them into the stored set, and returns only the
// records produced by this pass.
func (s *Server) handleClassifyIncremental(w http.ResponseWriter, r *http.Request) {
	var req incrementalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !s.beginSync(w) {
		return
	}
	defer s.syncInFlight.Store(false)

	existing, _, err := s.store.Load()
	if err != nil {
		writeSyncError(w, err)
		return
	}

	since := time.UnixMilli(req.LastFetchTime)
	result, err := s.engine.IncrementalSync(r.Context(), since, existing)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	if err := s.store.Save(result.Records, result.Watermark); err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sortedByDate(result.New))
}

// handleApplications serves the stored set without touching the mailbox.
// An optional ?status= filter narrows the result.
func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	set, _, err := s.store.Load()
	if err != nil {
		writeSyncError(w, err)
		return
	}

	records := set.List()
	if status := r.URL.Query().Get("status"); status != "" {
		if !record.ValidStatus(status) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown status %q", status)})
			return
		}
		filtered := records[:0]
		for _, rec := range records {
			if rec.ApplicationStatus == record.Status(status) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	writeJSON(w, http.StatusOK, sortedByDate(records))
}

// sortedByDate orders newest first; records without a date sort last,
// ties break on id so responses are stable.
func sortedByDate(records []record.ApplicationRecord) []record.ApplicationRecord {
	sort.SliceStable(records, func(i, j int) bool {
		di, dj := records[i].Date, records[j].Date
		switch {
		case di == nil && dj == nil:
			return records[i].ID < records[j].ID
		case di == nil:
			return false
		case dj == nil:
			return true
		case di.Equal(*dj):
			return records[i].ID < records[j].ID
		}
		return di.After(*dj)
	})
	if records == nil {
		records = []record.ApplicationRecord{}
	}
	return records
}

func writeSyncError(w http.ResponseWriter, err error) {
	log.Printf("Server: request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "sync failed",
		"details": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Server: response encoding failed: %v", err)
	}
}
