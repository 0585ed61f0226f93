// Command shortener serves an in-memory URL shortener that load tests can be
// pointed at locally.
//
//	go run ./scripts/testservers/shortener -port 8080
//	shortload --host http://localhost:8080 --users 20 --duration 30s
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

func main() {
	port := flag.Int("port", 8080, "Listening port")
	maxID := flag.Int("max-id", 4096, "Identifiers are assigned in [0, max-id] and wrap around")
	latency := flag.Duration("latency", 0, "Artificial delay added to every response")
	failRate := flag.Float64("fail-rate", 0, "Fraction of requests answered with 500")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	srv := newShortener(*maxID)
	srv.latency = *latency
	srv.failRate = *failRate

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("shortener listening", zap.String("addr", addr), zap.Int("max_id", *maxID))
	if err := http.ListenAndServe(addr, srv); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

type entry struct {
	URL  string `json:"url"`
	Hits int64  `json:"hits"`
}

type shortener struct {
	mu      sync.Mutex
	entries map[int]*entry
	next    int
	maxID   int

	latency  time.Duration
	failRate float64
	rnd      *rand.Rand
}

func newShortener(maxID int) *shortener {
	return &shortener{
		entries: make(map[int]*entry),
		maxID:   maxID,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *shortener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	if s.failRate > 0 && s.roll() < s.failRate {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "injected failure"})
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		s.handleShorten(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := strconv.Atoi(parts[0])
	if err != nil || len(parts) > 2 || (len(parts) == 2 && parts[1] != "stats") {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		s.handleStats(w, id)
	case r.Method == http.MethodGet:
		s.handleRedirect(w, r, id)
	case r.Method == http.MethodPut:
		s.handleModify(w, r, id)
	case r.Method == http.MethodDelete:
		s.handleDelete(w, id)
	default:
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (s *shortener) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *shortener) handleShorten(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "url is required"})
		return
	}

	s.mu.Lock()
	id := s.next
	s.next++
	if s.next > s.maxID {
		s.next = 0
	}
	s.entries[id] = &entry{URL: target}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *shortener) handleRedirect(w http.ResponseWriter, r *http.Request, id int) {
	s.mu.Lock()
	e, ok := s.entries[id]
	var target string
	if ok {
		e.Hits++
		target = e.URL
	}
	s.mu.Unlock()

	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (s *shortener) handleStats(w http.ResponseWriter, id int) {
	s.mu.Lock()
	e, ok := s.entries[id]
	var snapshot entry
	if ok {
		snapshot = *e
	}
	s.mu.Unlock()

	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *shortener) handleModify(w http.ResponseWriter, r *http.Request, id int) {
	target := r.URL.Query().Get("url")

	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && target != "" {
		e.URL = target
	}
	s.mu.Unlock()

	if !ok || target == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown id or missing url"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *shortener) handleDelete(w http.ResponseWriter, id int) {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown id"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
