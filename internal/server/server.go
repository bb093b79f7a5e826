package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/LUCID/internal/config"
	"github.com/copyleftdev/LUCID/internal/dream"
	"github.com/copyleftdev/LUCID/internal/imaging"
	"github.com/copyleftdev/LUCID/internal/logging"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// DreamState represents the state of a dream synthesis job. It tracks the
// progress, status, and result of one optimization run. The state is
// thread-safe and can be accessed concurrently.
type DreamState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Target      dream.LayerTarget
	Result      *dream.Image
	Err         string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP and JSON-RPC server for the dream synthesis
// service. It manages dream jobs and provides endpoints to start, monitor,
// fetch, and cancel them.
type Server struct {
	cfg     *config.Config
	logger  Logger
	dreamer dream.Dreamer

	// Dream job state management
	dreams   map[string]*DreamState
	dreamsMu sync.RWMutex // Protects the dreams map
}

// NewServer creates a new server instance with the given config, logger,
// and dreamer. The logger parameter accepts any type that implements the
// Logger interface.
func NewServer(cfg *config.Config, logger Logger, dreamer dream.Dreamer) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		dreamer: dreamer,
		dreams:  make(map[string]*DreamState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/dream", s.handleDream)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/result/{id}", s.handleResult)
		r.Delete("/dream/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// dreamRequest is the wire format for starting a dream job. Unset numeric
// fields fall back to the configured defaults.
type dreamRequest struct {
	// Image is a base64-encoded PNG or JPEG.
	Image string `json:"image"`

	Layer    string `json:"layer"`
	Channels []int  `json:"channels,omitempty"`

	Iterations    *int     `json:"iterations,omitempty"`
	StepSize      *float64 `json:"step_size,omitempty"`
	TileSize      *int     `json:"tile_size,omitempty"`
	Octaves       *int     `json:"octaves,omitempty"`
	Rescale       *float64 `json:"rescale,omitempty"`
	Blend         *float64 `json:"blend,omitempty"`
	PreserveColor bool     `json:"preserve_color,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "dream.start":
		result, err = s.handleDreamStart(request.Params)
	case "dream.status":
		result, err = s.handleDreamStatus(request.Params)
	case "dream.cancel":
		err = s.handleDreamCancel(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// decodeParams converts the first positional JSON-RPC parameter into the
// typed request struct.
func decodeParams(params []interface{}, out interface{}) error {
	if len(params) == 0 {
		return fmt.Errorf("missing required parameters")
	}
	raw, err := json.Marshal(params[0])
	if err != nil {
		return fmt.Errorf("invalid parameter format: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid parameter format: %v", err)
	}
	return nil
}

// handleDreamStart handles the dream.start JSON-RPC method.
// It decodes the uploaded image and starts a new dream job.
// Returns: {"dream_id": "dream_123", "status": "pending"}
func (s *Server) handleDreamStart(params []interface{}) (interface{}, error) {
	var req dreamRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	if req.Image == "" {
		return nil, fmt.Errorf("image is required")
	}
	if req.Layer == "" {
		return nil, fmt.Errorf("layer is required")
	}

	target := dream.LayerTarget{Layer: req.Layer}
	if len(req.Channels) > 0 {
		if len(req.Channels) != 2 {
			return nil, fmt.Errorf("channels must be a [lo, hi) pair")
		}
		target.ChanLo, target.ChanHi = req.Channels[0], req.Channels[1]
	}
	if !target.Valid() {
		return nil, fmt.Errorf("invalid layer target")
	}

	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return nil, fmt.Errorf("image must be base64 encoded: %v", err)
	}
	img, err := imaging.DecodeLimit(bytes.NewReader(raw), s.cfg.Dream.MaxImageDim)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	octCfg := s.octaveConfig(&req)

	s.dreamsMu.Lock()
	if s.runningLocked() >= s.cfg.Dream.MaxJobs {
		s.dreamsMu.Unlock()
		return nil, fmt.Errorf("too many running dreams, retry later")
	}

	// Generate a unique ID for this job
	id := fmt.Sprintf("dream_%d", time.Now().UnixNano())

	// Create a cancellable context
	ctx, cancel := context.WithCancel(context.Background())

	state := &DreamState{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		Target:      target,
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}
	s.dreams[id] = state
	s.dreamsMu.Unlock()

	// Run the optimization in a goroutine
	go s.runDream(ctx, id, img, target, octCfg, state)

	return map[string]interface{}{
		"dream_id": id,
		"status":   "pending",
	}, nil
}

// octaveConfig merges request overrides onto the configured defaults.
func (s *Server) octaveConfig(req *dreamRequest) dream.OctaveConfig {
	d := s.cfg.Dream
	cfg := dream.OctaveConfig{
		Octaves: d.Octaves,
		Rescale: d.Rescale,
		Blend:   d.Blend,
		Ascent: dream.AscentConfig{
			Iterations:    d.Iterations,
			StepSize:      d.StepSize,
			TileSize:      d.TileSize,
			PreserveColor: d.PreserveColor || req.PreserveColor,
		},
	}
	if req.Iterations != nil {
		cfg.Ascent.Iterations = *req.Iterations
	}
	if req.StepSize != nil {
		cfg.Ascent.StepSize = *req.StepSize
	}
	if req.TileSize != nil {
		cfg.Ascent.TileSize = *req.TileSize
	}
	if req.Octaves != nil {
		cfg.Octaves = *req.Octaves
	}
	if req.Rescale != nil {
		cfg.Rescale = *req.Rescale
	}
	if req.Blend != nil {
		cfg.Blend = *req.Blend
	}
	return cfg
}

// runningLocked counts non-terminal jobs. Callers must hold dreamsMu.
func (s *Server) runningLocked() int {
	n := 0
	for _, st := range s.dreams {
		if st.Status == "pending" || st.Status == "running" {
			n++
		}
	}
	return n
}

// handleDreamStatus handles the dream.status JSON-RPC method.
// Expected parameters: {"dream_id": "dream_123"}
func (s *Server) handleDreamStatus(params []interface{}) (interface{}, error) {
	var req struct {
		DreamID string `json:"dream_id"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if req.DreamID == "" {
		return nil, fmt.Errorf("dream_id is required")
	}

	s.dreamsMu.RLock()
	defer s.dreamsMu.RUnlock()

	state, exists := s.dreams[req.DreamID]
	if !exists {
		return nil, fmt.Errorf("dream not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"layer":       state.Target.Layer,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}

	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != "" {
		response["error"] = state.Err
	}
	if state.Result != nil {
		response["result_shape"] = []int{state.Result.Height, state.Result.Width, state.Result.Channels}
	}

	return response, nil
}

// handleDreamCancel handles the dream.cancel JSON-RPC method.
// Expected parameters: {"dream_id": "dream_123"}
func (s *Server) handleDreamCancel(params []interface{}) error {
	var req struct {
		DreamID string `json:"dream_id"`
	}
	if err := decodeParams(params, &req); err != nil {
		return err
	}
	if req.DreamID == "" {
		return fmt.Errorf("dream_id is required")
	}

	s.dreamsMu.Lock()
	defer s.dreamsMu.Unlock()

	state, exists := s.dreams[req.DreamID]
	if !exists {
		return fmt.Errorf("dream not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		// Already in a terminal state
		return fmt.Errorf("cannot cancel dream with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Dream cancelled", map[string]interface{}{
		"dream_id": req.DreamID,
	})

	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// runDream executes one dream job in a goroutine.
func (s *Server) runDream(ctx context.Context, id string, img *dream.Image, target dream.LayerTarget, cfg dream.OctaveConfig, state *DreamState) {
	s.dreamsMu.Lock()
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.dreamsMu.Unlock()

	dreamsStarted.Inc()
	start := time.Now()

	result, err := s.dreamer.Optimize(ctx, img, target, cfg)

	s.dreamsMu.Lock()
	defer s.dreamsMu.Unlock()

	if state.Status == "cancelled" {
		// The cancel handler already finalized the state.
		return
	}

	dreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		dreamsFailed.Inc()
		s.logger.Error("Dream failed", map[string]interface{}{
			"dream_id": id,
			"error":    err.Error(),
		})
		state.Status = "failed"
		state.Err = err.Error()
	} else {
		dreamsCompleted.Inc()
		state.Status = "completed"
		state.Result = result
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// Close cleans up resources
func (s *Server) Close() error {
	// Cancel all running dream jobs
	s.dreamsMu.Lock()
	defer s.dreamsMu.Unlock()

	for _, st := range s.dreams {
		if st.CancelFunc != nil {
			st.CancelFunc()
		}
	}
	return nil
}

// handleDream handles the HTTP POST /dream endpoint for starting a new job
func (s *Server) handleDream(w http.ResponseWriter, r *http.Request) {
	var reqBody dreamRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	// Call the JSON-RPC handler
	result, err := s.handleDreamStart([]interface{}{reqBody})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles the HTTP GET /status/:id endpoint
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dreamID := chi.URLParam(r, "id")
	if dreamID == "" {
		http.Error(w, "Missing dream ID", http.StatusBadRequest)
		return
	}

	result, err := s.handleDreamStatus([]interface{}{map[string]interface{}{
		"dream_id": dreamID,
	}})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleResult handles the HTTP GET /result/:id endpoint, returning the
// finished image as a PNG.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	dreamID := chi.URLParam(r, "id")
	if dreamID == "" {
		http.Error(w, "Missing dream ID", http.StatusBadRequest)
		return
	}

	s.dreamsMu.RLock()
	state, exists := s.dreams[dreamID]
	var result *dream.Image
	var status string
	if exists {
		result = state.Result
		status = state.Status
	}
	s.dreamsMu.RUnlock()

	if !exists {
		http.Error(w, "Dream not found", http.StatusNotFound)
		return
	}
	if status != "completed" || result == nil {
		http.Error(w, fmt.Sprintf("Dream is %s", status), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.EncodePNG(w, result); err != nil {
		s.logger.Error("Failed to encode result", map[string]interface{}{
			"dream_id": dreamID,
			"error":    err.Error(),
		})
	}
}

// handleCancel handles the HTTP DELETE /dream/:id endpoint
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	dreamID := chi.URLParam(r, "id")
	if dreamID == "" {
		http.Error(w, "Missing dream ID", http.StatusBadRequest)
		return
	}

	err := s.handleDreamCancel([]interface{}{map[string]interface{}{
		"dream_id": dreamID,
	}})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "cancellation requested",
	})
}
