// Package devicesim is a local stand-in for the Ruph Automations backend
// and a controller's realtime store, so the client can be developed and
// tested without hardware or a deployed backend.
package devicesim

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ruphautomations/ruphctl/internal/domain"
)

type user struct {
	id       int
	name     string
	password string
}

// Server holds the simulator's in-memory world: registered users, issued
// tokens, seeded controllers and the raw relay values.
type Server struct {
	mu          sync.Mutex
	logger      *slog.Logger
	baseURL     string
	users       map[string]user
	tokens      map[string]string // access token -> email
	controllers map[string]*domain.Controller
	relays      [domain.NumCircuits]bool
	nextUserID  int
	tokenSeq    int
}

// NewServer seeds one unactivated controller per batch ID so activation has
// something to claim.
func NewServer(logger *slog.Logger, batchIDs ...string) *Server {
	s := &Server{
		logger:      logger,
		users:       make(map[string]user),
		tokens:      make(map[string]string),
		controllers: make(map[string]*domain.Controller),
		nextUserID:  1,
	}
	for i, batchID := range batchIDs {
		s.controllers[batchID] = &domain.Controller{
			ID:           i + 1,
			ControllerID: fmt.Sprintf("CTR-%04d", i+1),
		}
	}
	return s
}

// SetBaseURL fixes the absolute URL circuit endpoints are built from; call
// it once the listener address is known.
func (s *Server) SetBaseURL(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = strings.TrimRight(base, "/")
	for _, c := range s.controllers {
		s.fillEndpoints(c)
	}
}

func (s *Server) fillEndpoints(c *domain.Controller) {
	c.CircuitEndpoint1 = s.baseURL + "/device/circuit/1"
	c.CircuitEndpoint2 = s.baseURL + "/device/circuit/2"
	c.CircuitEndpoint3 = s.baseURL + "/device/circuit/3"
	c.CircuitEndpoint4 = s.baseURL + "/device/circuit/4"
}

// RawRelays returns the current raw relay values, for assertions.
func (s *Server) RawRelays() [domain.NumCircuits]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relays
}

// SetRawRelay forces one raw relay value, as a physical button would.
func (s *Server) SetRawRelay(circuit int, raw bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relays[circuit-1] = raw
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/log-in", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/system/get-all-controllers/", s.handleListControllers)
			r.Get("/system/get-all-controllers", s.handleListControllers)
			r.Get("/system/get-controller/{id}", s.handleGetController)
			r.Patch("/system/update-controller/{batchID}", s.handleActivate)
		})
	})
	r.Get("/device/relays.json", s.handleRelays)
	r.Patch("/device/circuit/{circuit}", s.handleCircuit)
	return r
}

func respond(w http.ResponseWriter, status int, response any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"response":        response,
		"responseMessage": msg,
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			respond(w, http.StatusUnauthorized, nil, "missing access token")
			return
		}
		token := strings.TrimSpace(auth[7:])
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			respond(w, http.StatusUnauthorized, nil, "invalid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// issueTokens mints a fresh pair. Old access tokens stay valid: the real
// backend tolerates briefly-stale tokens during opportunistic rotation.
func (s *Server) issueTokens(email string) (string, string) {
	s.tokenSeq++
	access := fmt.Sprintf("access-%d", s.tokenSeq)
	refresh := fmt.Sprintf("refresh-%d", s.tokenSeq)
	s.tokens[access] = email
	return access, refresh
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		respond(w, http.StatusBadRequest, nil, "name, email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		respond(w, http.StatusConflict, nil, "account already exists")
		return
	}
	u := user{id: s.nextUserID, name: req.Name, password: req.Password}
	s.nextUserID++
	s.users[req.Email] = u
	access, refresh := s.issueTokens(req.Email)
	respond(w, http.StatusOK, map[string]any{
		"userProfile":  map[string]any{"id": u.id, "name": u.name, "email": req.Email},
		"accessToken":  access,
		"refreshToken": refresh,
	}, "account created")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, nil, "malformed request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Email]
	if !ok || u.password != req.Password {
		respond(w, http.StatusUnauthorized, nil, "invalid credentials")
		return
	}
	access, refresh := s.issueTokens(req.Email)
	respond(w, http.StatusOK, map[string]any{
		"userProfile":  map[string]any{"id": u.id, "name": u.name, "email": req.Email},
		"accessToken":  access,
		"refreshToken": refresh,
	}, "logged in")
}

func (s *Server) handleListControllers(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	systems := make([]domain.Controller, 0)
	for _, c := range s.controllers {
		if c.IsActivated && c.OwnerEmail == email {
			systems = append(systems, *c)
		}
	}
	access, refresh := s.issueTokens(email)
	respond(w, http.StatusOK, map[string]any{
		"systems":      systems,
		"accessToken":  access,
		"refreshToken": refresh,
	}, "")
}

func (s *Server) handleGetController(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, nil, "controller id must be numeric")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.controllers {
		if c.ID == id {
			access, refresh := s.issueTokens(c.OwnerEmail)
			respond(w, http.StatusOK, map[string]any{
				"system":       *c,
				"accessToken":  access,
				"refreshToken": refresh,
			}, "")
			return
		}
	}
	respond(w, http.StatusNotFound, nil, "controller not found")
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	var req struct {
		OwnerEmail     string `json:"ownerEmail"`
		ControllerName string `json:"controllerName"`
		IsActivated    bool   `json:"isActivated"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, nil, "malformed request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.controllers[batchID]
	if !ok {
		respond(w, http.StatusNotFound, nil, "unknown batch id")
		return
	}
	c.OwnerEmail = req.OwnerEmail
	c.ControllerName = req.ControllerName
	c.IsActivated = req.IsActivated
	s.fillEndpoints(c)
	s.logger.Info("controller activated", "batch_id", batchID, "owner", req.OwnerEmail)
	respond(w, http.StatusOK, map[string]any{"system": *c}, "controller activated")
}

func (s *Server) handleRelays(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, domain.NumCircuits)
	for i, raw := range s.relays {
		v := 0
		if raw {
			v = 1
		}
		out[fmt.Sprintf("relay%d", i+1)] = v
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleCircuit(w http.ResponseWriter, r *http.Request) {
	circuit, err := strconv.Atoi(chi.URLParam(r, "circuit"))
	if err != nil || circuit < 1 || circuit > domain.NumCircuits {
		http.Error(w, "bad circuit", http.StatusBadRequest)
		return
	}
	var body map[string]json.Number
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	raw, ok := body[fmt.Sprintf("relay%d", circuit)]
	if !ok {
		http.Error(w, "missing relay value", http.StatusBadRequest)
		return
	}
	v, err := raw.Int64()
	if err != nil || (v != 0 && v != 1) {
		http.Error(w, "relay value must be 0 or 1", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.relays[circuit-1] = v == 1
	s.mu.Unlock()
	s.logger.Info("relay written", "circuit", circuit, "raw", v)
	w.WriteHeader(http.StatusOK)
}
