package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dustybot/dusty/internal/storage"
)

// AdminDeps holds dependencies for the bearer-authenticated admin API.
type AdminDeps struct {
	Store *storage.Store
	Token string
}

// NewAdminHandler returns the admin surface: chore and user inspection,
// chore deletion and user creation. Every route requires the configured
// bearer token.
func NewAdminHandler(deps AdminDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(BearerAuth(deps.Token))

	r.Get("/chores", handleListChores(deps))
	r.Get("/chores/{id}", handleGetChore(deps))
	r.Delete("/chores/{id}", handleDeleteChore(deps))
	r.Get("/users", handleListUsers(deps))
	r.Post("/users", handleCreateUser(deps))
	r.Get("/history", handleListHistory(deps))

	return r
}

func handleListChores(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			chores []storage.Chore
			err    error
		)
		if r.URL.Query().Get("unassigned") == "true" {
			chores, err = deps.Store.ListUnassignedChores()
		} else {
			chores, err = deps.Store.ListOpenChores(r.URL.Query().Get("assignee"))
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list chores: %v", err)
			return
		}
		if chores == nil {
			chores = []storage.Chore{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chores)
	}
}

func handleGetChore(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		chore, err := deps.Store.GetChore(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "chore not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get chore: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chore)
	}
}

func handleDeleteChore(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteChore(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "chore not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete chore: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleListUsers(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Store.ListUsers()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list users: %v", err)
			return
		}
		if users == nil {
			users = []storage.User{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(users)
	}
}

func handleCreateUser(deps AdminDeps) http.HandlerFunc {
	type request struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Aliases string `json:"aliases"`
		Admin   bool   `json:"admin"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name and phone are required")
			return
		}

		if _, err := deps.Store.GetUserByName(req.Name); err == nil {
			httpError(w, http.StatusConflict, "conflict", "user %q already exists", strings.ToLower(strings.TrimSpace(req.Name)))
			return
		} else if !errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to check user: %v", err)
			return
		}

		user, err := deps.Store.CreateUser(storage.User{
			Name:    req.Name,
			Phone:   strings.TrimSpace(req.Phone),
			Aliases: req.Aliases,
			Admin:   req.Admin,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create user: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(user)
	}
}

func handleListHistory(deps AdminDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		entries, err := deps.Store.ListHistory(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list history: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.HistoryEntry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
