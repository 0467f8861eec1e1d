package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/seblak-bageur/api/internal/database"
)

// ToppingStore defines the database methods needed by topping handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ToppingStore interface {
	ListToppings(ctx context.Context) ([]database.Topping, error)
	CreateTopping(ctx context.Context, arg database.CreateToppingParams) (database.Topping, error)
	UpdateTopping(ctx context.Context, arg database.UpdateToppingParams) (database.Topping, error)
	DeleteTopping(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CountOrderItemsByTopping(ctx context.Context, toppingID uuid.UUID) (int64, error)
}

// ToppingHandler handles topping catalog CRUD endpoints.
type ToppingHandler struct {
	store ToppingStore
}

// NewToppingHandler creates a new ToppingHandler.
func NewToppingHandler(store ToppingStore) *ToppingHandler {
	return &ToppingHandler{store: store}
}

// RegisterRoutes registers topping CRUD endpoints on the given Chi router.
// Expected to be mounted at /api/toppings.
func (h *ToppingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type toppingRequest struct {
	Name  string `json:"name"`
	Price *int64 `json:"price"`
}

type toppingResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func toToppingResponse(t database.Topping) toppingResponse {
	return toppingResponse{
		ID:        t.ID,
		Name:      t.Name,
		Price:     t.Price,
		CreatedAt: t.CreatedAt,
	}
}

func (req toppingRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.Price == nil {
		return "price is required"
	}
	if *req.Price < 0 {
		return "price must be >= 0"
	}
	return ""
}

// --- Handlers ---

// List returns the whole topping catalog ordered by name.
func (h *ToppingHandler) List(w http.ResponseWriter, r *http.Request) {
	toppings, err := h.store.ListToppings(r.Context())
	if err != nil {
		log.Printf("ERROR: list toppings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]toppingResponse, len(toppings))
	for i, t := range toppings {
		resp[i] = toToppingResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new topping to the catalog.
func (h *ToppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req toppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	topping, err := h.store.CreateTopping(r.Context(), database.CreateToppingParams{
		Name:  req.Name,
		Price: *req.Price,
	})
	if err != nil {
		log.Printf("ERROR: create topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toToppingResponse(topping))
}

// Update replaces a topping's name and price.
func (h *ToppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping ID"})
		return
	}

	var req toppingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	topping, err := h.store.UpdateTopping(r.Context(), database.UpdateToppingParams{
		ID:    id,
		Name:  req.Name,
		Price: *req.Price,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping not found"})
			return
		}
		log.Printf("ERROR: update topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toToppingResponse(topping))
}

// Delete removes a topping from the catalog. Toppings referenced by order
// items cannot be deleted; order history keeps its price snapshots intact.
func (h *ToppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid topping ID"})
		return
	}

	refs, err := h.store.CountOrderItemsByTopping(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: count order items for topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if refs > 0 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "topping is referenced by existing orders"})
		return
	}

	if _, err := h.store.DeleteTopping(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "topping not found"})
			return
		}
		log.Printf("ERROR: delete topping: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
