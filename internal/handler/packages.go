package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/seblak-bageur/api/internal/database"
)

// TxBeginner starts a database transaction. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PackageStore defines the database methods needed by package handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PackageStore interface {
	ListPackages(ctx context.Context) ([]database.Package, error)
	GetPackage(ctx context.Context, id uuid.UUID) (database.Package, error)
	CreatePackage(ctx context.Context, arg database.CreatePackageParams) (database.Package, error)
	UpdatePackage(ctx context.Context, arg database.UpdatePackageParams) (database.Package, error)
	DeletePackage(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListPackageToppingIDs(ctx context.Context, packageID uuid.UUID) ([]uuid.UUID, error)
	CreatePackageTopping(ctx context.Context, arg database.CreatePackageToppingParams) error
	DeletePackageToppingsByPackage(ctx context.Context, packageID uuid.UUID) error
	GetTopping(ctx context.Context, id uuid.UUID) (database.Topping, error)
}

// NewPackageStore creates a PackageStore from a DBTX (pool or tx).
type NewPackageStore func(db database.DBTX) PackageStore

// PackageHandler handles package catalog CRUD endpoints. Package rows and
// their topping memberships are written together in one transaction.
type PackageHandler struct {
	store    PackageStore
	pool     TxBeginner
	newStore NewPackageStore
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(store PackageStore, pool TxBeginner, newStore NewPackageStore) *PackageHandler {
	return &PackageHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers package CRUD endpoints on the given Chi router.
// Expected to be mounted at /api/packages.
func (h *PackageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type packageRequest struct {
	Name       string   `json:"name"`
	Price      *int64   `json:"price"`
	ToppingIDs []string `json:"topping_ids"`
}

type packageResponse struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Price      int64       `json:"price"`
	ToppingIDs []uuid.UUID `json:"topping_ids"`
	CreatedAt  time.Time   `json:"created_at"`
}

func toPackageResponse(p database.Package, toppingIDs []uuid.UUID) packageResponse {
	if toppingIDs == nil {
		toppingIDs = []uuid.UUID{}
	}
	return packageResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		ToppingIDs: toppingIDs,
		CreatedAt:  p.CreatedAt,
	}
}

func (req packageRequest) validate() string {
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

// List returns all packages ordered by name.
func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	packages, err := h.store.ListPackages(r.Context())
	if err != nil {
		log.Printf("ERROR: list packages: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]packageResponse, len(packages))
	for i, p := range packages {
		toppingIDs, err := h.store.ListPackageToppingIDs(r.Context(), p.ID)
		if err != nil {
			log.Printf("ERROR: list package toppings: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = toPackageResponse(p, toppingIDs)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns one package with its topping membership.
func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid package ID"})
		return
	}

	pkg, err := h.store.GetPackage(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "package not found"})
			return
		}
		log.Printf("ERROR: get package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	toppingIDs, err := h.store.ListPackageToppingIDs(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list package toppings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPackageResponse(pkg, toppingIDs))
}

// Create adds a package and its topping memberships atomically.
func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	toppingIDs, err := parseToppingIDs(req.ToppingIDs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context()) //nolint:errcheck

	store := h.newStore(tx)

	pkg, err := store.CreatePackage(r.Context(), database.CreatePackageParams{
		Name:  req.Name,
		Price: *req.Price,
	})
	if err != nil {
		log.Printf("ERROR: create package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if ok := h.linkToppings(w, r, store, pkg.ID, toppingIDs); !ok {
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPackageResponse(pkg, toppingIDs))
}

// Update replaces a package's name and price and, when topping_ids is
// present, its topping membership.
func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid package ID"})
		return
	}

	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	replaceToppings := req.ToppingIDs != nil
	toppingIDs, err := parseToppingIDs(req.ToppingIDs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context()) //nolint:errcheck

	store := h.newStore(tx)

	pkg, err := store.UpdatePackage(r.Context(), database.UpdatePackageParams{
		ID:    id,
		Name:  req.Name,
		Price: *req.Price,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "package not found"})
			return
		}
		log.Printf("ERROR: update package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if replaceToppings {
		if err := store.DeletePackageToppingsByPackage(r.Context(), id); err != nil {
			log.Printf("ERROR: delete package toppings: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if ok := h.linkToppings(w, r, store, id, toppingIDs); !ok {
			return
		}
	} else {
		toppingIDs, err = store.ListPackageToppingIDs(r.Context(), id)
		if err != nil {
			log.Printf("ERROR: list package toppings: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPackageResponse(pkg, toppingIDs))
}

// Delete removes a package; its topping memberships cascade.
func (h *PackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid package ID"})
		return
	}

	if _, err := h.store.DeletePackage(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "package not found"})
			return
		}
		log.Printf("ERROR: delete package: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Helpers ---

func parseToppingIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("topping_ids[%d]: invalid topping ID", i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// linkToppings inserts the membership rows, verifying each topping exists.
// Writes the error response and returns false on failure.
func (h *PackageHandler) linkToppings(w http.ResponseWriter, r *http.Request, store PackageStore, packageID uuid.UUID, toppingIDs []uuid.UUID) bool {
	for i, tid := range toppingIDs {
		if _, err := store.GetTopping(r.Context(), tid); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": fmt.Sprintf("topping_ids[%d]: topping not found", i),
				})
				return false
			}
			log.Printf("ERROR: get topping: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return false
		}
		if err := store.CreatePackageTopping(r.Context(), database.CreatePackageToppingParams{
			PackageID: packageID,
			ToppingID: tid,
		}); err != nil {
			log.Printf("ERROR: create package topping: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return false
		}
	}
	return true
}
