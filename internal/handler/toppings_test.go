package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/seblak-bageur/api/internal/database"
	"github.com/seblak-bageur/api/internal/handler"
)

// --- Mock store ---

type mockToppingStore struct {
	toppings map[uuid.UUID]database.Topping
	orderRef map[uuid.UUID]int64 // topping ID -> order item references
}

func newMockToppingStore() *mockToppingStore {
	return &mockToppingStore{
		toppings: make(map[uuid.UUID]database.Topping),
		orderRef: make(map[uuid.UUID]int64),
	}
}

func (m *mockToppingStore) addTopping(name string, price int64) database.Topping {
	t := database.Topping{ID: uuid.New(), Name: name, Price: price, CreatedAt: time.Now()}
	m.toppings[t.ID] = t
	return t
}

func (m *mockToppingStore) ListToppings(_ context.Context) ([]database.Topping, error) {
	result := make([]database.Topping, 0, len(m.toppings))
	for _, t := range m.toppings {
		result = append(result, t)
	}
	return result, nil
}

func (m *mockToppingStore) CreateTopping(_ context.Context, arg database.CreateToppingParams) (database.Topping, error) {
	t := database.Topping{ID: uuid.New(), Name: arg.Name, Price: arg.Price, CreatedAt: time.Now()}
	m.toppings[t.ID] = t
	return t, nil
}

func (m *mockToppingStore) UpdateTopping(_ context.Context, arg database.UpdateToppingParams) (database.Topping, error) {
	t, ok := m.toppings[arg.ID]
	if !ok {
		return database.Topping{}, pgx.ErrNoRows
	}
	t.Name = arg.Name
	t.Price = arg.Price
	m.toppings[t.ID] = t
	return t, nil
}

func (m *mockToppingStore) DeleteTopping(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, ok := m.toppings[id]; !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.toppings, id)
	return id, nil
}

func (m *mockToppingStore) CountOrderItemsByTopping(_ context.Context, toppingID uuid.UUID) (int64, error) {
	return m.orderRef[toppingID], nil
}

// --- Helpers ---

func setupToppingRouter(store *mockToppingStore) *chi.Mux {
	h := handler.NewToppingHandler(store)
	r := chi.NewRouter()
	r.Route("/api/toppings", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestToppingList(t *testing.T) {
	store := newMockToppingStore()
	store.addTopping("Ceker", 3000)
	store.addTopping("Bakso", 2000)
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "GET", "/api/toppings", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeListResponse(t, rr); len(resp) != 2 {
		t.Errorf("expected 2 toppings, got %d", len(resp))
	}
}

func TestToppingCreate(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "POST", "/api/toppings", map[string]interface{}{
		"name":  "Siomay",
		"price": 2500,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Siomay" {
		t.Errorf("name: got %v, want Siomay", resp["name"])
	}
	if resp["price"].(float64) != 2500 {
		t.Errorf("price: got %v, want 2500", resp["price"])
	}
	if len(store.toppings) != 1 {
		t.Errorf("store should hold 1 topping, got %d", len(store.toppings))
	}
}

func TestToppingCreate_MissingPrice(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "POST", "/api/toppings", map[string]interface{}{
		"name": "Siomay",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestToppingCreate_NegativePrice(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "POST", "/api/toppings", map[string]interface{}{
		"name":  "Siomay",
		"price": -100,
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestToppingUpdate(t *testing.T) {
	store := newMockToppingStore()
	topping := store.addTopping("Ceker", 3000)
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "PUT", "/api/toppings/"+topping.ID.String(), map[string]interface{}{
		"name":  "Ceker Pedas",
		"price": 3500,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.toppings[topping.ID].Price != 3500 {
		t.Errorf("price not updated: got %d", store.toppings[topping.ID].Price)
	}
}

func TestToppingUpdate_NotFound(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "PUT", "/api/toppings/"+uuid.New().String(), map[string]interface{}{
		"name":  "Ceker",
		"price": 3000,
	})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestToppingDelete(t *testing.T) {
	store := newMockToppingStore()
	topping := store.addTopping("Ceker", 3000)
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "DELETE", "/api/toppings/"+topping.ID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if _, exists := store.toppings[topping.ID]; exists {
		t.Error("topping was not deleted")
	}
}

func TestToppingDelete_ReferencedByOrders(t *testing.T) {
	store := newMockToppingStore()
	topping := store.addTopping("Ceker", 3000)
	store.orderRef[topping.ID] = 3
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "DELETE", "/api/toppings/"+topping.ID.String(), nil)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if _, exists := store.toppings[topping.ID]; !exists {
		t.Error("referenced topping must not be deleted")
	}
}

func TestToppingDelete_InvalidID(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "DELETE", "/api/toppings/not-a-uuid", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
