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
	"github.com/seblak-bageur/api/internal/enum"
	"github.com/seblak-bageur/api/internal/escpos"
	"github.com/seblak-bageur/api/internal/service"
	"github.com/seblak-bageur/api/internal/ws"
)

// deletedToppingName labels order item lines whose topping was removed
// from the catalog after the order was placed.
const deletedToppingName = "Topping Dihapus"

// OrderStore defines the read-side database methods needed by order
// handlers. Writes go through the order service.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]database.Order, error)
	ListOrdersByDay(ctx context.Context, arg database.ListOrdersByDayParams) ([]database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetTopping(ctx context.Context, id uuid.UUID) (database.Topping, error)
	GetPackage(ctx context.Context, id uuid.UUID) (database.Package, error)
}

// OrderHandler handles order endpoints: cashier creation, kitchen status
// updates, and receipt encoding.
type OrderHandler struct {
	service   *service.OrderService
	store     OrderStore
	hub       *ws.Hub
	storeName string
	loc       *time.Location
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc *service.OrderService, store OrderStore, hub *ws.Hub, storeName string, loc *time.Location) *OrderHandler {
	return &OrderHandler{
		service:   svc,
		store:     store,
		hub:       hub,
		storeName: storeName,
		loc:       loc,
	}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /api/orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Get("/{id}/receipt", h.Receipt)
}

// --- Request / Response types ---

type orderItemInput struct {
	ToppingID string `json:"topping_id"`
	Qty       int32  `json:"qty"`
}

type createOrderRequest struct {
	CustomerName string           `json:"customer_name"`
	OrderType    string           `json:"order_type"`
	PackageID    string           `json:"package_id"`
	Items        []orderItemInput `json:"items"`
}

type updateOrderRequest struct {
	CustomerName *string          `json:"customer_name"`
	Items        []orderItemInput `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ToppingID uuid.UUID `json:"topping_id"`
	Name      string    `json:"name"`
	Qty       int32     `json:"qty"`
	Price     int64     `json:"price"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	QueueNumber  int32               `json:"queue_number"`
	QueueDate    string              `json:"queue_date"`
	CustomerName *string             `json:"customer_name"`
	OrderType    string              `json:"order_type"`
	PackageID    *uuid.UUID          `json:"package_id"`
	Status       string              `json:"status"`
	Total        int64               `json:"total"`
	CreatedAt    time.Time           `json:"created_at"`
	Items        []orderItemResponse `json:"items"`
}

func toOrderResponse(o database.Order, items []orderItemResponse) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		QueueNumber: o.QueueNumber,
		QueueDate:   o.QueueDate.Format("2006-01-02"),
		OrderType:   o.OrderType,
		Status:      o.Status,
		Total:       o.Total,
		CreatedAt:   o.CreatedAt,
		Items:       items,
	}
	if items == nil {
		resp.Items = []orderItemResponse{}
	}
	if o.CustomerName.Valid {
		name := o.CustomerName.String
		resp.CustomerName = &name
	}
	if o.PackageID.Valid {
		id := uuid.UUID(o.PackageID.Bytes)
		resp.PackageID = &id
	}
	return resp
}

// --- Handlers ---

// List returns orders, optionally filtered to one calendar day via
// ?date=YYYY-MM-DD (interpreted in the store timezone).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		orders []database.Order
		err    error
	)

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		day, parseErr := time.ParseInLocation("2006-01-02", dateStr, h.loc)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		orders, err = h.store.ListOrdersByDay(r.Context(), database.ListOrdersByDayParams{
			StartOfDay: day,
			EndOfDay:   day.AddDate(0, 0, 1).Add(-time.Nanosecond),
		})
	} else {
		orders, err = h.store.ListOrders(r.Context())
	}
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := h.loadItems(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toOrderResponse(o, items))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create creates an order and broadcasts order.created to all websocket
// clients.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.OrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemRequest{ToppingID: item.ToppingID, Qty: item.Qty}
	}

	result, err := h.service.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerName: req.CustomerName,
		OrderType:    req.OrderType,
		PackageID:    req.PackageID,
		Items:        items,
	})
	if err != nil {
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(result.Order, h.itemResponses(r.Context(), result.Items))
	h.broadcastOrder(ws.EventOrderCreated, resp)

	writeJSON(w, http.StatusCreated, resp)
}

// Get returns one order with its items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.loadItems(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// Update replaces an order's customer name and, when items are present,
// its item set (total recomputed from current catalog prices).
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.OrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemRequest{ToppingID: item.ToppingID, Qty: item.Qty}
	}

	result, err := h.service.ReplaceOrder(r.Context(), id, service.ReplaceOrderRequest{
		CustomerName: req.CustomerName,
		ReplaceItems: req.Items != nil,
		Items:        items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case isOrderValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	var itemResponses []orderItemResponse
	if req.Items != nil {
		itemResponses = h.itemResponses(r.Context(), result.Items)
	} else {
		itemResponses, err = h.loadItems(r.Context(), id)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusOK, toOrderResponse(result.Order, itemResponses))
}

// UpdateStatus moves an order through the kitchen state machine and
// broadcasts order.status_updated on success.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	items, err := h.loadItems(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order, items)
	h.broadcastOrder(ws.EventOrderStatusUpdated, resp)

	writeJSON(w, http.StatusOK, resp)
}

// Receipt encodes the order as ESC/POS printer bytes.
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	receipt := escpos.Receipt{
		StoreName:   h.storeName,
		QueueNumber: order.QueueNumber,
		Total:       order.Total,
		Date:        order.CreatedAt.In(h.loc),
	}
	if order.CustomerName.Valid {
		receipt.CustomerName = order.CustomerName.String
	}

	switch order.OrderType {
	case enum.OrderTypePackage:
		// A package prints as a single line at the flat bundle price.
		name := deletedToppingName
		if order.PackageID.Valid {
			pkg, err := h.store.GetPackage(r.Context(), uuid.UUID(order.PackageID.Bytes))
			if err == nil {
				name = pkg.Name
			} else if !errors.Is(err, pgx.ErrNoRows) {
				log.Printf("ERROR: get package: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		}
		receipt.Items = []escpos.Item{{Name: name, Qty: 1, Price: order.Total}}

	default:
		items, err := h.loadItems(r.Context(), id)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		receipt.Items = make([]escpos.Item, len(items))
		for i, item := range items {
			receipt.Items[i] = escpos.Item{Name: item.Name, Qty: item.Qty, Price: item.Price}
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(receipt.Encode()) //nolint:errcheck
}

// QueueNumber returns the queue number the next order would receive
// today. Advisory: the number is not reserved.
func (h *OrderHandler) QueueNumber(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.loc)
	next, err := h.service.NextQueueNumber(r.Context(), now)
	if err != nil {
		log.Printf("ERROR: next queue number: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"queue_number": next,
		"date":         now.Format("2006-01-02"),
	})
}

// --- Helpers ---

// loadItems fetches an order's items with topping names resolved.
func (h *OrderHandler) loadItems(ctx context.Context, orderID uuid.UUID) ([]orderItemResponse, error) {
	items, err := h.store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return h.itemResponses(ctx, items), nil
}

// itemResponses resolves topping names for item rows. Toppings deleted
// from the catalog keep their snapshotted price but lose their name.
func (h *OrderHandler) itemResponses(ctx context.Context, items []database.OrderItem) []orderItemResponse {
	resp := make([]orderItemResponse, len(items))
	for i, item := range items {
		name := deletedToppingName
		if topping, err := h.store.GetTopping(ctx, item.ToppingID); err == nil {
			name = topping.Name
		}
		resp[i] = orderItemResponse{
			ID:        item.ID,
			ToppingID: item.ToppingID,
			Name:      name,
			Qty:       item.Qty,
			Price:     item.Price,
		}
	}
	return resp
}

func (h *OrderHandler) broadcastOrder(eventType string, payload orderResponse) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload: %v", err)
		return
	}
	h.hub.Broadcast(ws.Event{Type: eventType, Payload: data})
}

// isOrderValidationError reports whether err is a client input problem
// rather than a server failure.
func isOrderValidationError(err error) bool {
	for _, target := range []error{
		service.ErrEmptyItems,
		service.ErrInvalidOrderType,
		service.ErrInvalidQuantity,
		service.ErrInvalidToppingID,
		service.ErrInvalidPackageID,
		service.ErrToppingNotFound,
		service.ErrPackageNotFound,
		service.ErrPackageRequired,
		service.ErrPackageHasItems,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
