package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/seblak-bageur/api/internal/database"
	"github.com/seblak-bageur/api/internal/enum"
)

const maxQueueNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems        = errors.New("items are required for custom orders")
	ErrInvalidOrderType  = errors.New("invalid order_type")
	ErrInvalidQuantity   = errors.New("qty must be > 0")
	ErrInvalidToppingID  = errors.New("invalid topping_id")
	ErrInvalidPackageID  = errors.New("invalid package_id")
	ErrToppingNotFound   = errors.New("topping not found")
	ErrPackageNotFound   = errors.New("package not found")
	ErrPackageRequired   = errors.New("package_id is required for package orders")
	ErrPackageHasItems   = errors.New("items are not allowed for package orders")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTopping(ctx context.Context, id uuid.UUID) (database.Topping, error)
	GetPackage(ctx context.Context, id uuid.UUID) (database.Package, error)
	GetMaxQueueNumber(ctx context.Context, queueDate time.Time) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	CustomerName string
	OrderType    string
	PackageID    string
	Items        []OrderItemRequest
}

// OrderItemRequest is a single topping line on a custom order.
type OrderItemRequest struct {
	ToppingID string
	Qty       int32
}

// ReplaceOrderRequest is the input for a full order update. A nil
// CustomerName leaves the name untouched; ReplaceItems swaps the item set
// wholesale.
type ReplaceOrderRequest struct {
	CustomerName *string
	ReplaceItems bool
	Items        []OrderItemRequest
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order business logic: pricing, daily queue
// numbering, and the status state machine.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	loc      *time.Location
	now      func() time.Time
}

// NewOrderService creates a new OrderService. loc is the store timezone
// used for calendar-day scoping of queue numbers.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, loc *time.Location) *OrderService {
	return &OrderService{
		pool:     pool,
		store:    store,
		newStore: newStore,
		loc:      loc,
		now:      time.Now,
	}
}

// allowedTransitions defines valid status transitions. Key is current
// status, value is the set of statuses it can move to. "done" is terminal.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusInProgress},
	enum.OrderStatusInProgress: {enum.OrderStatusDone},
}

// QueueDate truncates t to its calendar day in the given timezone. The
// result carries only year/month/day and maps onto the queue_date column.
func QueueDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// NextQueueNumber returns the queue number the next order created on the
// given day would receive: max assigned + 1, or 1 on an empty day.
//
// This read is advisory only. Two callers may observe the same number
// before either order is persisted; the UNIQUE (queue_date, queue_number)
// constraint plus the retry loop in CreateOrder is what actually
// serializes assignment.
func (s *OrderService) NextQueueNumber(ctx context.Context, day time.Time) (int32, error) {
	max, err := s.store.GetMaxQueueNumber(ctx, QueueDate(day, s.loc))
	if err != nil {
		return 0, fmt.Errorf("get max queue number: %w", err)
	}
	return max + 1, nil
}

// CreateOrder validates, prices, and creates an order with its items
// atomically. Retries up to maxQueueNumberRetries times on queue number
// unique constraint violations (concurrent transactions reading the same
// MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	switch req.OrderType {
	case enum.OrderTypeCustom:
		if len(req.Items) == 0 {
			return nil, ErrEmptyItems
		}
	case enum.OrderTypePackage:
		if req.PackageID == "" {
			return nil, ErrPackageRequired
		}
		if len(req.Items) > 0 {
			return nil, ErrPackageHasItems
		}
	default:
		return nil, ErrInvalidOrderType
	}

	var lastErr error
	for attempt := 0; attempt < maxQueueNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isQueueNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isQueueNumberConflict checks if the error is a unique constraint
// violation on (queue_date, queue_number) (pgconn error code 23505).
func isQueueNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_queue_date_queue_number_key"
	}
	return false
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	queueDate := QueueDate(s.now(), s.loc)
	maxNum, err := store.GetMaxQueueNumber(ctx, queueDate)
	if err != nil {
		return nil, fmt.Errorf("get max queue number: %w", err)
	}
	queueNumber := maxNum + 1

	var total int64
	packageID := pgtype.UUID{}
	var itemParams []database.CreateOrderItemParams

	switch req.OrderType {
	case enum.OrderTypeCustom:
		// Unit prices are snapshotted from the catalog at creation time so
		// later topping price changes do not rewrite receipt history.
		for i, item := range req.Items {
			if item.Qty <= 0 {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
			}
			toppingID, err := uuid.Parse(item.ToppingID)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidToppingID)
			}
			topping, err := store.GetTopping(ctx, toppingID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("items[%d]: %w", i, ErrToppingNotFound)
				}
				return nil, fmt.Errorf("items[%d]: get topping: %w", i, err)
			}
			total += topping.Price * int64(item.Qty)
			itemParams = append(itemParams, database.CreateOrderItemParams{
				ToppingID: toppingID,
				Qty:       item.Qty,
				Price:     topping.Price,
			})
		}

	case enum.OrderTypePackage:
		pid, err := uuid.Parse(req.PackageID)
		if err != nil {
			return nil, ErrInvalidPackageID
		}
		pkg, err := store.GetPackage(ctx, pid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPackageNotFound
			}
			return nil, fmt.Errorf("get package: %w", err)
		}
		// Flat bundle price; never derived from the package's toppings.
		total = pkg.Price
		packageID = pgtype.UUID{Bytes: pid, Valid: true}
	}

	customerName := pgtype.Text{}
	if req.CustomerName != "" {
		customerName = pgtype.Text{String: req.CustomerName, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		QueueNumber:  queueNumber,
		QueueDate:    queueDate,
		CustomerName: customerName,
		OrderType:    req.OrderType,
		PackageID:    packageID,
		Status:       enum.OrderStatusPending,
		Total:        total,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, p := range itemParams {
		p.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// UpdateStatus moves an order through the kitchen state machine. Only the
// transitions in allowedTransitions are accepted; anything else is a
// validation failure, and "done" is terminal.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, error) {
	if !isValidStatus(newStatus) {
		return database.Order{}, ErrInvalidStatus
	}

	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := validateTransition(current.Status, newStatus); err != nil {
		return database.Order{}, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:     orderID,
		Status: newStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return updated, nil
}

// ReplaceOrder updates an order's customer name and, when ReplaceItems is
// set, swaps the item set wholesale (delete then reinsert) and recomputes
// the total from current catalog prices. Runs in a single transaction so
// the persisted total always matches the persisted items.
func (s *OrderService) ReplaceOrder(ctx context.Context, orderID uuid.UUID, req ReplaceOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	total := current.Total
	var items []database.OrderItem

	if req.ReplaceItems {
		if len(req.Items) == 0 {
			return nil, ErrEmptyItems
		}

		total = 0
		var itemParams []database.CreateOrderItemParams
		for i, item := range req.Items {
			if item.Qty <= 0 {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
			}
			toppingID, err := uuid.Parse(item.ToppingID)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidToppingID)
			}
			topping, err := store.GetTopping(ctx, toppingID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("items[%d]: %w", i, ErrToppingNotFound)
				}
				return nil, fmt.Errorf("items[%d]: get topping: %w", i, err)
			}
			total += topping.Price * int64(item.Qty)
			itemParams = append(itemParams, database.CreateOrderItemParams{
				OrderID:   orderID,
				ToppingID: toppingID,
				Qty:       item.Qty,
				Price:     topping.Price,
			})
		}

		if err := store.DeleteOrderItemsByOrder(ctx, orderID); err != nil {
			return nil, fmt.Errorf("delete order items: %w", err)
		}
		for _, p := range itemParams {
			item, err := store.CreateOrderItem(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("create order item: %w", err)
			}
			items = append(items, item)
		}
	}

	customerName := current.CustomerName
	if req.CustomerName != nil {
		customerName = pgtype.Text{}
		if *req.CustomerName != "" {
			customerName = pgtype.Text{String: *req.CustomerName, Valid: true}
		}
	}

	updated, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:           orderID,
		CustomerName: customerName,
		Total:        total,
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: updated, Items: items}, nil
}

// --- Helpers ---

func isValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusInProgress, enum.OrderStatusDone:
		return true
	}
	return false
}

func validateTransition(current, next string) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}
