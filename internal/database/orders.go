package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, queue_number, queue_date, customer_name, order_type, package_id, status, total, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.QueueNumber, &o.QueueDate, &o.CustomerName,
		&o.OrderType, &o.PackageID, &o.Status, &o.Total, &o.CreatedAt)
	return o, err
}

const createOrder = `
INSERT INTO orders (queue_number, queue_date, customer_name, order_type, package_id, status, total)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	QueueNumber  int32
	QueueDate    time.Time
	CustomerName pgtype.Text
	OrderType    string
	PackageID    pgtype.UUID
	Status       string
	Total        int64
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.QueueNumber, arg.QueueDate, arg.CustomerName, arg.OrderType,
		arg.PackageID, arg.Status, arg.Total))
}

const createOrderItem = `
INSERT INTO order_items (order_id, topping_id, qty, price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, topping_id, qty, price
`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ToppingID uuid.UUID
	Qty       int32
	Price     int64
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.ToppingID, arg.Qty, arg.Price).
		Scan(&it.ID, &it.OrderID, &it.ToppingID, &it.Qty, &it.Price)
	return it, err
}

const getOrder = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrders = `
SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC
`

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrdersByDay = `
SELECT ` + orderColumns + ` FROM orders
WHERE created_at >= $1 AND created_at <= $2
ORDER BY created_at DESC
`

type ListOrdersByDayParams struct {
	StartOfDay time.Time
	EndOfDay   time.Time
}

func (q *Queries) ListOrdersByDay(ctx context.Context, arg ListOrdersByDayParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByDay, arg.StartOfDay, arg.EndOfDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listCompletedOrdersByDay = `
SELECT ` + orderColumns + ` FROM orders
WHERE queue_date = $1 AND status = 'done'
ORDER BY created_at
`

func (q *Queries) ListCompletedOrdersByDay(ctx context.Context, queueDate time.Time) ([]Order, error) {
	rows, err := q.db.Query(ctx, listCompletedOrdersByDay, queueDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, topping_id, qty, price FROM order_items WHERE order_id = $1
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ToppingID, &it.Qty, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const getMaxQueueNumber = `
SELECT COALESCE(MAX(queue_number), 0) FROM orders WHERE queue_date = $1
`

// GetMaxQueueNumber returns the highest queue number assigned on the given
// calendar day, or 0 when the day has no orders yet.
func (q *Queries) GetMaxQueueNumber(ctx context.Context, queueDate time.Time) (int32, error) {
	var max int32
	err := q.db.QueryRow(ctx, getMaxQueueNumber, queueDate).Scan(&max)
	return max, err
}

const updateOrderStatus = `
UPDATE orders SET status = $2
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

const updateOrder = `
UPDATE orders SET customer_name = $2, total = $3
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID           uuid.UUID
	CustomerName pgtype.Text
	Total        int64
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrder, arg.ID, arg.CustomerName, arg.Total))
}

const deleteOrderItemsByOrder = `
DELETE FROM order_items WHERE order_id = $1
`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	return err
}
