package database

import (
	"context"

	"github.com/google/uuid"
)

const listToppings = `
SELECT id, name, price, created_at FROM toppings ORDER BY name
`

func (q *Queries) ListToppings(ctx context.Context) ([]Topping, error) {
	rows, err := q.db.Query(ctx, listToppings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var toppings []Topping
	for rows.Next() {
		var t Topping
		if err := rows.Scan(&t.ID, &t.Name, &t.Price, &t.CreatedAt); err != nil {
			return nil, err
		}
		toppings = append(toppings, t)
	}
	return toppings, rows.Err()
}

const getTopping = `
SELECT id, name, price, created_at FROM toppings WHERE id = $1
`

func (q *Queries) GetTopping(ctx context.Context, id uuid.UUID) (Topping, error) {
	var t Topping
	err := q.db.QueryRow(ctx, getTopping, id).Scan(&t.ID, &t.Name, &t.Price, &t.CreatedAt)
	return t, err
}

const createTopping = `
INSERT INTO toppings (name, price)
VALUES ($1, $2)
RETURNING id, name, price, created_at
`

type CreateToppingParams struct {
	Name  string
	Price int64
}

func (q *Queries) CreateTopping(ctx context.Context, arg CreateToppingParams) (Topping, error) {
	var t Topping
	err := q.db.QueryRow(ctx, createTopping, arg.Name, arg.Price).Scan(&t.ID, &t.Name, &t.Price, &t.CreatedAt)
	return t, err
}

const updateTopping = `
UPDATE toppings SET name = $2, price = $3
WHERE id = $1
RETURNING id, name, price, created_at
`

type UpdateToppingParams struct {
	ID    uuid.UUID
	Name  string
	Price int64
}

func (q *Queries) UpdateTopping(ctx context.Context, arg UpdateToppingParams) (Topping, error) {
	var t Topping
	err := q.db.QueryRow(ctx, updateTopping, arg.ID, arg.Name, arg.Price).Scan(&t.ID, &t.Name, &t.Price, &t.CreatedAt)
	return t, err
}

const deleteTopping = `
DELETE FROM toppings WHERE id = $1 RETURNING id
`

func (q *Queries) DeleteTopping(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteTopping, id).Scan(&deleted)
	return deleted, err
}

const countOrderItemsByTopping = `
SELECT COUNT(*) FROM order_items WHERE topping_id = $1
`

// CountOrderItemsByTopping reports how many order items reference a topping.
// Used to refuse deletion of toppings that appear in order history.
func (q *Queries) CountOrderItemsByTopping(ctx context.Context, toppingID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrderItemsByTopping, toppingID).Scan(&count)
	return count, err
}

const countToppings = `
SELECT COUNT(*) FROM toppings
`

func (q *Queries) CountToppings(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countToppings).Scan(&count)
	return count, err
}
