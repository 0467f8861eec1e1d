package database

import (
	"context"

	"github.com/google/uuid"
)

const listPackages = `
SELECT id, name, price, created_at FROM packages ORDER BY name
`

func (q *Queries) ListPackages(ctx context.Context) ([]Package, error) {
	rows, err := q.db.Query(ctx, listPackages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

const getPackage = `
SELECT id, name, price, created_at FROM packages WHERE id = $1
`

func (q *Queries) GetPackage(ctx context.Context, id uuid.UUID) (Package, error) {
	var p Package
	err := q.db.QueryRow(ctx, getPackage, id).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	return p, err
}

const createPackage = `
INSERT INTO packages (name, price)
VALUES ($1, $2)
RETURNING id, name, price, created_at
`

type CreatePackageParams struct {
	Name  string
	Price int64
}

func (q *Queries) CreatePackage(ctx context.Context, arg CreatePackageParams) (Package, error) {
	var p Package
	err := q.db.QueryRow(ctx, createPackage, arg.Name, arg.Price).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	return p, err
}

const updatePackage = `
UPDATE packages SET name = $2, price = $3
WHERE id = $1
RETURNING id, name, price, created_at
`

type UpdatePackageParams struct {
	ID    uuid.UUID
	Name  string
	Price int64
}

func (q *Queries) UpdatePackage(ctx context.Context, arg UpdatePackageParams) (Package, error) {
	var p Package
	err := q.db.QueryRow(ctx, updatePackage, arg.ID, arg.Name, arg.Price).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	return p, err
}

const deletePackage = `
DELETE FROM packages WHERE id = $1 RETURNING id
`

func (q *Queries) DeletePackage(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deletePackage, id).Scan(&deleted)
	return deleted, err
}

const listPackageToppingIDs = `
SELECT topping_id FROM package_toppings WHERE package_id = $1 ORDER BY topping_id
`

func (q *Queries) ListPackageToppingIDs(ctx context.Context, packageID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listPackageToppingIDs, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const createPackageTopping = `
INSERT INTO package_toppings (package_id, topping_id)
VALUES ($1, $2)
`

type CreatePackageToppingParams struct {
	PackageID uuid.UUID
	ToppingID uuid.UUID
}

func (q *Queries) CreatePackageTopping(ctx context.Context, arg CreatePackageToppingParams) error {
	_, err := q.db.Exec(ctx, createPackageTopping, arg.PackageID, arg.ToppingID)
	return err
}

const deletePackageToppingsByPackage = `
DELETE FROM package_toppings WHERE package_id = $1
`

func (q *Queries) DeletePackageToppingsByPackage(ctx context.Context, packageID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deletePackageToppingsByPackage, packageID)
	return err
}
