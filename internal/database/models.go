package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// All money values are integer rupiah (smallest currency unit).

type User struct {
	ID       uuid.UUID
	Username string
	Password string
}

type Topping struct {
	ID        uuid.UUID
	Name      string
	Price     int64
	CreatedAt time.Time
}

type Package struct {
	ID        uuid.UUID
	Name      string
	Price     int64
	CreatedAt time.Time
}

type PackageTopping struct {
	PackageID uuid.UUID
	ToppingID uuid.UUID
}

type Order struct {
	ID           uuid.UUID
	QueueNumber  int32
	QueueDate    time.Time
	CustomerName pgtype.Text
	OrderType    string
	PackageID    pgtype.UUID
	Status       string
	Total        int64
	CreatedAt    time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ToppingID uuid.UUID
	Qty       int32
	Price     int64
}
