package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/seblak-bageur/api/internal/database"
	"github.com/shopspring/decimal"
)

// deletedToppingName labels sales of toppings that were removed from the
// catalog after being ordered.
const deletedToppingName = "Topping Dihapus"

// ReportStore defines the DB methods needed by the report service.
// Satisfied by *database.Queries.
type ReportStore interface {
	ListCompletedOrdersByDay(ctx context.Context, queueDate time.Time) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetTopping(ctx context.Context, id uuid.UUID) (database.Topping, error)
	CountToppings(ctx context.Context) (int64, error)
}

// ToppingSales is the per-topping breakdown in a daily report.
type ToppingSales struct {
	ToppingID uuid.UUID `json:"topping_id"`
	Name      string    `json:"name"`
	Count     int64     `json:"count"`
	Revenue   int64     `json:"revenue"`
}

// DailyReport aggregates the completed orders of one calendar day.
// Revenue is the sum of order totals; the per-topping breakdown is folded
// from item snapshots and may differ for package orders (which carry no
// items).
type DailyReport struct {
	Date              string         `json:"date"`
	OrderCount        int64          `json:"order_count"`
	Revenue           int64          `json:"revenue"`
	AverageOrderValue string         `json:"average_order_value"`
	TopTopping        string         `json:"top_topping"`
	ToppingCount      int64          `json:"topping_count"`
	Toppings          []ToppingSales `json:"toppings"`
}

// ReportService computes read-only daily sales aggregates.
type ReportService struct {
	store ReportStore
	loc   *time.Location
}

// NewReportService creates a new ReportService.
func NewReportService(store ReportStore, loc *time.Location) *ReportService {
	return &ReportService{store: store, loc: loc}
}

// DailyReport folds the day's completed orders into sales KPIs and a
// per-topping breakdown keyed by topping id. Toppings deleted from the
// catalog since the sale are reported under a placeholder name instead of
// failing the aggregation.
func (s *ReportService) DailyReport(ctx context.Context, day time.Time) (*DailyReport, error) {
	queueDate := QueueDate(day, s.loc)

	orders, err := s.store.ListCompletedOrdersByDay(ctx, queueDate)
	if err != nil {
		return nil, fmt.Errorf("list completed orders: %w", err)
	}

	var revenue int64
	sales := make(map[uuid.UUID]*ToppingSales)
	names := make(map[uuid.UUID]string)

	for _, order := range orders {
		revenue += order.Total

		items, err := s.store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		for _, item := range items {
			entry, ok := sales[item.ToppingID]
			if !ok {
				name, err := s.toppingName(ctx, item.ToppingID, names)
				if err != nil {
					return nil, err
				}
				entry = &ToppingSales{ToppingID: item.ToppingID, Name: name}
				sales[item.ToppingID] = entry
			}
			entry.Count += int64(item.Qty)
			entry.Revenue += item.Price * int64(item.Qty)
		}
	}

	breakdown := make([]ToppingSales, 0, len(sales))
	for _, entry := range sales {
		breakdown = append(breakdown, *entry)
	}
	// Highest unit count first; ties broken by topping id so the output is
	// deterministic.
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Count != breakdown[j].Count {
			return breakdown[i].Count > breakdown[j].Count
		}
		return breakdown[i].ToppingID.String() < breakdown[j].ToppingID.String()
	})

	topTopping := ""
	if len(breakdown) > 0 {
		topTopping = breakdown[0].Name
	}

	toppingCount, err := s.store.CountToppings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count toppings: %w", err)
	}

	return &DailyReport{
		Date:              queueDate.Format("2006-01-02"),
		OrderCount:        int64(len(orders)),
		Revenue:           revenue,
		AverageOrderValue: averageOrderValue(revenue, int64(len(orders))),
		TopTopping:        topTopping,
		ToppingCount:      toppingCount,
		Toppings:          breakdown,
	}, nil
}

func (s *ReportService) toppingName(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]string) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}
	topping, err := s.store.GetTopping(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cache[id] = deletedToppingName
			return deletedToppingName, nil
		}
		return "", fmt.Errorf("get topping: %w", err)
	}
	cache[id] = topping.Name
	return topping.Name, nil
}

// averageOrderValue divides revenue by order count with two decimal
// places. Rupiah amounts are integers everywhere else; only this KPI
// divides, so only it goes through decimal.
func averageOrderValue(revenue, count int64) string {
	if count == 0 {
		return "0"
	}
	return decimal.NewFromInt(revenue).DivRound(decimal.NewFromInt(count), 2).String()
}
