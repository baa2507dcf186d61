package domain

import (
	"fmt"
	"math"
	"time"

	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
)

// Rules are the thresholds behind notification derivation.
type Rules struct {
	LowStockThreshold int64
	PromoExpiringDays int
}

func DefaultRules() Rules {
	return Rules{LowStockThreshold: 10, PromoExpiringDays: 7}
}

func NotificationID(t Type, productID string) string {
	switch t {
	case TypeLowStock:
		return "low-stock-" + productID
	case TypeExpiringPromo:
		return "expiring-promo-" + productID
	default:
		return string(t) + "-" + productID
	}
}

// DaysUntil is the ceiling of the day difference between now and at.
// Past instants yield zero or a negative count.
func DaysUntil(at, now time.Time) int {
	return int(math.Ceil(at.Sub(now).Hours() / 24))
}

// Changes lists what a reconciliation added and removed.
type Changes struct {
	Created []Notification
	Removed []Notification
}

func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Removed) == 0
}

// Derive reconciles existing against products. Notifications whose
// condition still holds are kept as they are, including their timestamp.
// Conditions that no longer hold, and products that no longer exist, retract
// theirs. New notifications are appended in product order.
func Derive(products []productdomain.Product, existing []Notification, now time.Time, rules Rules) ([]Notification, Changes) {
	wanted := make(map[string]Notification, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		for _, n := range conditions(p, now, rules) {
			if _, ok := wanted[n.ID]; ok {
				continue
			}
			wanted[n.ID] = n
			order = append(order, n.ID)
		}
	}

	var changes Changes
	next := make([]Notification, 0, len(wanted))
	kept := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		if _, ok := wanted[n.ID]; !ok {
			changes.Removed = append(changes.Removed, n)
			continue
		}
		if _, dup := kept[n.ID]; dup {
			continue
		}
		kept[n.ID] = struct{}{}
		next = append(next, n)
	}
	for _, id := range order {
		if _, ok := kept[id]; ok {
			continue
		}
		n := wanted[id]
		changes.Created = append(changes.Created, n)
		next = append(next, n)
	}
	return next, changes
}

func conditions(p productdomain.Product, now time.Time, rules Rules) []Notification {
	var out []Notification
	if p.Stock <= rules.LowStockThreshold {
		out = append(out, Notification{
			ID:        NotificationID(TypeLowStock, p.ID),
			Type:      TypeLowStock,
			Message:   fmt.Sprintf("Low stock for %s! (%d units left)", p.Name, p.Stock),
			ProductID: p.ID,
			Timestamp: now,
		})
	}
	if p.OnPromotion() && p.DiscountExpiration != nil {
		days := DaysUntil(*p.DiscountExpiration, now)
		if days > 0 && days <= rules.PromoExpiringDays {
			out = append(out, Notification{
				ID:        NotificationID(TypeExpiringPromo, p.ID),
				Type:      TypeExpiringPromo,
				Message:   fmt.Sprintf("Promotion for %s ends in %d days!", p.Name, days),
				ProductID: p.ID,
				Timestamp: now,
			})
		}
	}
	return out
}
