package domain

import (
	"context"
	"errors"
	"time"
)

type Type string

const (
	TypeLowStock      Type = "low_stock"
	TypeExpiringPromo Type = "expiring_promo"
)

// Notification is process-lifetime only. ID is derived from Type and
// ProductID, so at most one exists per pair.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	ProductID string    `json:"productId"`
	Timestamp time.Time `json:"timestamp"`
}

// Style is the presentation mapping for a notification type.
type Style struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var styles = map[Type]Style{
	TypeLowStock:      {Icon: "⚠️", Color: "red"},
	TypeExpiringPromo: {Icon: "⏳", Color: "yellow"},
}

func (t Type) Style() Style {
	return styles[t]
}

// View is the API shape: the notification plus its display style.
type View struct {
	Notification
	Style Style `json:"style"`
}

type Service interface {
	List(ctx context.Context) []Notification
	Dismiss(ctx context.Context, id string) error
	Recompute(ctx context.Context, trigger string)
}

var ErrNotFound = errors.New("not_found")
