package store

import (
	"context"
	"time"

	"github.com/strudel-science/runmonitor/core/filter"
)

// FilterEventType defines the events a FilterStore emits.
type FilterEventType string

const (
	FilterSet     FilterEventType = "filter:set"
	FilterRemoved FilterEventType = "filter:remove"
	FiltersClear  FilterEventType = "filter:clear"
)

// FilterEvent describes a change to a store's active filters.
type FilterEvent struct {
	Type      FilterEventType      `json:"type"`
	Timestamp int64                `json:"timestamp"` // Unix milliseconds.
	StoreID   string               `json:"storeId"`
	Field     string               `json:"field,omitempty"`
	Filter    *filter.ActiveFilter `json:"filter,omitempty"`
	Active    int                  `json:"active"` // Number of active filters after the change.
}

// EventCallbackFunction receives store events.
type EventCallbackFunction func(ctx context.Context, event FilterEvent) error

// RegisterSubscriptionOptions configures a subscription.
type RegisterSubscriptionOptions struct {
	Event       FilterEventType
	Label       *string
	Description *string
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Event       FilterEventType `json:"event"`
	Label       *string         `json:"label,omitempty"`
	Description *string         `json:"description,omitempty"`
	Unsubscribe func()          `json:"-"`
}

func newEvent(eventType FilterEventType, storeID, field string, f *filter.ActiveFilter, active int) FilterEvent {
	return FilterEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		StoreID:   storeID,
		Field:     field,
		Filter:    f,
		Active:    active,
	}
}
