// Package store holds the active filter state of one table instance. Each
// FilterStore is an explicit object handed to whoever filters the table, so
// several tables can keep independent selections side by side.
package store

import (
	"fmt"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/filter"
)

// AnyValue is the widget option meaning "no constraint".
const AnyValue = "any"

// FilterStore keeps at most one active filter per field, in the order fields
// were first set, and publishes every change on an event bus.
type FilterStore struct {
	id      uuid.UUID
	mu      sync.RWMutex
	filters []filter.ActiveFilter

	bus           *events.TypedEventBus[FilterEvent]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex

	logger *zap.Logger
}

// New creates an empty FilterStore.
func New(logger *zap.Logger) (*FilterStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[FilterEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	id := uuid.New()
	return &FilterStore{
		id:            id,
		bus:           bus,
		subscriptions: map[string]*SubscriptionInfo{},
		logger:        logger.With(zap.String("store_id", id.String())),
	}, nil
}

// ID identifies the store in emitted events.
func (s *FilterStore) ID() string {
	return s.id.String()
}

// Set adds f, replacing any filter already active on the same field.
func (s *FilterStore) Set(f filter.ActiveFilter) {
	s.mu.Lock()
	replaced := false
	for i := range s.filters {
		if s.filters[i].Field == f.Field {
			s.filters[i] = f
			replaced = true
			break
		}
	}
	if !replaced {
		s.filters = append(s.filters, f)
	}
	active := len(s.filters)
	s.mu.Unlock()

	s.logger.Debug("Filter set", zap.String("field", f.Field), zap.String("operator", string(f.Operator)))
	s.emit(newEvent(FilterSet, s.ID(), f.Field, &f, active))
}

// SetValue applies a raw widget value to field the way the filter widgets do:
// nil, "", "any" and empty lists clear the field; a list that contains "any"
// clears it too; anything else is validated and set.
func (s *FilterStore) SetValue(field string, op filter.Operator, raw any) error {
	if isEmptySelection(raw) {
		s.Remove(field)
		return nil
	}

	if list, ok := filter.ToList(raw); ok {
		kept := make(filter.List, 0, len(list))
		for _, v := range list {
			if v == AnyValue {
				s.Remove(field)
				return nil
			}
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			s.Remove(field)
			return nil
		}
		raw = kept
	}

	f, err := filter.NewActiveFilter(field, op, raw)
	if err != nil {
		return err
	}
	s.Set(f)
	return nil
}

// Remove clears the filter on field. It reports whether one was active.
func (s *FilterStore) Remove(field string) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.filters {
		if s.filters[i].Field == field {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.filters = append(s.filters[:idx], s.filters[idx+1:]...)
	active := len(s.filters)
	s.mu.Unlock()

	s.logger.Debug("Filter removed", zap.String("field", field))
	s.emit(newEvent(FilterRemoved, s.ID(), field, nil, active))
	return true
}

// Clear removes every active filter.
func (s *FilterStore) Clear() {
	s.mu.Lock()
	s.filters = nil
	s.mu.Unlock()

	s.logger.Debug("Filters cleared")
	s.emit(newEvent(FiltersClear, s.ID(), "", nil, 0))
}

// Active returns a copy of the active filters.
func (s *FilterStore) Active() []filter.ActiveFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]filter.ActiveFilter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Get returns the active filter on field, if any.
func (s *FilterStore) Get(field string) (filter.ActiveFilter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.filters {
		if f.Field == field {
			return f, true
		}
	}
	return filter.ActiveFilter{}, false
}

// Len returns the number of active filters.
func (s *FilterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filters)
}

// RegisterSubscription registers a callback for one event type and returns
// its subscription ID.
func (s *FilterStore) RegisterSubscription(options RegisterSubscriptionOptions) string {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	unsubscribe := s.bus.Subscribe(string(options.Event), options.Callback)
	callbackID := uuid.New().String()

	s.subscriptions[callbackID] = &SubscriptionInfo{
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return callbackID
}

// UnregisterSubscription removes a subscription registered earlier.
func (s *FilterStore) UnregisterSubscription(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	info := s.subscriptions[id]
	if info != nil {
		info.Unsubscribe()
		delete(s.subscriptions, id)
	}
}

// Subscriptions lists the registered subscriptions.
func (s *FilterStore) Subscriptions() []SubscriptionInfo {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	out := make([]SubscriptionInfo, 0, len(s.subscriptions))
	for _, info := range s.subscriptions {
		out = append(out, *info)
	}
	return out
}

func (s *FilterStore) emit(event FilterEvent) {
	if s.bus != nil {
		s.bus.Emit(string(event.Type), event)
	}
}

func isEmptySelection(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == AnyValue
	default:
		return false
	}
}
