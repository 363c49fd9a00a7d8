package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrLineItemInvalidInput indicates the candidate line item failed validation.
	ErrLineItemInvalidInput = errors.New("line item: invalid input")
)

// LineItemRegistryDeps bundles collaborators for the registry. All fields are
// optional; zero values get production defaults.
type LineItemRegistryDeps struct {
	IDGenerator func() string
	Clock       func() time.Time
}

// LineItemRegistry manages the ordered line-item list of an estimate.
// Lists are treated as immutable values; every operation returns a new slice.
type LineItemRegistry struct {
	idGenerator func() string
}

// NewLineItemRegistry constructs a registry with ULID id assignment.
func NewLineItemRegistry(deps LineItemRegistryDeps) *LineItemRegistry {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string {
			return ulid.MustNew(ulid.Timestamp(clock().UTC()), rand.Reader).String()
		}
	}
	return &LineItemRegistry{idGenerator: idGenerator}
}

// Add validates the candidate, assigns a fresh id, and appends it. Insertion
// order is display order.
func (r *LineItemRegistry) Add(list []LineItem, candidate LineItem) ([]LineItem, error) {
	candidate.Name = strings.TrimSpace(candidate.Name)
	if candidate.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrLineItemInvalidInput)
	}
	if candidate.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrLineItemInvalidInput)
	}
	if candidate.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrLineItemInvalidInput)
	}
	if candidate.LaborHours < 0 {
		return nil, fmt.Errorf("%w: labor hours must not be negative", ErrLineItemInvalidInput)
	}

	candidate.ID = r.idGenerator()
	next := make([]LineItem, 0, len(list)+1)
	next = append(next, list...)
	next = append(next, candidate)
	return next, nil
}

// Normalize returns a copy of the list in which every item carries a unique
// id: blank ids are replaced with fresh ones, duplicate ids are rejected.
// Item order is preserved.
func (r *LineItemRegistry) Normalize(list []LineItem) ([]LineItem, error) {
	if len(list) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(list))
	next := make([]LineItem, len(list))
	for i, item := range list {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			item.ID = r.idGenerator()
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate line item id %q", ErrLineItemInvalidInput, item.ID)
		}
		seen[item.ID] = struct{}{}
		next[i] = item
	}
	return next, nil
}

// Remove drops the first item with the given id. Absent ids are a no-op.
func (r *LineItemRegistry) Remove(list []LineItem, id string) []LineItem {
	for i, item := range list {
		if item.ID == id {
			next := make([]LineItem, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			return next
		}
	}
	return list
}
