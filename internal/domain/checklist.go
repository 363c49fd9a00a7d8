package domain

import (
	"errors"
	"fmt"
)

// ChecklistCategory identifies one of the fixed inspection points reviewed at reception.
type ChecklistCategory string

const (
	ChecklistTires   ChecklistCategory = "tires"
	ChecklistLights  ChecklistCategory = "lights"
	ChecklistBrakes  ChecklistCategory = "brakes"
	ChecklistFluids  ChecklistCategory = "fluids"
	ChecklistBattery ChecklistCategory = "battery"
)

// ChecklistState is the tri-state condition recorded per category.
type ChecklistState string

const (
	// ChecklistStateOK indicates the inspected point is in good condition.
	ChecklistStateOK ChecklistState = "ok"
	// ChecklistStateAttention indicates the inspected point needs service work.
	ChecklistStateAttention ChecklistState = "requires_attention"
	// ChecklistStateNotApplicable is the default before the advisor reviews the point.
	ChecklistStateNotApplicable ChecklistState = "n/a"
)

// ErrInvalidCategory is returned when a checklist update names an unknown category.
var ErrInvalidCategory = errors.New("checklist: invalid category")

// ChecklistCategories lists the fixed category set in display order.
var ChecklistCategories = []ChecklistCategory{
	ChecklistTires,
	ChecklistLights,
	ChecklistBrakes,
	ChecklistFluids,
	ChecklistBattery,
}

var validChecklistStates = map[ChecklistState]struct{}{
	ChecklistStateOK:            {},
	ChecklistStateAttention:     {},
	ChecklistStateNotApplicable: {},
}

// Checklist records the condition of the fixed inspection points plus one
// shared free-text notes field.
type Checklist struct {
	States map[ChecklistCategory]ChecklistState
	Notes  string
}

// NewChecklist returns a checklist with every category defaulted to NotApplicable.
func NewChecklist() Checklist {
	states := make(map[ChecklistCategory]ChecklistState, len(ChecklistCategories))
	for _, category := range ChecklistCategories {
		states[category] = ChecklistStateNotApplicable
	}
	return Checklist{States: states}
}

// SetState returns a copy of the checklist with the category set to the given
// state. Unknown categories and states are rejected.
func (c Checklist) SetState(category ChecklistCategory, state ChecklistState) (Checklist, error) {
	if !isChecklistCategory(category) {
		return Checklist{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if _, ok := validChecklistStates[state]; !ok {
		return Checklist{}, fmt.Errorf("checklist: invalid state %q for category %q", state, category)
	}
	next := c.clone()
	next.States[category] = state
	return next, nil
}

// SetNotes returns a copy of the checklist with the shared notes replaced.
func (c Checklist) SetNotes(notes string) Checklist {
	next := c.clone()
	next.Notes = notes
	return next
}

// State returns the recorded state for a category, defaulting to NotApplicable.
func (c Checklist) State(category ChecklistCategory) ChecklistState {
	if state, ok := c.States[category]; ok {
		return state
	}
	return ChecklistStateNotApplicable
}

// AttentionRequired reports whether any category was marked as requiring attention.
func (c Checklist) AttentionRequired() bool {
	for _, category := range ChecklistCategories {
		if c.State(category) == ChecklistStateAttention {
			return true
		}
	}
	return false
}

// Complete reports whether every category carries a defined state.
func (c Checklist) Complete() bool {
	for _, category := range ChecklistCategories {
		if _, ok := c.States[category]; !ok {
			return false
		}
	}
	return true
}

func (c Checklist) clone() Checklist {
	states := make(map[ChecklistCategory]ChecklistState, len(ChecklistCategories))
	for _, category := range ChecklistCategories {
		states[category] = c.State(category)
	}
	return Checklist{States: states, Notes: c.Notes}
}

func isChecklistCategory(category ChecklistCategory) bool {
	for _, known := range ChecklistCategories {
		if category == known {
			return true
		}
	}
	return false
}
