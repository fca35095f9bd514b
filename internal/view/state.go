package view

import (
	"github.com/QuangLe1997/media-transcode-sub001/internal/facets"
	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// State is the full operator-facing console state: the active status filter,
// facet selection, sort, page position and task selection. It is a plain
// serializable value; transitions return a new State and never mutate the
// receiver, so the state can be unit-tested without any rendering surface.
type State struct {
	Status    *models.TaskStatus `json:"status,omitempty"`
	Facets    facets.Selection   `json:"facets,omitempty"`
	SortKey   SortKey            `json:"sort_key"`
	SortOrder SortOrder          `json:"sort_order"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
	Selected  []string           `json:"selected,omitempty"`
}

// NewState returns the console's initial state.
func NewState() State {
	return State{
		SortKey:   SortCreatedAt,
		SortOrder: OrderDesc,
		Page:      1,
		PageSize:  DefaultPageSize,
	}
}

// WithStatus changes the active status filter. The page resets and the
// selection clears: it may reference tasks outside the new snapshot.
func (s State) WithStatus(status *models.TaskStatus) State {
	s.Status = status
	s.Page = 1
	s.Selected = nil
	return s
}

// WithFacets replaces the facet selection and resets the page.
func (s State) WithFacets(sel facets.Selection) State {
	s.Facets = sel
	s.Page = 1
	return s
}

// WithPreset applies a named facet preset; unknown names clear the
// selection.
func (s State) WithPreset(name string) State {
	return s.WithFacets(facets.Presets[name])
}

// WithSort changes the sort key and order and resets the page.
func (s State) WithSort(key SortKey, order SortOrder) State {
	s.SortKey = key
	s.SortOrder = order
	s.Page = 1
	return s
}

// WithPage moves to the given page without touching anything else.
func (s State) WithPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// WithPageSize changes the page size and resets to page 1.
func (s State) WithPageSize(size int) State {
	if size <= 0 {
		size = DefaultPageSize
	}
	s.PageSize = size
	s.Page = 1
	return s
}

// ToggleSelected adds the task to the selection, or removes it when already
// selected.
func (s State) ToggleSelected(taskID string) State {
	for i, id := range s.Selected {
		if id == taskID {
			selected := make([]string, 0, len(s.Selected)-1)
			selected = append(selected, s.Selected[:i]...)
			selected = append(selected, s.Selected[i+1:]...)
			s.Selected = selected
			return s
		}
	}
	selected := make([]string, len(s.Selected), len(s.Selected)+1)
	copy(selected, s.Selected)
	s.Selected = append(selected, taskID)
	return s
}

// ClearSelection drops every selected task, e.g. after a bulk action
// completes.
func (s State) ClearSelection() State {
	s.Selected = nil
	return s
}
