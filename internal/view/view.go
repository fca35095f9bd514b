// Package view derives the operator-facing view from a task snapshot:
// stable sorting, pagination, and the explicit console state the filters,
// selection and page position live in. Everything here is a pure
// transformation; the snapshot is never mutated in place.
package view

import (
	"fmt"
	"sort"

	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// SortKey names a sortable task attribute.
type SortKey string

const (
	SortCreatedAt  SortKey = "created_at"
	SortUpdatedAt  SortKey = "updated_at"
	SortStatus     SortKey = "status"
	SortCompletion SortKey = "completion_percentage"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// DefaultPageSize is used when the caller supplies none.
const DefaultPageSize = 20

// Page is one rendered page of the filtered, sorted collection.
type Page struct {
	Tasks      []models.Task `json:"tasks"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// Paginate sorts tasks by key/order and returns the requested page. The
// sort is stable: ties keep original snapshot order. The input slice is
// copied, never reordered in place. A page beyond the last clamps to the
// last page; page values below 1 clamp to 1.
func Paginate(tasks []models.Task, key SortKey, order SortOrder, page, pageSize int) (Page, error) {
	less, err := comparator(key)
	if err != nil {
		return Page{}, err
	}
	if order != OrderAsc && order != OrderDesc && order != "" {
		return Page{}, fmt.Errorf("unknown sort order %q", order)
	}

	sorted := make([]models.Task, len(tasks))
	copy(sorted, tasks)

	desc := order != OrderAsc
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return less(&sorted[j], &sorted[i])
		}
		return less(&sorted[i], &sorted[j])
	})

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(sorted)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Tasks:      sorted[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func comparator(key SortKey) (func(a, b *models.Task) bool, error) {
	switch key {
	case SortCreatedAt, "":
		return func(a, b *models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }, nil
	case SortUpdatedAt:
		return func(a, b *models.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }, nil
	case SortStatus:
		return func(a, b *models.Task) bool { return statusRank(a.Status) < statusRank(b.Status) }, nil
	case SortCompletion:
		return func(a, b *models.Task) bool { return a.EffectiveCompletion() < b.EffectiveCompletion() }, nil
	default:
		return nil, fmt.Errorf("unknown sort key %q", key)
	}
}

// statusRank orders statuses by lifecycle position rather than
// alphabetically.
func statusRank(s models.TaskStatus) int {
	switch s {
	case models.StatusPending:
		return 0
	case models.StatusProcessing:
		return 1
	case models.StatusCompleted:
		return 2
	case models.StatusFailed:
		return 3
	default:
		return 4
	}
}
