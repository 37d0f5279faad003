package services

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/ochairo/slime/internal/domain/entities"
)

// SortDirection orders a sorted view
type SortDirection string

// Sort directions
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig selects the sort key and direction. An empty key leaves the
// input order untouched.
type SortConfig struct {
	Key       string
	Direction SortDirection
}

// Request returns the configuration after the user asks to sort by key:
// the same key flips the direction, a new key starts ascending.
func (c SortConfig) Request(key string) SortConfig {
	if c.Key == key && c.Direction != SortDesc {
		return SortConfig{Key: key, Direction: SortDesc}
	}
	return SortConfig{Key: key, Direction: SortAsc}
}

// Query describes one derived view over a collection. Page is 1-based; a
// PageSize of zero or less puts everything on one page.
type Query struct {
	Search   string
	Sort     SortConfig
	Page     int
	PageSize int
}

// Page is the result of a query
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalPages int
	Total      int
	HasNext    bool
	HasPrev    bool
}

// QueryView derives filtered, sorted and paginated views. It keeps no state.
type QueryView[T any] struct {
	searchable func(T) []string
	value      func(T, string) any
}

// NewQueryView creates a view. searchable returns the texts matched by the
// search term; value returns the sort value of a key, nil when absent.
func NewQueryView[T any](searchable func(T) []string, value func(T, string) any) *QueryView[T] {
	return &QueryView[T]{searchable: searchable, value: value}
}

// NewFindingQueryView searches title and overview and sorts by id, title,
// overview or report_type
func NewFindingQueryView() *QueryView[entities.Finding] {
	return NewQueryView(
		func(f entities.Finding) []string { return []string{f.DisplayTitle(), f.Overview} },
		func(f entities.Finding, key string) any {
			switch key {
			case "id":
				return f.ID
			case "title":
				return f.DisplayTitle()
			case "overview":
				return f.Overview
			case "report_type":
				return string(f.ReportType)
			default:
				if f.Report == nil {
					return nil
				}
				return f.Report[key]
			}
		},
	)
}

// NewProjectQueryView searches name and description and sorts by id, name,
// description or findings (count)
func NewProjectQueryView() *QueryView[entities.Project] {
	return NewQueryView(
		func(p entities.Project) []string { return []string{p.Name, p.Description} },
		func(p entities.Project, key string) any {
			switch key {
			case "id":
				return p.ID
			case "name":
				return p.Name
			case "description":
				return p.Description
			case "findings":
				return float64(len(p.Findings))
			default:
				return nil
			}
		},
	)
}

// View filters, sorts and paginates items. The input is not modified.
func (v *QueryView[T]) View(items []T, q Query) Page[T] {
	filtered := v.Filter(items, q.Search)
	v.Sort(filtered, q.Sort)
	return Paginate(filtered, q.Page, q.PageSize)
}

// Filter returns the items matching term, in input order. Only the empty
// term matches everything.
func (v *QueryView[T]) Filter(items []T, term string) []T {
	needle := strings.ToLower(term)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if needle == "" || v.matches(item, needle) {
			out = append(out, item)
		}
	}
	return out
}

func (v *QueryView[T]) matches(item T, needle string) bool {
	for _, text := range v.searchable(item) {
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

// Sort stably sorts items in place. Absent values go last in both directions.
func (v *QueryView[T]) Sort(items []T, cfg SortConfig) {
	if cfg.Key == "" {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		av, bv := v.value(a, cfg.Key), v.value(b, cfg.Key)
		aMissing, bMissing := absent(av), absent(bv)
		switch {
		case aMissing && bMissing:
			return 0
		case aMissing:
			return 1
		case bMissing:
			return -1
		}
		c := compareValues(av, bv)
		if cfg.Direction == SortDesc {
			return -c
		}
		return c
	})
}

// Paginate slices items into the 1-based page. The page is clamped to
// [1, TotalPages]; TotalPages is at least 1.
func Paginate[T any](items []T, page, size int) Page[T] {
	total := len(items)
	if size <= 0 {
		size = max(total, 1)
	}
	totalPages := max((total+size-1)/size, 1)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * size
	end := min(start+size, total)
	out := make([]T, end-start)
	copy(out, items[start:end])

	return Page[T]{
		Items:      out,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Total:      total,
		HasNext:    end < total,
		HasPrev:    page > 1,
	}
}

func absent(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// compareValues orders two present values. Numbers and numeric strings
// compare numerically, everything else by case-folded text.
func compareValues(a, b any) int {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		return cmp.Compare(af, bf)
	}
	as, bs := entities.FormatValue(a), entities.FormatValue(b)
	if c := strings.Compare(strings.ToLower(as), strings.ToLower(bs)); c != 0 {
		return c
	}
	return strings.Compare(as, bs)
}

func number(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
