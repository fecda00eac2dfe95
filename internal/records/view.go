package records

import (
	"fmt"
	"sync"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/models"
)

const DefaultPageSize = 10

// Page is one slice of a filtered list. Page numbers start at 1.
type Page struct {
	Records    []models.CandidateRecord `json:"records"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	Total      int                      `json:"total"`
	TotalPages int                      `json:"totalPages"`
}

// Paginate returns the requested page. A page outside 1..TotalPages becomes page 1.
func Paginate(records []models.CandidateRecord, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(records)
	totalPages := (total + size - 1) / size
	if page < 1 || page > totalPages {
		page = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	out := make([]models.CandidateRecord, end-start)
	copy(out, records[start:end])
	return Page{
		Records:    out,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// View holds a fetched record list with the active criteria and page. Any change to the
// records or the criteria moves back to page 1.
type View struct {
	engine *Engine

	mu       sync.RWMutex
	records  []models.CandidateRecord
	criteria models.FilterCriteria
	filtered []models.CandidateRecord
	page     int
	pageSize int
}

func NewView(engine *Engine, pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{
		engine:   engine,
		criteria: models.NewFilterCriteria(),
		filtered: []models.CandidateRecord{},
		page:     1,
		pageSize: pageSize,
	}
}

// SetRecords replaces the list wholesale.
func (v *View) SetRecords(records []models.CandidateRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = append([]models.CandidateRecord(nil), records...)
	v.refilterLocked()
}

// SetFilter updates one criterion.
func (v *View) SetFilter(key, value string) error {
	if !models.IsKnownFilter(key) {
		return errors.NewInvalidFilterCriteriaError(fmt.Sprintf("unknown filter %q", key))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.criteria.Normalize()
	next[key] = value
	if err := v.engine.Validate(next); err != nil {
		return err
	}
	v.criteria = next
	v.refilterLocked()
	return nil
}

// SetCriteria replaces all criteria at once. Unknown keys are dropped.
func (v *View) SetCriteria(c models.FilterCriteria) error {
	next := c.Normalize()
	if err := v.engine.Validate(next); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria = next
	v.refilterLocked()
	return nil
}

// Clear resets every criterion to empty.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria = models.NewFilterCriteria()
	v.refilterLocked()
}

// SetPage moves to page n, clamped to page 1 when out of range.
func (v *View) SetPage(n int) Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := Paginate(v.filtered, n, v.pageSize)
	v.page = p.Page
	return p
}

func (v *View) Current() Page {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Paginate(v.filtered, v.page, v.pageSize)
}

func (v *View) Criteria() models.FilterCriteria {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.criteria.Normalize()
}

// Len reports the number of held records before filtering.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

func (v *View) refilterLocked() {
	filtered, err := v.engine.Apply(v.records, v.criteria)
	if err != nil {
		// criteria are validated before they are stored
		filtered = []models.CandidateRecord{}
	}
	v.filtered = filtered
	v.page = 1
}
