package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/metrics"
	"candidate-dashboard/internal/models"
)

type predicate func(r *models.CandidateRecord) bool

type EngineOption func(*Engine)

// WithClock fixes the reference time used for age filters.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine filters an in-memory record list. It is stateless apart from its clock and
// safe for concurrent use.
type Engine struct {
	now func() time.Time
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate rejects range values that name no bucket.
func (e *Engine) Validate(criteria models.FilterCriteria) error {
	_, err := e.compile(criteria.Normalize())
	return err
}

// Apply keeps the records that satisfy every non-empty criterion, in input order.
func (e *Engine) Apply(records []models.CandidateRecord, criteria models.FilterCriteria) ([]models.CandidateRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFilterDuration.Observe(time.Since(start).Seconds())
	}()

	preds, err := e.compile(criteria.Normalize())
	if err != nil {
		return nil, err
	}

	out := make([]models.CandidateRecord, 0, len(records))
	for i := range records {
		if matchesAll(&records[i], preds) {
			out = append(out, records[i])
		}
	}
	return out, nil
}

func matchesAll(r *models.CandidateRecord, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func (e *Engine) compile(c models.FilterCriteria) ([]predicate, error) {
	var preds []predicate

	if term := strings.TrimSpace(c[models.FilterSearch]); term != "" {
		preds = append(preds, searchPredicate(term))
	}
	if g := strings.TrimSpace(c[models.FilterGender]); g != "" {
		preds = append(preds, func(r *models.CandidateRecord) bool { return r.Gender == g })
	}

	textFields := []struct {
		key  string
		attr func(r *models.CandidateRecord) string
	}{
		{models.FilterCurrentState, func(r *models.CandidateRecord) string { return r.CurrentState }},
		{models.FilterPreferredState, func(r *models.CandidateRecord) string { return r.PreferredState }},
		{models.FilterCurrentCity, func(r *models.CandidateRecord) string { return r.CurrentCity }},
		{models.FilterPreferredCity, func(r *models.CandidateRecord) string { return r.PreferredCity }},
		{models.FilterDesignation, func(r *models.CandidateRecord) string { return r.Designation }},
		{models.FilterDepartment, func(r *models.CandidateRecord) string { return r.Department }},
		{models.FilterCompanyName, func(r *models.CandidateRecord) string { return r.CompanyName }},
	}
	for _, f := range textFields {
		v := strings.TrimSpace(c[f.key])
		if v == "" {
			continue
		}
		attr := f.attr
		needle := strings.ToLower(v)
		preds = append(preds, func(r *models.CandidateRecord) bool {
			return containsFold(attr(r), needle)
		})
	}

	if name := strings.TrimSpace(c[models.FilterExperienceRange]); name != "" {
		b, ok := experienceBuckets[name]
		if !ok {
			return nil, unknownBucket(models.FilterExperienceRange, name)
		}
		preds = append(preds, func(r *models.CandidateRecord) bool {
			return b.contains(parseExperience(r.TotalExperience))
		})
	}

	if name := strings.TrimSpace(c[models.FilterCTCRange]); name != "" {
		b, ok := ctcBuckets[name]
		if !ok {
			return nil, unknownBucket(models.FilterCTCRange, name)
		}
		preds = append(preds, func(r *models.CandidateRecord) bool {
			return r.CTC != nil && b.contains(*r.CTC)
		})
	}

	if name := strings.TrimSpace(c[models.FilterAgeRange]); name != "" {
		b, ok := ageBuckets[name]
		if !ok {
			return nil, unknownBucket(models.FilterAgeRange, name)
		}
		now := e.now()
		preds = append(preds, func(r *models.CandidateRecord) bool {
			age, ok := Age(r.DateOfBirth, now)
			return ok && b.contains(float64(age))
		})
	}

	return preds, nil
}

// searchPredicate matches the term against several attributes. Phone is compared as
// typed, without case folding.
func searchPredicate(term string) predicate {
	needle := strings.ToLower(term)
	return func(r *models.CandidateRecord) bool {
		return containsFold(r.FirstName, needle) ||
			containsFold(r.LastName, needle) ||
			containsFold(r.Email, needle) ||
			strings.Contains(r.Phone, term) ||
			containsFold(r.CompanyName, needle) ||
			containsFold(r.Designation, needle)
	}
}

// containsFold expects needle already lowercased. An empty attribute never matches.
func containsFold(attr, needle string) bool {
	if attr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(attr), needle)
}

func parseExperience(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func unknownBucket(key, name string) error {
	return errors.NewInvalidFilterCriteriaError(fmt.Sprintf("%s: unknown bucket %q", key, name))
}
