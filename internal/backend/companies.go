package backend

import (
	"context"
	"strings"
	"sync"

	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/models"
)

const maxCompanySuggestions = 10

// CompanyLister is the part of Client the directory needs.
type CompanyLister interface {
	Companies(ctx context.Context) ([]models.Company, error)
}

// CompanyDirectory suggests company names. The list is fetched on first use and kept;
// a failed fetch is retried on the next query.
type CompanyDirectory struct {
	lister CompanyLister
	logger logger.Logger

	mu     sync.Mutex
	names  []string
	loaded bool
}

func NewCompanyDirectory(lister CompanyLister, log logger.Logger) *CompanyDirectory {
	return &CompanyDirectory{lister: lister, logger: log}
}

// Suggest satisfies location.Suggester. parent is ignored.
func (d *CompanyDirectory) Suggest(ctx context.Context, query, _ string) []string {
	names, err := d.load(ctx)
	if err != nil {
		d.logger.Warn("company list unavailable", map[string]interface{}{"error": err})
		return []string{}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, maxCompanySuggestions)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			out = append(out, n)
			if len(out) == maxCompanySuggestions {
				break
			}
		}
	}
	return out
}

// Invalidate forces the next query to refetch.
func (d *CompanyDirectory) Invalidate() {
	d.mu.Lock()
	d.loaded = false
	d.names = nil
	d.mu.Unlock()
}

func (d *CompanyDirectory) load(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.names, nil
	}

	companies, err := d.lister.Companies(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	d.names = names
	d.loaded = true
	return names, nil
}
