package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/salaryd/internal/domain/prediction"
)

const (
	// DefaultPageSize is used when a listing omits size.
	DefaultPageSize = 10
	// MaxPageSize bounds a single listing page.
	MaxPageSize = 100

	feedbackPageSize = MaxPageSize
)

// ListParams selects a listing page.
type ListParams struct {
	Page     int
	Size     int
	City     string
	JobLevel string
}

// Listing is a paginated view over history.
type Listing struct {
	TotalData   int      `json:"total_data"`
	TotalPages  int      `json:"total_pages"`
	CurrentPage int      `json:"current_page"`
	PageSize    int      `json:"page_size"`
	Items       []Record `json:"items"`
}

// Adapter maps domain results onto a Store.
type Adapter struct {
	store Store
}

// NewAdapter returns an adapter over store.
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// ValidatePage checks listing bounds.
func ValidatePage(page, size int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidPage, page)
	}
	if size < 1 || size > MaxPageSize {
		return fmt.Errorf("%w: size must be in [1, %d], got %d", ErrInvalidPage, MaxPageSize, size)
	}
	return nil
}

// Record persists a prediction result under modelVersion.
func (a *Adapter) Record(ctx context.Context, res prediction.Result, modelVersion string) (Record, error) {
	r := Record{
		InputYears:      res.InputYears,
		ConvertedYears:  res.ConvertedYears,
		City:            res.City,
		JobLevel:        res.JobLevel,
		PredictedSalary: res.PredictedSalary,
		DataCount:       len(res.InputYears),
		ModelVersion:    modelVersion,
	}
	return a.store.Create(ctx, r.Clone())
}

// Get returns the record and whether it exists.
func (a *Adapter) Get(ctx context.Context, id int64) (Record, bool, error) {
	r, err := a.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

// List returns one page of history, newest first.
func (a *Adapter) List(ctx context.Context, p ListParams) (Listing, error) {
	if err := ValidatePage(p.Page, p.Size); err != nil {
		return Listing{}, err
	}
	page, err := a.store.Query(ctx, Query{Page: p.Page, Size: p.Size, City: p.City, JobLevel: p.JobLevel})
	if err != nil {
		return Listing{}, err
	}
	items := page.Items
	if items == nil {
		items = []Record{}
	}
	return Listing{
		TotalData:   page.Total,
		TotalPages:  totalPages(page.Total, p.Size),
		CurrentPage: p.Page,
		PageSize:    p.Size,
		Items:       items,
	}, nil
}

// FeedbackRecords returns every record that carries actual salaries. Pages
// shift when newer records gain feedback mid-walk, so rows are deduplicated by ID.
func (a *Adapter) FeedbackRecords(ctx context.Context) ([]Record, error) {
	var out []Record
	seen := make(map[int64]struct{})
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := a.store.Query(ctx, Query{Page: page, Size: feedbackPageSize, WithFeedback: true})
		if err != nil {
			return nil, err
		}
		for _, r := range p.Items {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
		if len(p.Items) < feedbackPageSize {
			return out, nil
		}
	}
}

func totalPages(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
