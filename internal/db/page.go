package db

import "gorm.io/gorm"

var (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SetPageLimits configures the default and maximum page sizes.
func SetPageLimits(def, maxLimit int) {
	if def > 0 {
		DefaultLimit = def
	}
	if maxLimit >= DefaultLimit {
		MaxLimit = maxLimit
	}
}

// Page is one page of a list result plus the total row count.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// NormalizePage clamps a 1-based page number and page size.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Paginate is a scope applying LIMIT/OFFSET for a 1-based page.
func Paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	page, limit = NormalizePage(page, limit)
	return func(q *gorm.DB) *gorm.DB {
		return q.Offset((page - 1) * limit).Limit(limit)
	}
}

// List runs q twice, once to count all matching rows and once to fetch the
// requested page ordered by id.
func List[T any](q *gorm.DB, page, limit int) (Page[T], error) {
	page, limit = NormalizePage(page, limit)
	out := Page[T]{Items: []T{}, Page: page, Limit: limit}

	q = q.Session(&gorm.Session{})
	if err := q.Model(new(T)).Count(&out.Total).Error; err != nil {
		return out, err
	}
	if err := q.Scopes(Paginate(page, limit)).Order("id ASC").Find(&out.Items).Error; err != nil {
		return out, err
	}
	return out, nil
}
