// Package repository provides history.Store implementations.
package repository

import (
	"sort"
	"strings"

	"github.com/okian/salaryd/internal/domain/history"
)

// Store names reported in metrics.
const (
	storeMemory = "memory"
	storeSQLite = "sqlite"
)

// newestFirst orders records by CreatedAt descending, then ID descending.
func newestFirst(items []history.Record) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// matches reports whether r passes the query filters.
func matches(r history.Record, q history.Query) bool {
	if q.WithFeedback && !r.HasFeedback() {
		return false
	}
	if q.City != "" && !containsFold(r.City, q.City) {
		return false
	}
	if q.JobLevel != "" && !containsFold(r.JobLevel, q.JobLevel) {
		return false
	}
	return true
}

func containsFold(values []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// window returns the [start, end) bounds of page within n items.
func window(n, page, size int) (int, int) {
	start := (page - 1) * size
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}
