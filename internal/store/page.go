package store

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Order is a single ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	// keep Page*Size inside int
	if p.Page > math.MaxInt/p.Size {
		p.Page = math.MaxInt / p.Size
	}
	return p
}

func (p PageRequest) offset() int { return p.Page * p.Size }

// Page is one slice of a listing plus total-count metadata.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func newPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// MapPage converts the content of a page, keeping its metadata.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[R]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}

// orderBy renders an ORDER BY clause. Columns must belong to the schema.
func orderBy(sort []Order, allowed []string) (string, error) {
	if len(sort) == 0 {
		return "ORDER BY id ASC", nil
	}
	terms := make([]string, 0, len(sort)+1)
	hasID := false
	for _, o := range sort {
		if !slices.Contains(allowed, o.Column) {
			return "", fmt.Errorf("%w: cannot sort by %q", ErrInvalidSort, o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		if o.Column == "id" {
			hasID = true
		}
		terms = append(terms, o.Column+" "+dir)
	}
	// stable paging
	if !hasID {
		terms = append(terms, "id ASC")
	}
	return "ORDER BY " + strings.Join(terms, ", "), nil
}
