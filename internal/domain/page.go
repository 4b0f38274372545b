package domain

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps Skip well inside int32 for any page size.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// Page is a 1-based skip/limit page request.
type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Skip() int64 {
	return int64((p.Number - 1) * p.Size)
}

func (p Page) Limit() int64 {
	return int64(p.Size)
}
