package paginate

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultSize = 10
	MaxSize     = 100
	// MaxNumber keeps Number*Size and the next page link inside int.
	MaxNumber = math.MaxInt/MaxSize - 1
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// FromQuery reads page and page_size. Bad or missing values fall back to the defaults;
// page is capped at MaxNumber and page_size at MaxSize.
func FromQuery(q url.Values) Page {
	p := Page{Number: 1, Size: DefaultSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = min(n, MaxNumber)
	}
	if s, err := strconv.Atoi(q.Get("page_size")); err == nil && s > 0 {
		p.Size = min(s, MaxSize)
	}
	return p
}

// Result is the paginated envelope payload. Items is filled by the caller.
type Result[T any] struct {
	Results  []T     `json:"results"`
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// NewResult builds next/previous links from the request URL.
func NewResult[T any](items []T, total int64, p Page, u *url.URL) Result[T] {
	if items == nil {
		items = []T{}
	}
	r := Result[T]{Results: items, Count: total}
	if int64(p.Number*p.Size) < total {
		r.Next = link(u, p.Number+1, p.Size)
	}
	if p.Number > 1 {
		r.Previous = link(u, p.Number-1, p.Size)
	}
	return r
}

func link(u *url.URL, number, size int) *string {
	next := *u
	q := next.Query()
	q.Set("page", strconv.Itoa(number))
	q.Set("page_size", strconv.Itoa(size))
	next.RawQuery = q.Encode()
	s := next.String()
	return &s
}
