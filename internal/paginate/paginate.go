// Package paginate slices ordered result sets into fixed-size pages.
//
// Page numbers are 1-based. A missing or malformed number selects the first
// page; a number outside [1, NumPages] selects the last page instead of
// failing. An empty result set still has one (empty) page.
package paginate

import (
	"encoding/json"
	"errors"
	"strconv"
)

// PerPage is the number of items on every page.
const PerPage = 10

// Window describes one page of a result set of Total items.
type Window struct {
	Number   int `json:"number"`
	NumPages int `json:"numPages"`
	Total    int `json:"count"`
}

// Resolve picks the page window for a raw page query value.
func Resolve(total int, raw string) Window {
	if total < 0 {
		total = 0
	}
	numPages := 1
	if total > 0 {
		numPages = (total + PerPage - 1) / PerPage
	}

	number, last := requested(raw)
	if last || number > numPages {
		number = numPages
	}

	return Window{Number: number, NumPages: numPages, Total: total}
}

// requested parses a raw page value. last is set for integers that can
// never be a valid page: below 1 or too large to represent.
func requested(raw string) (number int, last bool) {
	n, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, true
	case err != nil:
		return 1, false
	case n < 1:
		return 0, true
	}
	return n, false
}

// Normalize maps a raw page value to a canonical form, so that values that
// select the same page without knowing the total share one spelling.
// Malformed values become "1". Values below 1 or out of int range become
// "0", which resolves to the last page.
func Normalize(raw string) string {
	n, last := requested(raw)
	if last {
		return "0"
	}
	return strconv.Itoa(n)
}

// Offset is the index of the first item on the page.
func (w Window) Offset() int {
	return (w.Number - 1) * PerPage
}

// Limit is the maximum number of items on the page.
func (w Window) Limit() int {
	return PerPage
}

// Len is the number of items actually on the page.
func (w Window) Len() int {
	n := w.Total - w.Offset()
	if n > PerPage {
		return PerPage
	}
	if n < 0 {
		return 0
	}
	return n
}

func (w Window) HasNext() bool {
	return w.Number < w.NumPages
}

func (w Window) HasPrevious() bool {
	return w.Number > 1
}

// Page is a window together with the items it contains.
type Page[T any] struct {
	Window
	Items []T `json:"objectList"`
}

// Of wraps items loaded for window w.
func Of[T any](w Window, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Window: w, Items: items}
}

func (p Page[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number      int  `json:"number"`
		NumPages    int  `json:"numPages"`
		Total       int  `json:"count"`
		HasNext     bool `json:"hasNext"`
		HasPrevious bool `json:"hasPrevious"`
		Items       []T  `json:"objectList"`
	}{p.Number, p.NumPages, p.Total, p.HasNext(), p.HasPrevious(), p.Items})
}
