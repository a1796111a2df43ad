package utils

import "strconv"

type Page struct {
	Number      int   `json:"number"`
	PerPage     int   `json:"per_page"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Paginate resolves a raw ?page= value. Non-numeric pages fall back to the
// first page and pages past the end clamp to the last one.
func Paginate(raw string, count int64, perPage int) Page {
	if perPage <= 0 {
		perPage = 10
	}
	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n < 1:
		n = 1
	case n > numPages:
		n = numPages
	}

	return Page{
		Number:      n,
		PerPage:     perPage,
		NumPages:    numPages,
		Count:       count,
		HasNext:     n < numPages,
		HasPrevious: n > 1,
	}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}
