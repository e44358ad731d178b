package utils

import "strconv"

// Page describes one page of a numbered listing.
type Page struct {
	Number   int   `json:"number"`
	NumPages int   `json:"numPages"`
	PerPage  int   `json:"perPage"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"hasNext"`
	HasPrev  bool  `json:"hasPrev"`
	Offset   int   `json:"-"`
}

// ParsePage turns a raw ?page= value into a page number. Anything that is
// not a positive integer yields 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate clamps page into [1, NumPages]. An empty listing still has one page.
func Paginate(total int64, page, perPage int) Page {
	if perPage < 1 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > numPages {
		page = numPages
	}
	return Page{
		Number:   page,
		NumPages: numPages,
		PerPage:  perPage,
		Total:    total,
		HasNext:  page < numPages,
		HasPrev:  page > 1,
		Offset:   (page - 1) * perPage,
	}
}
