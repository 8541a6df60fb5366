package api

import (
	"errors"
	"net/http"
	"strconv"
)

const maxPerPage = 100

// page is a zero-based page request. PerPage zero means everything.
type page struct {
	Number  int
	PerPage int
}

func parsePage(r *http.Request) (page, error) {
	var p page
	q := r.URL.Query()
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPerPage {
			return page{}, errors.New("per_page must be between 1 and 100")
		}
		p.PerPage = n
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page{}, errors.New("page must be a non-negative integer")
		}
		p.Number = n
	}
	return p, nil
}

// bounds returns the slice window for total items and the page count.
func (p page) bounds(total int) (start, end, pages int) {
	if p.PerPage == 0 {
		return 0, total, 1
	}
	pages = (total + p.PerPage - 1) / p.PerPage
	if p.Number >= pages {
		return total, total, pages
	}
	start = p.Number * p.PerPage
	end = start + p.PerPage
	if end > total {
		end = total
	}
	return start, end, pages
}
