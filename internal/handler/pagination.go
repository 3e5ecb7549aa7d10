// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/url"
	"strconv"
)

// Page bounds for admin lists. MaxPage keeps (page-1)*limit far from
// integer overflow.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxPage          = 1_000_000
)

// Pagination is the page metadata returned with admin lists.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ParsePagination reads page and limit from the query string. Missing or
// invalid values fall back to page 1 and DefaultPageLimit. Page is capped at
// MaxPage and limit at MaxPageLimit.
func ParsePagination(q url.Values) (page, limit int) {
	page, limit = 1, DefaultPageLimit

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = min(p, MaxPage)
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = min(l, MaxPageLimit)
	}
	return page, limit
}

// NewPagination computes the page count, ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

// Offset is the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
