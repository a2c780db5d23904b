package pagerduty

import (
	"net/url"
	"strconv"
)

// PageInfo is what a pager needs to know about the page just received.
type PageInfo struct {
	Items  int
	More   bool
	Cursor string
}

// Pager decides which query parameters select each page of a collection.
type Pager interface {
	// Start prepares q for the first page.
	Start(q url.Values)
	// Next prepares q for the page after the one described by info and
	// reports whether that page should be requested.
	Next(q url.Values, info PageInfo) bool
}

// OffsetPager walks a collection with offset/limit, advancing by Limit.
type OffsetPager struct {
	Limit int
}

func (p OffsetPager) Start(q url.Values) {
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", "0")
}

func (p OffsetPager) Next(q url.Values, info PageInfo) bool {
	if !info.More {
		return false
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	q.Set("offset", strconv.Itoa(offset+p.Limit))
	return true
}

// CursorPager walks a collection by passing the last seen cursor as starting_after.
type CursorPager struct {
	Limit int
}

func (p CursorPager) Start(q url.Values) {
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Del("starting_after")
}

func (p CursorPager) Next(q url.Values, info PageInfo) bool {
	if !info.More || info.Cursor == "" {
		return false
	}

	q.Set("starting_after", info.Cursor)
	return true
}

// SinglePage fetches one page and stops.
type SinglePage struct{}

func (SinglePage) Start(url.Values) {}

func (SinglePage) Next(url.Values, PageInfo) bool { return false }

func pagerFor(mode string, limit int) Pager {
	if mode == PagingCursor {
		return CursorPager{Limit: limit}
	}
	return OffsetPager{Limit: limit}
}
