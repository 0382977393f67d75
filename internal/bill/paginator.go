package bill

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultRows is the per-column row count used when a layout leaves Rows unset.
const DefaultRows = 23

// Order controls the display order of cart lines on the bill.
type Order int

const (
	// OrderNewestFirst keeps the cart's storage order: most recently added first.
	OrderNewestFirst Order = iota
	// OrderOldestFirst reverses it so the bill reads chronologically.
	OrderOldestFirst
)

// ParseOrder maps a config string to an Order, defaulting to newest-first.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), "oldest-first") {
		return OrderOldestFirst
	}
	return OrderNewestFirst
}

// Line is one billable entry: a display name plus quantity and unit.
type Line struct {
	Name     string
	Quantity int
	Unit     string
}

// Layout fixes the page geometry and display order.
type Layout struct {
	Rows  int
	Order Order
}

func (l Layout) rows() int {
	if l.Rows < 1 {
		return DefaultRows
	}
	return l.Rows
}

// Cell is one grid slot. The zero value renders as an empty cell: every
// field is a string so sinks never see a nil or sentinel marker.
type Cell struct {
	Serial   string
	Name     string
	Quantity string
}

// Page is a two-column grid over a contiguous slice of the bill. Left and
// Right always hold exactly Layout.Rows cells each.
type Page struct {
	Left  []Cell
	Right []Cell
}

// PageCount returns ceil(n / 2R) for n lines. An empty bill has zero pages.
func PageCount(n int, layout Layout) int {
	if n <= 0 {
		return 0
	}
	perPage := 2 * layout.rows()
	return (n + perPage - 1) / perPage
}

// Paginate lays the given lines out as a sequence of fixed-capacity pages.
// Lines are expected in cart storage order (newest first); the layout's
// Order decides whether that order is kept or reversed for display. Columns
// fill column-major: the left column is exhausted top to bottom before the
// right column begins. Serial numbers run 1-based through the whole bill,
// independent of page boundaries.
//
// Paginate never mutates its input and is deterministic: two calls over the
// same lines yield deep-equal pages.
func Paginate(lines []Line, layout Layout) []Page {
	ordered := displayOrder(lines, layout.Order)
	rows := layout.rows()
	perPage := 2 * rows

	pages := make([]Page, 0, PageCount(len(ordered), layout))
	for start := 0; start < len(ordered); start += perPage {
		end := start + perPage
		if end > len(ordered) {
			end = len(ordered)
		}
		pages = append(pages, buildPage(ordered[start:end], start, rows))
	}
	return pages
}

// PageAt returns the page at index. It reports false when the index is out
// of range, including every index of an empty bill.
func PageAt(lines []Line, layout Layout, index int) (Page, bool) {
	if index < 0 || index >= PageCount(len(lines), layout) {
		return Page{}, false
	}
	return Paginate(lines, layout)[index], true
}

func displayOrder(lines []Line, order Order) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	if order == OrderOldestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func buildPage(lines []Line, offset, rows int) Page {
	page := Page{
		Left:  make([]Cell, rows),
		Right: make([]Cell, rows),
	}
	for i, line := range lines {
		cell := Cell{
			Serial:   strconv.Itoa(offset + i + 1),
			Name:     line.Name,
			Quantity: FormatQuantity(line.Quantity, line.Unit),
		}
		if i < rows {
			page.Left[i] = cell
		} else {
			page.Right[i-rows] = cell
		}
	}
	return page
}

// FormatQuantity renders the "quantity unit" cell text.
func FormatQuantity(quantity int, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return strconv.Itoa(quantity)
	}
	return fmt.Sprintf("%d %s", quantity, unit)
}
