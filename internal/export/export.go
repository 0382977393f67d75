// Package export renders the paginated bill into downloadable files. The
// printed bill is the shop's source of truth at the delivery counter, so
// the file layout mirrors the on-screen pages exactly.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/retail-pos/internal/bill"
)

// Format selects the output file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a client-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	return "." + string(f)
}

// Header carries the customer block printed above the item table.
type Header struct {
	CustomerName      string `json:"customerName"`
	CustomerNameLocal string `json:"customerNameLocal"`
	Mobile            string `json:"mobile"`
	DeliveryDate      string `json:"deliveryDate"`
	DeliveryTime      string `json:"deliveryTime"`
}

// DisplayName prefers the localized customer name for the printed bill.
func (h Header) DisplayName() string {
	if h.CustomerNameLocal != "" {
		return h.CustomerNameLocal
	}
	return h.CustomerName
}

// Renderer writes a complete bill document. Implementations render pages
// strictly in order, one at a time.
type Renderer interface {
	Render(w io.Writer, header Header, pages []bill.Page) error
}
