// Package shoppinglist holds the aggregated shopping list and renders it for
// download.
package shoppinglist

import (
	"fmt"
	"io"
	"strings"
)

// EmptyMessage is rendered instead of items when nothing is in the cart.
const EmptyMessage = "Nothing to buy"

// Item is the total amount of one ingredient across the cart.
type Item struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

func (i Item) String() string {
	return fmt.Sprintf("%s - %d, %s", i.Name, i.Amount, i.MeasurementUnit)
}

// List is ordered by ingredient name.
type List struct {
	Items []Item
}

func (l *List) Empty() bool {
	return l == nil || len(l.Items) == 0
}

// Lines returns the rendered lines, or the single EmptyMessage line.
func (l *List) Lines() []string {
	if l.Empty() {
		return []string{EmptyMessage}
	}
	lines := make([]string, len(l.Items))
	for i, item := range l.Items {
		lines[i] = item.String()
	}
	return lines
}

// Formatter renders a list into a downloadable document.
type Formatter interface {
	ContentType() string
	Extension() string
	Write(w io.Writer, l *List) error
}

// ForFormat returns the formatter for "txt" (default) or "pdf".
func ForFormat(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "txt", "text":
		return TextFormatter{}, nil
	case "pdf":
		return PDFFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported shopping list format %q", format)
	}
}

// Filename is the attachment name for a formatter.
func Filename(f Formatter) string {
	return "shopping_list." + f.Extension()
}
