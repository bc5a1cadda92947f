package shoppinglist

import (
	"bufio"
	"io"
)

// TextFormatter writes one "name - amount, unit" line per item.
type TextFormatter struct{}

func (TextFormatter) ContentType() string { return "text/plain; charset=utf-8" }

func (TextFormatter) Extension() string { return "txt" }

func (TextFormatter) Write(w io.Writer, l *List) error {
	bw := bufio.NewWriter(w)
	for _, line := range l.Lines() {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
