package shoppinglist

import (
	"bytes"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *List {
	return &List{Items: []Item{
		{Name: "flour", MeasurementUnit: "g", Amount: 700},
		{Name: "sugar", MeasurementUnit: "g", Amount: 50},
	}}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextFormatter{}.Write(&buf, sample()))
	assert.Equal(t, "flour - 700, g\nsugar - 50, g\n", buf.String())
}

func TestTextFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextFormatter{}.Write(&buf, &List{}))
	assert.Equal(t, "Nothing to buy\n", buf.String())

	assert.True(t, (*List)(nil).Empty())
	assert.Equal(t, []string{EmptyMessage}, (*List)(nil).Lines())
}

func TestPDFFormatter(t *testing.T) {
	for _, l := range []*List{sample(), {}} {
		var buf bytes.Buffer
		require.NoError(t, PDFFormatter{}.Write(&buf, l))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	}
}

func TestPDFFormatterKeepsCyrillic(t *testing.T) {
	l := &List{Items: []Item{{Name: "Соль", MeasurementUnit: "г", Amount: 8}}}

	pdf := renderPDF(l)
	require.NoError(t, pdf.Error())
	pdf.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	// UTF-8 fonts write text as UTF-16BE code units.
	var encoded []byte
	for _, u := range utf16.Encode([]rune("Соль - 8, г")) {
		encoded = append(encoded, byte(u>>8), byte(u))
	}
	assert.True(t, bytes.Contains(buf.Bytes(), encoded), "cyrillic line not found in page content")
	assert.Contains(t, buf.String(), "DejaVu")
}

func TestForFormat(t *testing.T) {
	f, err := ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "shopping_list.txt", Filename(f))

	f, err = ForFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "shopping_list.pdf", Filename(f))

	_, err = ForFormat("docx")
	assert.Error(t, err)
}
