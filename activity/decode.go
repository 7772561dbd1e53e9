package activity

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Format is an input encoding.
type Format string

const (
	FormatTCX Format = "tcx"
	FormatFIT Format = "fit"
)

// fitSignature sits at byte offset 8 of every FIT header.
var fitSignature = []byte(".FIT")

// Sniff reports the format of the stream behind br without consuming it.
func Sniff(br *bufio.Reader) Format {
	head, _ := br.Peek(12)
	if len(head) == 12 && bytes.Equal(head[8:12], fitSignature) {
		return FormatFIT
	}
	return FormatTCX
}

// Decode sniffs r and decodes it as FIT or TCX.
func Decode(r io.Reader) (*Document, Format, error) {
	br := bufio.NewReader(r)
	switch f := Sniff(br); f {
	case FormatFIT:
		doc, err := DecodeFIT(br)
		return doc, f, err
	default:
		doc, err := DecodeTCX(br)
		return doc, f, err
	}
}

// Open reads and decodes the activity file at path.
func Open(path string) (*Document, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer f.Close()

	doc, format, err := Decode(f)
	if err != nil {
		return nil, format, fmt.Errorf("%s: %w", path, err)
	}
	return doc, format, nil
}
