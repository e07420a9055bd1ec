package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const jsonExtension = ".json"

// Codec defines how records are serialized to and from files.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
	// Extension returns the file extension for this codec, e.g. ".json".
	Extension() string
}

// JSONCodec pretty prints with Indent spaces, zero means compact JSON.
type JSONCodec struct {
	Indent int
}

func NewJSONCodec(indent int) JSONCodec {
	return JSONCodec{Indent: indent}
}

func (c JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if c.Indent > 0 {
		encoder.SetIndent("", strings.Repeat(" ", c.Indent))
	}
	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

func (c JSONCodec) Decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

func (c JSONCodec) Extension() string {
	return jsonExtension
}
