package parser

import (
	"io"
)

// ParseString parses Sour source and returns the diagnostics as one error.
func ParseString(src, path string) (*File, error) {
	file, errs := Parse(src, path)
	return file, ErrorList(errs).Err()
}

// ParseReader consumes Sour source from an io.Reader.
func ParseReader(r io.Reader, path string) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data), path)
}
