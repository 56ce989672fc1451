package testutils

import (
	"bytes"
	"log"
)

// NewLogger returns a logger writing into the returned buffer
func NewLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", log.Lshortfile), &buf
}
