package webhook

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

var (
	errPayloadTooLarge = errors.New("payload too large")
	errInvalidJSON     = errors.New("invalid json")
)

// ReadRawJSON reads at most maxBytes from r and checks that the result is a
// JSON document. The raw bytes are returned untouched so signatures can be
// computed over them.
func ReadRawJSON(r io.Reader, maxBytes int64) ([]byte, error) {
	if r == nil {
		return nil, errInvalidJSON
	}
	b, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > maxBytes {
		return nil, errPayloadTooLarge
	}
	if !gjson.ValidBytes(b) {
		return nil, errInvalidJSON
	}
	return b, nil
}
