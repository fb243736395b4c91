package formatter

import (
	"encoding/json"
	"fmt"
)

// BuildJSON serializes a response to indented JSON. Non-finite floats cannot
// be encoded and are reported as an error.
func (rb *responseBuilder) BuildJSON(res *Response) ([]byte, error) {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return b, nil
}
