package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ironsheep/chart-ohlc/internal/ohlc"
)

// WriteJSON writes results as an indented JSON array. A nil slice is
// written as [].
func WriteJSON(w io.Writer, results []ohlc.Result) error {
	if results == nil {
		results = []ohlc.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// ReadJSON decodes an array written by WriteJSON.
func ReadJSON(r io.Reader) ([]ohlc.Result, error) {
	var results []ohlc.Result
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return results, nil
}
