package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes rows as a formatted JSON array, HTML-escaping disabled
// so that URLs containing `&`/`<`/`>` render unescaped.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}
