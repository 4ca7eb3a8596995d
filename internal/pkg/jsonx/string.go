package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// String decodes a JSON string or number into its textual form. Account numbers
// and chat IDs show up both ways depending on who wrote the document. null decodes
// to the empty string.
type String string

func (s *String) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = String(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = String(n.String())
	return nil
}

func (s String) String() string { return string(s) }
