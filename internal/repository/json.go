package repository

import "encoding/json"

// encodeStrings serialises a string slice for storage in a JSON column.
// A nil or empty slice is stored as "[]" so scans never see NULL.
func encodeStrings(vals []string) string {
	if len(vals) == 0 {
		return "[]"
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeStrings parses a JSON column back into a slice. Corrupt or empty
// data yields an empty slice rather than an error; image lists are not
// worth failing a read over.
func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil
	}
	return vals
}
