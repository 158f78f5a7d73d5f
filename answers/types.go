package answers

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// SearchResponse is the universal search result for one query.
type SearchResponse struct {
	DirectAnswer    *DirectAnswer
	VerticalResults []VerticalResult
}

// DirectAnswer is a single extracted answer, independent of verticals.
type DirectAnswer struct {
	Value   string
	Snippet Snippet
}

type Snippet struct {
	Value string
}

// VerticalResult groups the results of one vertical, in ranking order.
type VerticalResult struct {
	VerticalKey string
	Results     []Result
}

// Result is a single entity hit.
type Result struct {
	Name    string
	RawData RawData
}

// RawData is the entity's untyped profile. Field presence depends on the
// vertical, so every read has a zero-value default.
type RawData json.RawMessage

// RawDataFrom marshals fields into RawData. Mostly useful in tests.
func RawDataFrom(fields map[string]any) RawData {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return RawData(b)
}

func (d RawData) get(path string) gjson.Result {
	if len(d) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(d, path)
}

// Has reports whether the field at path is present and not null.
func (d RawData) Has(path string) bool {
	r := d.get(path)
	return r.Exists() && r.Type != gjson.Null
}

// String returns the field at path as a string, or "" when absent.
// Numbers are returned in their JSON form, so a price of 12.5 reads "12.5".
func (d RawData) String(path string) string {
	r := d.get(path)
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	case gjson.True, gjson.False:
		return r.Raw
	}
	return ""
}

// LastString reads path on the last element of the array at list.
// It returns "" when the array is missing, empty, or its last element
// lacks a string at path.
func (d RawData) LastString(list, path string) string {
	items := d.get(list).Array()
	if len(items) == 0 {
		return ""
	}
	v := items[len(items)-1].Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}
