package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Data is the label/value mapping returned by the backend. Keys are unique
// and keep the order in which they appeared in the JSON body.
type Data = orderedmap.OrderedMap[string, any]

// NewData returns an empty Data.
func NewData() *Data {
	return orderedmap.New[string, any]()
}

// BackendResponse is the JSON body the backend answers a submission with.
type BackendResponse struct {
	// Message is the human-readable status.
	Message string `json:"message"`

	// Data holds the extracted fields. Nil when the body had no "data".
	Data *Data `json:"data,omitempty"`

	// Error is only set by the backend on failed processing.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Pairs returns the data entries in display order. Nil data yields nil.
func (r *BackendResponse) Pairs() []Pair {
	if r == nil || r.Data == nil {
		return nil
	}
	pairs := make([]Pair, 0, r.Data.Len())
	for p := r.Data.Oldest(); p != nil; p = p.Next() {
		pairs = append(pairs, Pair{Key: p.Key, Value: FormatScalar(p.Value)})
	}
	return pairs
}

// Pair is one rendered data entry.
type Pair struct {
	Key   string
	Value string
}

// FormatScalar renders a decoded JSON value the way it reads in a list:
// strings verbatim, numbers in shortest form, booleans and null as words.
// Non-scalar values fall back to their JSON encoding.
func FormatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// HealthResponse is the response for the backend greeting and health routes.
type HealthResponse struct {
	Message string `json:"message"`
}

// ProcessHTMLRequest is the JSON variant of a submission.
type ProcessHTMLRequest struct {
	HTML string `json:"html"`

	// Profile picks the extraction profile; empty means the server default.
	Profile string `json:"profile,omitempty"`
}
