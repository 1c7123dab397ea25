// Package ui renders submission outcomes into popup widgets.
package ui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/use-agent/pagedrop/models"
)

// FailureText is the status shown for every failed submission.
const FailureText = "Error sending HTML to backend."

// StatusLine is the single line of status text.
type StatusLine interface {
	SetText(text string)
}

// Entry is one rendered label/value row.
type Entry struct {
	// Label is the capitalized key followed by a colon. It is drawn
	// smaller and underlined.
	Label string `json:"label"`

	// Value is the plain value text.
	Value string `json:"value"`
}

// EntryList is the list container holding the data rows.
type EntryList interface {
	Clear()
	Append(e Entry)
	SetVisible(visible bool)
}

// Surface draws a whole outcome in one step, so readers never see a
// partly drawn list.
type Surface interface {
	Show(o models.Outcome)
}

// Control is the button that triggers a capture.
type Control interface {
	SetEnabled(enabled bool)
}

// Render draws o into status and list. The list is always cleared and
// hidden first, so rendering the same outcome twice leaves the same state
// as rendering it once.
func Render(o models.Outcome, status StatusLine, list EntryList) {
	list.Clear()
	list.SetVisible(false)

	if !o.OK() {
		status.SetText(FailureText)
		return
	}

	resp := o.Response()
	status.SetText("Response: " + resp.Message)
	if resp.Data == nil {
		return
	}
	for _, p := range resp.Pairs() {
		list.Append(Entry{Label: Label(p.Key), Value: p.Value})
	}
	list.SetVisible(true)
}

// Label capitalizes the first letter of every whitespace-separated word of
// key and appends a colon.
func Label(key string) string {
	words := strings.Split(key, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ") + ":"
}
