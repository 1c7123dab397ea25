package ui

import (
	"sync"

	"github.com/use-agent/pagedrop/models"
)

// Panel is an in-memory popup: a status line, an entry list and a send
// button. Its widgets are safe for concurrent use, and Snapshot gives a
// consistent copy for drawing.
type Panel struct {
	mu      sync.RWMutex
	status  string
	entries []Entry
	visible bool
	enabled bool
}

// NewPanel creates a Panel with an enabled button and an empty, hidden list.
func NewPanel() *Panel {
	return &Panel{enabled: true}
}

// Snapshot is a point-in-time copy of a Panel.
type Snapshot struct {
	Status        string  `json:"status"`
	Entries       []Entry `json:"entries"`
	ListVisible   bool    `json:"list_visible"`
	ButtonEnabled bool    `json:"button_enabled"`
}

// Snapshot returns a copy of the panel state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entries := make([]Entry, len(p.entries))
	copy(entries, p.entries)
	return Snapshot{
		Status:        p.status,
		Entries:       entries,
		ListVisible:   p.visible,
		ButtonEnabled: p.enabled,
	}
}

// Show renders o into a private draft and swaps it in under one lock.
func (p *Panel) Show(o models.Outcome) {
	d := &draft{}
	Render(o, d, d)

	p.mu.Lock()
	p.status = d.status
	p.entries = d.entries
	p.visible = d.visible
	p.mu.Unlock()
}

// draft is an unlocked status line and entry list used by Show.
type draft struct {
	status  string
	entries []Entry
	visible bool
}

func (d *draft) SetText(text string)     { d.status = text }
func (d *draft) Clear()                  { d.entries = nil }
func (d *draft) Append(e Entry)          { d.entries = append(d.entries, e) }
func (d *draft) SetVisible(visible bool) { d.visible = visible }

// Status returns the status line widget.
func (p *Panel) Status() StatusLine { return panelStatus{p} }

// List returns the entry list widget.
func (p *Panel) List() EntryList { return panelList{p} }

// Button returns the send button widget.
func (p *Panel) Button() Control { return panelButton{p} }

type panelStatus struct{ p *Panel }

func (s panelStatus) SetText(text string) {
	s.p.mu.Lock()
	s.p.status = text
	s.p.mu.Unlock()
}

type panelList struct{ p *Panel }

func (l panelList) Clear() {
	l.p.mu.Lock()
	l.p.entries = nil
	l.p.mu.Unlock()
}

func (l panelList) Append(e Entry) {
	l.p.mu.Lock()
	l.p.entries = append(l.p.entries, e)
	l.p.mu.Unlock()
}

func (l panelList) SetVisible(visible bool) {
	l.p.mu.Lock()
	l.p.visible = visible
	l.p.mu.Unlock()
}

type panelButton struct{ p *Panel }

func (b panelButton) SetEnabled(enabled bool) {
	b.p.mu.Lock()
	b.p.enabled = enabled
	b.p.mu.Unlock()
}
