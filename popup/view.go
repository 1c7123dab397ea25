package popup

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/use-agent/pagedrop/ui"
)

// pageView is everything the popup page needs to draw.
type pageView struct {
	Snapshot ui.Snapshot
	Endpoint string
	URL      string
	TabReady bool
}

// popupPage renders the whole popup. While the button is disabled the page
// refreshes itself until the cycle ends.
func popupPage(v pageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>pagedrop</title>`); err != nil {
			return err
		}
		if !v.Snapshot.ButtonEnabled {
			if _, err := io.WriteString(w, `<meta http-equiv="refresh" content="1">`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `<style>`+popupCSS+`</style></head><body>`); err != nil {
			return err
		}
		if err := sendForm(v).Render(ctx, w); err != nil {
			return err
		}
		if err := statusLine(v.Snapshot.Status).Render(ctx, w); err != nil {
			return err
		}
		if err := entryList(v.Snapshot).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func sendForm(v pageView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		placeholder := "https://shop.example/product"
		if v.TabReady {
			placeholder = "leave empty to capture the active tab"
		}
		var b strings.Builder
		b.WriteString(`<form method="post" action="/send"><p class="endpoint">Backend: `)
		b.WriteString(templ.EscapeString(v.Endpoint))
		b.WriteString(`</p><input type="url" name="url" value="`)
		b.WriteString(templ.EscapeString(v.URL))
		b.WriteString(`" placeholder="`)
		b.WriteString(templ.EscapeString(placeholder))
		b.WriteString(`">`)
		if v.Snapshot.ButtonEnabled {
			b.WriteString(`<button id="sendButton" type="submit">Send page</button>`)
		} else {
			b.WriteString(`<button id="sendButton" type="submit" disabled class="busy">Sending…</button>`)
		}
		b.WriteString(`</form>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func statusLine(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<p id="feedback">`)
		b.WriteString(templ.EscapeString(text))
		b.WriteString(`</p>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func entryList(s ui.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="result" class="`)
		if !s.ListVisible {
			b.WriteString("hidden")
		}
		b.WriteString(`"><ul id="productInfo">`)
		for _, e := range s.Entries {
			b.WriteString(`<li><span class="key">`)
			b.WriteString(templ.EscapeString(e.Label))
			b.WriteString(`</span><span class="val">`)
			b.WriteString(templ.EscapeString(e.Value))
			b.WriteString(`</span></li>`)
		}
		b.WriteString(`</ul></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

const popupCSS = `body{font-family:sans-serif;width:320px;margin:12px}
.hidden{display:none}
.endpoint{font-size:11px;color:#666}
input{width:100%;box-sizing:border-box;margin-bottom:8px}
button.busy{opacity:.5;cursor:not-allowed}
li{margin-top:4px}
.key{margin-right:4px;font-weight:600;font-size:14px;text-decoration:underline}
.val{font-weight:500;font-size:12px}`
