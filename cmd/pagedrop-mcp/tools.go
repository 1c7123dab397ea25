package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagedrop/capture"
	"github.com/use-agent/pagedrop/trigger"
	"github.com/use-agent/pagedrop/ui"
)

// defaultMaxChars bounds capture_page output unless the caller asks for
// more.
const defaultMaxChars = 50000

// tools holds what the MCP handlers share: one capturer and one popup
// panel driven by one controller, like the browser popup.
type tools struct {
	capturer capture.Capturer
	panel    *ui.Panel
	ctrl     *trigger.Controller
}

func newTools(c capture.Capturer, s trigger.Submitter) *tools {
	panel := ui.NewPanel()
	ctrl := trigger.New(c, s, trigger.Widgets{Surface: panel, Button: panel.Button()})
	return &tools{capturer: c, panel: panel, ctrl: ctrl}
}

func (t *tools) register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("send_page",
		mcp.WithDescription("Capture a page and send it to the pagedrop backend. Returns the status line and the extracted fields, as the popup shows them."),
		mcp.WithString("target",
			mcp.Description("What to capture: a http(s) URL, a path to a saved HTML file, or 'tab' for the active browser tab (default)"),
		),
	), t.handleSend)

	s.AddTool(mcp.NewTool("capture_page",
		mcp.WithDescription("Capture the rendered markup of a page without sending it anywhere."),
		mcp.WithString("target",
			mcp.Description("A http(s) URL, a path to a saved HTML file, or 'tab' for the active browser tab (default)"),
		),
		mcp.WithNumber("max_chars",
			mcp.Description(fmt.Sprintf("Truncate the markup to this many bytes (default %d)", defaultMaxChars)),
		),
	), t.handleCapture)

	s.AddTool(mcp.NewTool("popup_state",
		mcp.WithDescription("Return the popup panel as JSON: status line, entries, list visibility and whether the send button is enabled."),
	), t.handleState)
}

func (t *tools) target(request mcp.CallToolRequest) (capture.Target, error) {
	tgt := capture.ParseTarget(request.GetString("target", ""))
	if tgt.Path == "-" {
		return capture.Target{}, errors.New("stdin is the MCP transport and cannot be captured")
	}
	return tgt, nil
}

func (t *tools) handleSend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tgt, err := t.target(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	o, err := t.ctrl.Activate(ctx, tgt)
	if errors.Is(err, trigger.ErrBusy) {
		return mcp.NewToolResultError("a submission is already in flight"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	if err := ui.Print(&buf, t.panel.Snapshot(), false); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !o.OK() {
		return mcp.NewToolResultError(buf.String() + o.Description()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (t *tools) handleCapture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tgt, err := t.target(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := t.capturer.Capture(ctx, tgt)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capture %s: %v", tgt, err)), nil
	}

	limit := request.GetInt("max_chars", defaultMaxChars)
	if limit > 0 && len(doc) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(doc[cut]) {
			cut--
		}
		doc = doc[:cut] + fmt.Sprintf("\n<!-- truncated: %d of %d bytes -->", cut, len(doc))
	}
	return mcp.NewToolResultText(doc), nil
}

func (t *tools) handleState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(struct {
		State string      `json:"state"`
		Panel ui.Snapshot `json:"panel"`
	}{t.ctrl.State().String(), t.panel.Snapshot()}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
