package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/pagedrop/models"
)

var schema = json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`)

func TestExtract_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "m1" || len(req.Messages) != 2 || req.Messages[1].Content != "page text" {
			t.Errorf("request = %+v", req)
		}
		if !strings.Contains(req.Messages[0].Content, `"name"`) {
			t.Error("schema missing from system prompt")
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"name\":\"Lamp\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "sk-test", "m1", srv.URL+"/v1/")
	raw, usage, err := c.Extract(context.Background(), "page text", schema)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(raw) != `{"name":"Lamp"}` {
		t.Errorf("raw = %s", raw)
	}
	if usage.TotalTokens != 13 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestExtract_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, models.ErrCodeLLMAuthFailure},
		{"rate limited", http.StatusTooManyRequests, `{}`, models.ErrCodeLLMRateLimited},
		{"server error", http.StatusInternalServerError, `oops`, models.ErrCodeLLMFailure},
		{"no choices", http.StatusOK, `{"choices":[]}`, models.ErrCodeLLMFailure},
		{"not an object", http.StatusOK, `{"choices":[{"message":{"content":"[1,2]"}}]}`, models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.Client(), "k", "m", srv.URL)
			_, _, err := c.Extract(context.Background(), "x", schema)
			var pe *models.ProcessError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ProcessError", err)
			}
			if pe.Code != tt.code {
				t.Errorf("code = %s, want %s", pe.Code, tt.code)
			}
		})
	}
}
