package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), nil, &out, &errOut)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want ErrHelp", err)
	}
	if !strings.Contains(errOut.String(), "pagedrop send") {
		t.Errorf("usage not printed: %q", errOut.String())
	}

	if err := run(context.Background(), []string{"bogus"}, &out, &errOut); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestRun_SendFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Processing successful","data":{"name":"Brass Lamp","price":"12.50"}}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"send", "-endpoint", srv.URL, path}, &out, &errOut)
	if err != nil {
		t.Fatalf("run: %v (%s)", err, errOut.String())
	}
	for _, want := range []string{"Response: Processing successful", "Name:", "Brass Lamp", "Price:", "12.50"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_SendFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"send", "-endpoint", "http://127.0.0.1:1/", filepath.Join(t.TempDir(), "missing.html")}, &out, &errOut)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.String(), "Error sending HTML to backend.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_SendTooManyTargets(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"send", "a", "b"}, &out, &errOut); err == nil {
		t.Error("expected error for two targets")
	}
}
