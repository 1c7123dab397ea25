package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestOutcome_ExactlyOneVariant(t *testing.T) {
	ok := Success(&BackendResponse{Message: "ok"})
	if !ok.OK() || ok.Err() != nil || ok.Response() == nil {
		t.Fatalf("Success outcome inconsistent: ok=%v err=%v", ok.OK(), ok.Err())
	}

	fail := Failure(errors.New("boom"))
	if fail.OK() || fail.Err() == nil || fail.Response() != nil {
		t.Fatalf("Failure outcome inconsistent: ok=%v resp=%v", fail.OK(), fail.Response())
	}
	if fail.Description() != "boom" {
		t.Errorf("description = %q", fail.Description())
	}

	if Success(nil).OK() {
		t.Error("Success(nil) must be a failure")
	}
	if Failure(nil).Err() == nil {
		t.Error("Failure(nil) must still carry an error")
	}

	var zero Outcome
	if zero.OK() || zero.Err() == nil {
		t.Error("zero Outcome must read as a failure")
	}
}

func TestBackendResponse_PreservesOrder(t *testing.T) {
	body := `{"message":"ok","data":{"title":"Widget","price":"9.99","stock":3,"sale":true,"note":null}}`

	var resp BackendResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := resp.Pairs()
	want := []Pair{
		{"title", "Widget"},
		{"price", "9.99"},
		{"stock", "3"},
		{"sale", "true"},
		{"note", "null"},
	}
	if len(got) != len(want) {
		t.Fatalf("pairs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBackendResponse_NoData(t *testing.T) {
	var resp BackendResponse
	if err := json.Unmarshal([]byte(`{"message":"no data found"}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data != nil {
		t.Errorf("expected nil data")
	}
	if resp.Pairs() != nil {
		t.Errorf("expected no pairs")
	}
}

func TestProduct_DataOrder(t *testing.T) {
	p := &Product{Name: "Widget", Slug: "widget", Description: "d", Price: "9.99", ImageURL: "u", ImageName: "widget.png"}
	b, err := json.Marshal(p.Data())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"Widget","slug":"widget","description":"d","price":"9.99","image_url":"u","image_name":"widget.png"}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
}

func TestProcessError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewProcessError(ErrCodeExtraction, "missing title", inner)
	if !errors.Is(err, inner) {
		t.Error("errors.Is should see the wrapped error")
	}
	d := err.ToDetail()
	if d.Code != ErrCodeExtraction || d.Message != "missing title: inner" {
		t.Errorf("detail = %+v", d)
	}
}
