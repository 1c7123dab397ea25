package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/pagedrop/llm"
	"github.com/use-agent/pagedrop/models"
)

var shopSelectors = Selectors{
	Title:       "h1.product-title",
	Price:       "p.actual-price",
	Image:       "div.product-image-wrapper.product-wrapper-inline picture source",
	Description: "div.product-description-list li",
}

const productPage = `<html><body>
<h1 class="product-title">  Café Lamp — Deluxe!  </h1>
<p class="actual-price">$12.50</p>
<div class="product-image-wrapper product-wrapper-inline"><picture>
  <source srcset="https://cdn.example/lamp.webp 1x, https://cdn.example/lamp@2x.webp 2x">
  <img src="https://cdn.example/lamp.jpg">
</picture></div>
<div class="product-description-list"><ul><li> Warm light </li><li>Second</li></ul></div>
</body></html>`

func keys(d *models.Data) []string {
	var out []string
	for p := d.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Café Lamp", "cafe-lamp"},
		{"  Hello,   World!  ", "hello-world"},
		{"already-slugged", "already-slugged"},
		{"--Edge--", "edge"},
		{"Snake_case Name", "snake_case-name"},
		{"Größe 42", "groe-42"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProductSlug(t *testing.T) {
	if got := ProductSlug("Café Lamp"); got != "cafe-lamp" {
		t.Errorf("ProductSlug(ascii-able) = %q", got)
	}

	a := ProductSlug("東京タワー")
	if !strings.HasPrefix(a, "product-") || len(a) != len("product-")+12 {
		t.Errorf("ProductSlug(cjk) = %q", a)
	}
	if again := ProductSlug("東京タワー"); again != a {
		t.Errorf("not stable: %q then %q", a, again)
	}
	if other := ProductSlug("大阪城"); other == a {
		t.Errorf("different names share slug %q", a)
	}
}

func TestProductProfile_NameWithoutASCII(t *testing.T) {
	p, err := NewProductProfile(shopSelectors)
	if err != nil {
		t.Fatalf("NewProductProfile: %v", err)
	}
	html := strings.Replace(productPage, "Café Lamp — Deluxe!", "東京タワー", 1)
	res, err := p.Extract(context.Background(), html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	slug := res.Product.Slug
	if slug != ProductSlug("東京タワー") {
		t.Errorf("slug = %q", slug)
	}
	if res.Product.ImageName != slug+".png" {
		t.Errorf("image name = %q", res.Product.ImageName)
	}
}

func TestProductProfile_Extract(t *testing.T) {
	p, err := NewProductProfile(shopSelectors)
	if err != nil {
		t.Fatalf("NewProductProfile: %v", err)
	}
	res, err := p.Extract(context.Background(), productPage)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := models.Product{
		Name:        "Café Lamp — Deluxe!",
		Slug:        "cafe-lamp-deluxe",
		Description: "Warm light",
		Price:       "12.50",
		ImageURL:    "https://cdn.example/lamp.webp",
		ImageName:   "cafe-lamp-deluxe.png",
	}
	if *res.Product != want {
		t.Errorf("product = %+v\nwant      %+v", *res.Product, want)
	}
	got := strings.Join(keys(res.Data), ",")
	if got != "name,slug,description,price,image_url,image_name" {
		t.Errorf("data order = %s", got)
	}
}

func TestProductProfile_MissingFields(t *testing.T) {
	p, err := NewProductProfile(shopSelectors)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		html string
		want string
	}{
		{"empty", "", "product title not found"},
		{"no price", `<h1 class="product-title">x</h1>`, "product price not found"},
		{"no srcset", strings.Replace(productPage, `srcset="https://cdn.example/lamp.webp 1x, https://cdn.example/lamp@2x.webp 2x"`, "", 1), "product image srcset not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Extract(context.Background(), tt.html)
			var pe *models.ProcessError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ProcessError", err)
			}
			if pe.Code != models.ErrCodeExtraction || pe.Message != tt.want {
				t.Errorf("err = %s / %s, want %s", pe.Code, pe.Message, tt.want)
			}
		})
	}
}

func TestNewProductProfile_BadSelector(t *testing.T) {
	s := shopSelectors
	s.Price = "p[["
	if _, err := NewProductProfile(s); err == nil {
		t.Fatal("expected error for invalid selector")
	}
}

func TestPageProfile_Extract(t *testing.T) {
	page := `<html lang="en"><head><title>Doc title</title>
<meta property="og:description" content="An article about lamps.">
<meta property="og:image" content="https://cdn.example/cover.png">
<meta property="og:url" content="https://blog.example/lamps">
</head><body><article><h1>Lamps</h1>
<p>` + strings.Repeat("Lamps make rooms brighter and warmer in the evening. ", 20) + `</p>
</article></body></html>`

	res, err := NewPageProfile().Extract(context.Background(), page)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Product != nil {
		t.Error("page profile should not produce a product")
	}
	get := func(k string) any {
		v, _ := res.Data.Get(k)
		return v
	}
	if get("title") == "" {
		t.Error("title empty")
	}
	if get("image") != "https://cdn.example/cover.png" {
		t.Errorf("image = %v", get("image"))
	}
	if get("url") != "https://blog.example/lamps" {
		t.Errorf("url = %v", get("url"))
	}
	orig, _ := get("tokens_original").(int)
	md, _ := get("tokens_markdown").(int)
	if orig == 0 || md == 0 || md >= orig {
		t.Errorf("tokens original=%d markdown=%d", orig, md)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcdef", 2},
		{"日本語日本語", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

type fakeChat struct {
	raw     string
	err     error
	content string
}

func (f *fakeChat) Extract(_ context.Context, content string, _ json.RawMessage) (json.RawMessage, *llm.Usage, error) {
	f.content = content
	if f.err != nil {
		return nil, nil, f.err
	}
	return json.RawMessage(f.raw), &llm.Usage{TotalTokens: 1}, nil
}

func TestLLMProfile_Extract(t *testing.T) {
	chat := &fakeChat{raw: `{"name":"Desk Fan","description":"Quiet","price":19.9,"image_url":null}`}
	p := NewLLMProfile(chat)

	page := `<html><head><meta property="og:image" content="https://cdn.example/fan.png"></head>
<body><h1>Desk Fan</h1><p>Quiet fan for $19.90</p></body></html>`
	res, err := p.Extract(context.Background(), page)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(chat.content, "Desk Fan") {
		t.Errorf("prompt content = %q", chat.content)
	}
	want := models.Product{
		Name:        "Desk Fan",
		Slug:        "desk-fan",
		Description: "Quiet",
		Price:       "19.9",
		ImageURL:    "https://cdn.example/fan.png",
		ImageName:   "desk-fan.png",
	}
	if *res.Product != want {
		t.Errorf("product = %+v", *res.Product)
	}
}

func TestLLMProfile_MissingName(t *testing.T) {
	p := NewLLMProfile(&fakeChat{raw: `{"name":null,"price":"3"}`})
	_, err := p.Extract(context.Background(), "<p>something</p>")
	var pe *models.ProcessError
	if !errors.As(err, &pe) || pe.Code != models.ErrCodeExtraction {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractor_Dispatch(t *testing.T) {
	prod, err := NewProductProfile(shopSelectors)
	if err != nil {
		t.Fatal(err)
	}
	e, err := New("product", prod, NewPageProfile())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := strings.Join(e.Profiles(), ","); got != "page,product" {
		t.Errorf("profiles = %s", got)
	}

	res, err := e.Extract(context.Background(), "", productPage)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Profile != "product" {
		t.Errorf("profile = %q", res.Profile)
	}

	_, err = e.Extract(context.Background(), "nope", productPage)
	var pe *models.ProcessError
	if !errors.As(err, &pe) || pe.Code != models.ErrCodeInvalidInput {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}

	if _, err := New("llm", prod); err == nil {
		t.Error("expected error for unregistered default")
	}
}
