package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/pagedrop/models"
)

// Selectors locate the product fields on a shop page.
type Selectors struct {
	Title       string
	Price       string
	Image       string
	Description string
}

// ProductProfile reads a product page with fixed CSS selectors.
type ProductProfile struct {
	title, price, image, desc cascadia.Selector
}

// NewProductProfile compiles the selectors. An invalid selector is a
// configuration error, reported here rather than on every request.
func NewProductProfile(s Selectors) (*ProductProfile, error) {
	compile := func(field, sel string) (cascadia.Selector, error) {
		c, err := cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("%s selector %q: %w", field, sel, err)
		}
		return c, nil
	}

	var (
		p   ProductProfile
		err error
	)
	if p.title, err = compile("title", s.Title); err != nil {
		return nil, err
	}
	if p.price, err = compile("price", s.Price); err != nil {
		return nil, err
	}
	if p.image, err = compile("image", s.Image); err != nil {
		return nil, err
	}
	if p.desc, err = compile("description", s.Description); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *ProductProfile) Name() string { return "product" }

// Extract requires every field to be present. The first match of each
// selector is used.
func (p *ProductProfile) Extract(_ context.Context, html string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewProcessError(models.ErrCodeExtraction, "parse document", err)
	}

	name, err := firstText(doc, p.title, "product title")
	if err != nil {
		return nil, err
	}
	price, err := firstText(doc, p.price, "product price")
	if err != nil {
		return nil, err
	}
	desc, err := firstText(doc, p.desc, "product description")
	if err != nil {
		return nil, err
	}

	src := doc.FindMatcher(p.image).First()
	if src.Length() == 0 {
		return nil, missing("product image")
	}
	srcset, ok := src.Attr("srcset")
	if !ok {
		return nil, missing("product image srcset")
	}
	imageURL := firstCandidate(srcset)
	if imageURL == "" {
		return nil, missing("product image URL")
	}

	slug := ProductSlug(name)
	prod := &models.Product{
		Name:        name,
		Slug:        slug,
		Description: desc,
		Price:       strings.ReplaceAll(price, "$", ""),
		ImageURL:    imageURL,
		ImageName:   slug + ".png",
	}
	return &Result{Product: prod, Data: prod.Data()}, nil
}

func firstText(doc *goquery.Document, m goquery.Matcher, what string) (string, error) {
	sel := doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return "", missing(what)
	}
	return strings.TrimSpace(sel.Text()), nil
}

// firstCandidate returns the URL of the first srcset candidate.
func firstCandidate(srcset string) string {
	fields := strings.Fields(srcset)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], ",")
}

func missing(what string) *models.ProcessError {
	return models.NewProcessError(models.ErrCodeExtraction, what+" not found", nil)
}
