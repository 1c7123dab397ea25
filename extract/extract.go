// Package extract turns captured markup into response data.
//
// Each profile reads the document differently: "product" applies the shop's
// CSS selectors, "page" summarises any article-like page, and "llm" asks a
// language model for the product fields.
package extract

import (
	"context"
	"sort"

	"github.com/use-agent/pagedrop/models"
)

// Result is what a profile extracted. Product is nil for profiles that do
// not describe a product; Data is always set on success.
type Result struct {
	Profile string
	Product *models.Product
	Data    *models.Data
}

// Profile is one way of reading a document.
type Profile interface {
	Name() string
	Extract(ctx context.Context, html string) (*Result, error)
}

// Extractor dispatches documents to named profiles.
type Extractor struct {
	profiles map[string]Profile
	fallback string
}

// New creates an Extractor. def names the profile used when a request does
// not pick one and must be among profiles.
func New(def string, profiles ...Profile) (*Extractor, error) {
	e := &Extractor{profiles: make(map[string]Profile, len(profiles)), fallback: def}
	for _, p := range profiles {
		e.profiles[p.Name()] = p
	}
	if _, ok := e.profiles[def]; !ok {
		return nil, models.NewProcessError(models.ErrCodeInvalidInput, "unknown default profile "+def, nil)
	}
	return e, nil
}

// Default returns the default profile name.
func (e *Extractor) Default() string { return e.fallback }

// Profiles lists the registered profile names, sorted.
func (e *Extractor) Profiles() []string {
	names := make([]string, 0, len(e.profiles))
	for n := range e.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a requested profile name to a registered one. The empty
// name means the default.
func (e *Extractor) Resolve(name string) (string, error) {
	if name == "" {
		return e.fallback, nil
	}
	if _, ok := e.profiles[name]; !ok {
		return "", models.NewProcessError(models.ErrCodeInvalidInput, "unknown extraction profile "+name, nil)
	}
	return name, nil
}

// Extract runs the named profile over html.
func (e *Extractor) Extract(ctx context.Context, profile, html string) (*Result, error) {
	name, err := e.Resolve(profile)
	if err != nil {
		return nil, err
	}
	res, err := e.profiles[name].Extract(ctx, html)
	if err != nil {
		return nil, err
	}
	res.Profile = name
	return res, nil
}
