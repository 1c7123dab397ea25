// Package process runs the backend pipeline for one submitted document:
// extract, record the product, store its image, notify, and answer.
package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/pagedrop/cache"
	"github.com/use-agent/pagedrop/extract"
	"github.com/use-agent/pagedrop/models"
	"github.com/use-agent/pagedrop/simhash"
	"github.com/use-agent/pagedrop/store"
	"github.com/use-agent/pagedrop/webhook"
)

// SuccessMessage is the message of every successful response.
const SuccessMessage = "Processing successful"

// driftBits is how far a page's structure fingerprint may move before the
// shop template is considered changed.
const driftBits = 10

// Recorder writes products to the sheet.
type Recorder interface {
	Record(ctx context.Context, p *models.Product, fp simhash.Hash) (row, prev *store.Row, err error)
}

// Uploader stores product images.
type Uploader interface {
	Upload(ctx context.Context, name, imageURL string) (string, error)
}

// Notifier announces recorded products.
type Notifier interface {
	DeliverAsync(event *webhook.Event)
}

// Options holds the optional pipeline stages. Nil stages are skipped.
type Options struct {
	Sheet   Recorder
	Bucket  Uploader
	Webhook Notifier
	Cache   *cache.Cache
}

// Processor is safe for concurrent use.
type Processor struct {
	extractor *extract.Extractor
	opts      Options
}

// New creates a Processor.
func New(ex *extract.Extractor, opts Options) *Processor {
	return &Processor{extractor: ex, opts: opts}
}

// Profiles lists the extraction profiles a request may name.
func (p *Processor) Profiles() []string { return p.extractor.Profiles() }

// Process handles one document. profile may be empty for the default.
// Errors are *models.ProcessError.
func (p *Processor) Process(ctx context.Context, html, profile string) (*models.BackendResponse, error) {
	start := time.Now()
	name, err := p.extractor.Resolve(profile)
	if err != nil {
		return nil, err
	}

	key := cache.Key(html, name)
	if resp, ok := p.opts.Cache.Get(key); ok {
		slog.Info("processed from cache", "profile", name, "bytes", len(html))
		return resp, nil
	}

	t := time.Now()
	res, err := p.extractor.Extract(ctx, name, html)
	if err != nil {
		slog.Warn("extraction failed", "profile", name, "error", err)
		return nil, err
	}
	extractDur := time.Since(t)

	var storeDur, uploadDur time.Duration
	if prod := res.Product; prod != nil {
		if storeDur, err = p.record(ctx, prod, html); err != nil {
			return nil, err
		}
		if uploadDur, err = p.upload(ctx, prod); err != nil {
			return nil, err
		}
		if p.opts.Webhook != nil {
			p.opts.Webhook.DeliverAsync(webhook.NewEvent(webhook.EventProductStored, prod))
		}
	}

	resp := &models.BackendResponse{Message: SuccessMessage, Data: res.Data}
	p.opts.Cache.Set(key, resp)

	slog.Info("processed",
		"profile", name,
		"bytes", len(html),
		"extract_ms", extractDur.Milliseconds(),
		"store_ms", storeDur.Milliseconds(),
		"upload_ms", uploadDur.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (p *Processor) record(ctx context.Context, prod *models.Product, html string) (time.Duration, error) {
	if p.opts.Sheet == nil {
		return 0, nil
	}
	t := time.Now()
	fp := simhash.Markup(html)
	row, prev, err := p.opts.Sheet.Record(ctx, prod, fp)
	if err != nil {
		slog.Error("sheet update failed", "slug", prod.Slug, "error", err)
		return 0, err
	}
	if prev != nil && prev.Fingerprint != 0 && !simhash.Near(prev.Fingerprint, fp, driftBits) {
		slog.Warn("product page template changed",
			"slug", row.Slug,
			"distance", simhash.Distance(prev.Fingerprint, fp),
		)
	}
	slog.Debug("sheet updated", "slug", row.Slug, "price", row.Price, "new", prev == nil)
	return time.Since(t), nil
}

func (p *Processor) upload(ctx context.Context, prod *models.Product) (time.Duration, error) {
	if p.opts.Bucket == nil || prod.ImageURL == "" {
		return 0, nil
	}
	t := time.Now()
	path, err := p.opts.Bucket.Upload(ctx, prod.ImageName, prod.ImageURL)
	if err != nil {
		slog.Error("image upload failed", "image", prod.ImageName, "error", err)
		return 0, err
	}
	slog.Debug("image stored", "key", store.Key(prod.ImageName), "path", path)
	return time.Since(t), nil
}
