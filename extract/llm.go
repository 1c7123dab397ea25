package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/pagedrop/llm"
	"github.com/use-agent/pagedrop/models"
)

// maxPromptTokens caps the Markdown sent to the model.
const maxPromptTokens = 24000

var productSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "product title"},
    "description": {"type": "string", "description": "first line of the product description"},
    "price": {"type": "string", "description": "current price, digits and decimal point only"},
    "image_url": {"type": "string", "description": "absolute URL of the main product image"}
  },
  "required": ["name", "price"]
}`)

// Chat is the part of llm.Client the profile uses.
type Chat interface {
	Extract(ctx context.Context, content string, schema json.RawMessage) (json.RawMessage, *llm.Usage, error)
}

// LLMProfile asks a language model for the product fields of a page that
// the fixed selectors do not fit.
type LLMProfile struct {
	chat Chat
	page *PageProfile
}

// NewLLMProfile creates an LLMProfile over chat.
func NewLLMProfile(chat Chat) *LLMProfile {
	return &LLMProfile{chat: chat, page: NewPageProfile()}
}

func (p *LLMProfile) Name() string { return "llm" }

func (p *LLMProfile) Extract(ctx context.Context, html string) (*Result, error) {
	s := p.page.summarise(html)
	content := s.Markdown
	if strings.TrimSpace(content) == "" {
		return nil, models.NewProcessError(models.ErrCodeExtraction, "document has no readable content", nil)
	}
	if limit := maxPromptTokens * 3; len(content) > limit {
		content = content[:limit]
	}

	raw, usage, err := p.chat.Extract(ctx, content, productSchema)
	if err != nil {
		return nil, err
	}
	if usage != nil {
		slog.Debug("llm extraction", "prompt_tokens", usage.PromptTokens, "total_tokens", usage.TotalTokens)
	}

	var got struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Price       any     `json:"price"`
		ImageURL    *string `json:"image_url"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		return nil, models.NewProcessError(models.ErrCodeLLMFailure, "decode extracted product", err)
	}

	name := deref(got.Name)
	if name == "" {
		return nil, models.NewProcessError(models.ErrCodeExtraction, "product title not found", nil)
	}
	price := priceText(got.Price)
	if price == "" {
		return nil, models.NewProcessError(models.ErrCodeExtraction, "product price not found", nil)
	}

	image := deref(got.ImageURL)
	if image == "" {
		image = s.Image
	}
	slug := ProductSlug(name)
	prod := &models.Product{
		Name:        name,
		Slug:        slug,
		Description: deref(got.Description),
		Price:       price,
		ImageURL:    image,
		ImageName:   slug + ".png",
	}
	return &Result{Product: prod, Data: prod.Data()}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// priceText accepts the price as a string or a number.
func priceText(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(strings.ReplaceAll(x, "$", ""))
	case float64:
		return models.FormatScalar(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
