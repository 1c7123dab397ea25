package extract

import (
	"context"
	"log/slog"
	"math"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/pagedrop/models"
)

// minContentLength is the shortest readability text still trusted as the
// main content of a page.
const minContentLength = 50

// placeholderURL stands in when a document names no URL of its own.
const placeholderURL = "http://localhost/"

// PageProfile summarises any page: readability metadata, with Open Graph
// tags filling the gaps, and a size estimate of its Markdown rendering.
type PageProfile struct {
	conv *converter.Converter
}

// NewPageProfile creates a PageProfile with its Markdown converter.
func NewPageProfile() *PageProfile {
	return &PageProfile{conv: newMarkdownConverter()}
}

func (p *PageProfile) Name() string { return "page" }

// Extract never fails on odd markup; it reports what it could find.
func (p *PageProfile) Extract(_ context.Context, html string) (*Result, error) {
	s := p.summarise(html)

	d := models.NewData()
	d.Set("title", s.Title)
	d.Set("description", s.Description)
	d.Set("site_name", s.SiteName)
	d.Set("author", s.Author)
	d.Set("language", s.Language)
	d.Set("url", s.URL)
	d.Set("image", s.Image)
	d.Set("tokens_original", s.TokensOriginal)
	d.Set("tokens_markdown", s.TokensMarkdown)
	d.Set("savings_percent", s.SavingsPercent)
	return &Result{Data: d}, nil
}

// pageSummary is the page profile's view of a document.
type pageSummary struct {
	Title          string
	Description    string
	SiteName       string
	Author         string
	Language       string
	URL            string
	Image          string
	Markdown       string
	TokensOriginal int
	TokensMarkdown int
	SavingsPercent float64
}

func (p *PageProfile) summarise(html string) pageSummary {
	og := openGraph(html)
	source := og.URL
	if source == "" {
		source = placeholderURL
	}

	article, ok := readArticle(html, source)
	content := article.Content
	if !ok {
		content = html
	}
	md, err := p.conv.ConvertString(content, converter.WithDomain(source))
	if err != nil {
		slog.Warn("markdown conversion failed", "error", err)
		md = ""
	}

	s := pageSummary{
		Title:          firstNonEmpty(article.Title, og.Title, og.DocTitle),
		Description:    firstNonEmpty(article.Excerpt, og.Description),
		SiteName:       firstNonEmpty(article.SiteName, og.SiteName),
		Author:         article.Byline,
		Language:       article.Language,
		URL:            og.URL,
		Image:          og.Image,
		Markdown:       md,
		TokensOriginal: EstimateTokens(html),
		TokensMarkdown: EstimateTokens(md),
	}
	if s.TokensOriginal > 0 {
		pct := float64(s.TokensOriginal-s.TokensMarkdown) / float64(s.TokensOriginal) * 100
		s.SavingsPercent = math.Round(pct*100) / 100
	}
	return s
}

// readArticle runs readability. ok is false when the result is too thin
// to stand for the page.
func readArticle(html, source string) (readability.Article, bool) {
	u, err := nurl.Parse(source)
	if err != nil {
		return readability.Article{}, false
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		slog.Debug("readability failed", "error", err)
		return readability.Article{}, false
	}
	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return article, false
	}
	return article, true
}

type ogTags struct {
	Title       string
	Description string
	Image       string
	SiteName    string
	URL         string
	DocTitle    string
}

func openGraph(html string) ogTags {
	var og ogTags
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return og
	}
	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		switch prop {
		case "og:title":
			og.Title = content
		case "og:description":
			og.Description = content
		case "og:image":
			og.Image = content
		case "og:site_name":
			og.SiteName = content
		case "og:url":
			og.URL = content
		}
	})
	if og.URL == "" {
		if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
			og.URL = strings.TrimSpace(href)
		}
	}
	if u, err := nurl.Parse(og.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		og.URL = ""
	}
	og.DocTitle = strings.TrimSpace(doc.Find("title").First().Text())
	return og
}

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// EstimateTokens approximates a token count as one token per three runes.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if n < 3 {
		return 1
	}
	return n / 3
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
