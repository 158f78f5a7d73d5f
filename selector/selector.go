// Package selector decides how a search response is shown in chat.
//
// Select is a pure function of the response: the direct answer wins, then
// only the first vertical group is inspected and mapped to a Descriptor.
package selector

import (
	"github.com/seaglass/answers-fulfillment/answers"
)

const (
	VerticalFAQs         = "faqs"
	VerticalHelpArticles = "help_articles"
	VerticalProducts     = "products"

	ArticleLinkText = "Link to Article"

	DefaultMaxProducts       = 3
	DefaultNoProductsMessage = "Sorry, I couldn't find any glasses matching that."
)

// Options toggles optional verticals.
type Options struct {
	// Products enables the product carousel; unset means enabled. When
	// off, the products vertical is treated like any unrecognized vertical.
	Products          *bool  `yaml:"products"`
	MaxProducts       int    `yaml:"max_products"`
	NoProductsMessage string `yaml:"no_products_message"`
}

// WithDefaults fills unset options: products on, three cards, and the
// default no-products message.
func (o Options) WithDefaults() Options {
	if o.Products == nil {
		on := true
		o.Products = &on
	}
	if o.MaxProducts <= 0 {
		o.MaxProducts = DefaultMaxProducts
	}
	if o.NoProductsMessage == "" {
		o.NoProductsMessage = DefaultNoProductsMessage
	}
	return o
}

// Selector holds immutable options and is safe for concurrent use.
type Selector struct {
	opts Options
}

// New returns a Selector with opts completed by WithDefaults.
func New(opts Options) *Selector {
	return &Selector{opts: opts.WithDefaults()}
}

// Select classifies resp. It never panics; a nil response is NoMatch.
func (s *Selector) Select(resp *answers.SearchResponse) Descriptor {
	if resp == nil {
		return NoMatch{}
	}
	if da := resp.DirectAnswer; da != nil {
		return RichCard{Info{Title: da.Value, Subtitle: da.Snippet.Value}}
	}

	top, ok := TopVertical(resp)
	if !ok {
		return NoMatch{}
	}

	switch top.VerticalKey {
	case VerticalFAQs:
		return faq(top.Results)
	case VerticalHelpArticles:
		return helpArticle(top.Results)
	case VerticalProducts:
		if *s.opts.Products {
			return s.products(top.Results)
		}
	}
	return NoMatch{}
}

// TopVertical returns the first vertical group, the only one Select reads.
func TopVertical(resp *answers.SearchResponse) (answers.VerticalResult, bool) {
	if resp == nil || len(resp.VerticalResults) == 0 {
		return answers.VerticalResult{}, false
	}
	return resp.VerticalResults[0], true
}

func faq(results []answers.Result) Descriptor {
	if len(results) == 0 || !results[0].RawData.Has("answer") {
		return NoMatch{}
	}
	return PlainText(results[0].RawData.String("answer"))
}

func helpArticle(results []answers.Result) Descriptor {
	if len(results) == 0 {
		return NoMatch{}
	}
	top := results[0]
	card := RichCard{Info{Title: top.Name, Subtitle: top.RawData.String("s_snippet")}}
	if link := top.RawData.String("landingPageUrl"); link != "" {
		card = append(card, Chips{Options: []Chip{{Text: ArticleLinkText, Link: link}}})
	}
	return card
}

func (s *Selector) products(results []answers.Result) Descriptor {
	if len(results) == 0 {
		return PlainText(s.opts.NoProductsMessage)
	}
	if len(results) > s.opts.MaxProducts {
		results = results[:s.opts.MaxProducts]
	}

	card := make(RichCard, 0, 2*len(results))
	for _, r := range results {
		if url := r.RawData.LastString("photoGallery", "image.url"); url != "" {
			card = append(card, Image{URL: url, AltText: r.Name})
		}
		info := Info{Title: r.Name}
		if price := r.RawData.String("c_price"); price != "" {
			info.Subtitle = "$" + price
		}
		card = append(card, info)
	}
	return card
}
