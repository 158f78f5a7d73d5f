// Package answers is a small client for the Yext Answers universal search API.
package answers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultExperienceKey     = "seaglass-chat"
	DefaultLocale            = "en"
	DefaultExperienceVersion = "PRODUCTION"
	DefaultAPIVersion        = "20220511"
	DefaultEndpoint          = "https://liveapi-sandbox.yext.com/v2/accounts/me/answers/query"
	DefaultTimeout           = 10 * time.Second
)

var (
	ErrUpstream   = errors.New("answers: upstream search failed")
	ErrEmptyQuery = errors.New("answers: empty query")
)

// Searcher runs a universal search for a query.
type Searcher interface {
	UniversalSearch(ctx context.Context, query string) (*SearchResponse, error)
}

// Config holds the experience coordinates and credentials.
type Config struct {
	APIKey            string        `yaml:"api_key"`
	ExperienceKey     string        `yaml:"experience_key"`
	Locale            string        `yaml:"locale"`
	ExperienceVersion string        `yaml:"experience_version"`
	APIVersion        string        `yaml:"api_version"`
	Endpoint          string        `yaml:"endpoint"`
	Timeout           time.Duration `yaml:"timeout"`
}

func (c Config) WithDefaults() Config {
	if c.ExperienceKey == "" {
		c.ExperienceKey = DefaultExperienceKey
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.ExperienceVersion == "" {
		c.ExperienceVersion = DefaultExperienceVersion
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a client whose transport is traced with OpenTelemetry.
func NewClient(cfg Config) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// UniversalSearch queries every vertical of the experience at once.
// All failures wrap ErrUpstream except an empty query.
func (c *Client) UniversalSearch(ctx context.Context, query string) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	searchURL, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %v", ErrUpstream, err)
	}
	q := searchURL.Query()
	q.Set("input", query)
	q.Set("experienceKey", c.cfg.ExperienceKey)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("v", c.cfg.APIVersion)
	q.Set("version", c.cfg.ExperienceVersion)
	q.Set("locale", c.cfg.Locale)
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d: %s", ErrUpstream, resp.StatusCode, truncate(string(data), 256))
	}

	return decodeUniversal(data)
}

type universalEnvelope struct {
	Meta struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"meta"`
	Response struct {
		DirectAnswer *struct {
			// Answer is kept raw: value is a string for text fields but an
			// object for structured ones such as hours or address.
			Answer json.RawMessage `json:"answer"`
		} `json:"directAnswer"`
		Modules []struct {
			VerticalConfigID string `json:"verticalConfigId"`
			Results          []struct {
				Data json.RawMessage `json:"data"`
			} `json:"results"`
		} `json:"modules"`
	} `json:"response"`
}

func decodeUniversal(data []byte) (*SearchResponse, error) {
	var env universalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(env.Meta.Errors) > 0 {
		e := env.Meta.Errors[0]
		return nil, fmt.Errorf("%w: code %d: %s", ErrUpstream, e.Code, e.Message)
	}

	out := &SearchResponse{}
	if da := env.Response.DirectAnswer; da != nil {
		out.DirectAnswer = directAnswer(RawData(da.Answer))
	}

	out.VerticalResults = make([]VerticalResult, 0, len(env.Response.Modules))
	for _, m := range env.Response.Modules {
		vr := VerticalResult{
			VerticalKey: m.VerticalConfigID,
			Results:     make([]Result, 0, len(m.Results)),
		}
		for _, r := range m.Results {
			raw := RawData(r.Data)
			vr.Results = append(vr.Results, Result{
				Name:    raw.String("name"),
				RawData: raw,
			})
		}
		out.VerticalResults = append(out.VerticalResults, vr)
	}
	return out, nil
}

// directAnswer returns nil when the answer has no scalar value, so the
// vertical results are used instead.
func directAnswer(answer RawData) *DirectAnswer {
	value := answer.String("value")
	if value == "" {
		return nil
	}
	return &DirectAnswer{
		Value:   value,
		Snippet: Snippet{Value: answer.String("snippet.value")},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
