package answers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const universalFAQ = `{
  "meta": {"uuid": "abc", "errors": []},
  "response": {
    "modules": [
      {"verticalConfigId": "faqs", "resultsCount": 1, "results": [
        {"data": {"id": "1", "name": "Do you ship abroad?", "answer": "Yes, to 40 countries."}}
      ]},
      {"verticalConfigId": "products", "results": [
        {"data": {"name": "Sea Frame", "c_price": 99}}
      ]}
    ]
  }
}`

const universalDirect = `{
  "meta": {},
  "response": {
    "directAnswer": {
      "type": "FEATURED_SNIPPET",
      "answer": {"value": "30 days", "snippet": {"value": "Returns are accepted within 30 days."}}
    },
    "modules": []
  }
}`

const universalStructuredDirect = `{
  "meta": {},
  "response": {
    "directAnswer": {
      "type": "FIELD_VALUE",
      "answer": {
        "fieldType": "hours",
        "value": {"monday": {"openIntervals": [{"start": "09:00", "end": "17:00"}]}}
      }
    },
    "modules": [
      {"verticalConfigId": "faqs", "results": [
        {"data": {"name": "When are you open?", "answer": "Weekdays 9 to 5."}}
      ]}
    ]
  }
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "key", Endpoint: srv.URL + "/v2/accounts/me/answers/query"})
}

func TestUniversalSearchSendsExperienceParams(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"input":         q.Get("input"),
			"experienceKey": q.Get("experienceKey"),
			"api_key":       q.Get("api_key"),
			"version":       q.Get("version"),
			"locale":        q.Get("locale"),
			"v":             q.Get("v"),
		}
		_, _ = w.Write([]byte(universalFAQ))
	})

	_, err := c.UniversalSearch(context.Background(), "shipping abroad")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"input":         "shipping abroad",
		"experienceKey": DefaultExperienceKey,
		"api_key":       "key",
		"version":       DefaultExperienceVersion,
		"locale":        DefaultLocale,
		"v":             DefaultAPIVersion,
	}, got)
}

func TestUniversalSearchDecodesModules(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(universalFAQ))
	})

	resp, err := c.UniversalSearch(context.Background(), "shipping")
	require.NoError(t, err)
	assert.Nil(t, resp.DirectAnswer)
	require.Len(t, resp.VerticalResults, 2)

	faqs := resp.VerticalResults[0]
	assert.Equal(t, "faqs", faqs.VerticalKey)
	require.Len(t, faqs.Results, 1)
	assert.Equal(t, "Do you ship abroad?", faqs.Results[0].Name)
	assert.Equal(t, "Yes, to 40 countries.", faqs.Results[0].RawData.String("answer"))

	assert.Equal(t, "products", resp.VerticalResults[1].VerticalKey)
	assert.Equal(t, "99", resp.VerticalResults[1].Results[0].RawData.String("c_price"))
}

func TestUniversalSearchDecodesDirectAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(universalDirect))
	})

	resp, err := c.UniversalSearch(context.Background(), "return window")
	require.NoError(t, err)
	require.NotNil(t, resp.DirectAnswer)
	assert.Equal(t, "30 days", resp.DirectAnswer.Value)
	assert.Equal(t, "Returns are accepted within 30 days.", resp.DirectAnswer.Snippet.Value)
	assert.Empty(t, resp.VerticalResults)
}

func TestUniversalSearchStructuredDirectAnswerKeepsModules(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(universalStructuredDirect))
	})

	resp, err := c.UniversalSearch(context.Background(), "opening hours")
	require.NoError(t, err)
	assert.Nil(t, resp.DirectAnswer)
	require.Len(t, resp.VerticalResults, 1)
	assert.Equal(t, "faqs", resp.VerticalResults[0].VerticalKey)
	assert.Equal(t, "Weekdays 9 to 5.", resp.VerticalResults[0].Results[0].RawData.String("answer"))
}

func TestUniversalSearchHTTPErrorIsUpstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.UniversalSearch(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream), "got %v", err)
	assert.Contains(t, err.Error(), "502")
}

func TestUniversalSearchMetaErrorIsUpstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"errors":[{"code":4,"message":"invalid api key"}]},"response":{}}`))
	})

	_, err := c.UniversalSearch(context.Background(), "anything")
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestUniversalSearchBadJSONIsUpstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.UniversalSearch(context.Background(), "anything")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestUniversalSearchCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(universalFAQ))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.UniversalSearch(ctx, "anything")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestUniversalSearchEmptyQuery(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.UniversalSearch(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.False(t, called)
}
