package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	. "github.com/Aymensat/CarthageGate/logging"
)

// Gateway calls the city-services API gateway.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// GatewayAuth selects how requests to the gateway are authenticated.
// With nothing set the gateway is called anonymously.
type GatewayAuth struct {
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewGateway creates a gateway client. A nil client uses a plain http.Client
// with no timeout override.
func NewGateway(baseURL string, client *http.Client) *Gateway {
	if client == nil {
		client = &http.Client{}
	}
	return &Gateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// NewGatewayClient builds the HTTP client for the gateway from auth.
// Client credentials take precedence over a static token.
func NewGatewayClient(ctx context.Context, auth GatewayAuth) *http.Client {
	switch {
	case auth.ClientID != "":
		cc := clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			TokenURL:     auth.TokenURL,
		}
		L_debug("gateway: using client credentials", "tokenURL", auth.TokenURL)
		return cc.Client(ctx)
	case auth.Token != "":
		L_debug("gateway: using static bearer token")
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.Token}))
	default:
		return &http.Client{}
	}
}

// StatusError is a non-2xx gateway response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	kind := "Server Error"
	if e.StatusCode < 500 {
		kind = "Client Error"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, http.StatusText(e.StatusCode), e.URL)
}

// Get issues a GET to path with query and returns the JSON body.
func (g *Gateway) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return g.do(req)
}

// PostJSON issues a POST with body encoded as JSON and returns the JSON body.
func (g *Gateway) PostJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req)
}

func (g *Gateway) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	L_debug("gateway: request", "method", req.Method, "url", req.URL.String())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON in response from %s", req.URL.String())
	}
	return json.RawMessage(body), nil
}

// PathSegment escapes a value for use as one path segment.
func PathSegment(v string) string {
	return url.PathEscape(v)
}

// QueryFromParams encodes params as query values, skipping the named keys.
// Null values are dropped and arrays become repeated keys.
func QueryFromParams(params map[string]any, skip ...string) url.Values {
	q := url.Values{}
	for key, value := range params {
		if slices.Contains(skip, key) {
			continue
		}
		switch v := value.(type) {
		case nil:
		case []any:
			for _, item := range v {
				if item != nil {
					q.Add(key, formatValue(item))
				}
			}
		default:
			q.Add(key, formatValue(v))
		}
	}
	return q
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
