package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type extraBodyKey struct{}

func withExtraBody(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return context.WithValue(ctx, extraBodyKey{}, fields)
}

func extraBodyFrom(ctx context.Context) map[string]any {
	fields, _ := ctx.Value(extraBodyKey{}).(map[string]any)
	return fields
}

// extraBodyTransport adds OpenRouter attribution headers and merges
// per-call extra fields into JSON request bodies.
type extraBodyTransport struct {
	base       http.RoundTripper
	openRouter bool
}

func (t *extraBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fields := extraBodyFrom(req.Context())
	if !t.openRouter && len(fields) == 0 {
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	if t.openRouter {
		out.Header.Set("HTTP-Referer", "https://github.com/Aymensat/CarthageGate")
		out.Header.Set("X-Title", "CarthageGate")
	}

	if len(fields) > 0 && req.Body != nil {
		body, err := mergeBody(req.Body, fields)
		if err != nil {
			return nil, err
		}
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.ContentLength = int64(len(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	return t.base.RoundTrip(out)
}

func mergeBody(rc io.ReadCloser, fields map[string]any) ([]byte, error) {
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decoding request body: %w", err)
	}
	for k, v := range fields {
		body[k] = v
	}
	return json.Marshal(body)
}
