package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/types"
)

type HTTPAction int

const (
	HTTPActionUnknown HTTPAction = iota
	HTTPActionRequest
)

func ParseHTTPAction(name string) HTTPAction {
	if name == "request" {
		return HTTPActionRequest
	}
	return HTTPActionUnknown
}

const defaultHTTPTimeout = 30 * time.Second

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true, "HEAD": true, "OPTIONS": true,
}

type HTTPAdapter struct {
	client *http.Client
	logger types.Logger
}

func init() {
	adapter.RegisterFactory("http", func(settings adapter.Settings, logger types.Logger) (adapter.SystemAdapter, error) {
		return NewHTTPAdapter(settings, logger), nil
	})
}

func NewHTTPAdapter(settings adapter.Settings, logger types.Logger) *HTTPAdapter {
	timeout := settings.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPAdapter{client: &http.Client{Timeout: timeout}, logger: logger}
}

func (ha *HTTPAdapter) Supports(action string) bool {
	return ParseHTTPAction(action) != HTTPActionUnknown
}

func (ha *HTTPAdapter) Actions() []string { return []string{"request"} }

func (ha *HTTPAdapter) Validate(action string, params map[string]any) error {
	if ParseHTTPAction(action) == HTTPActionUnknown {
		return fmt.Errorf("unknown http action %q", action)
	}
	if _, ok := adapter.StringParam(params, "url"); !ok {
		return fmt.Errorf("http request: 'url' is required")
	}
	if method, ok := adapter.StringParam(params, "method"); ok && !validMethods[strings.ToUpper(method)] {
		ha.logger.Warn().Str("method", method).Msg("Non-standard HTTP method specified. Proceeding, but ensure server supports it.")
	}
	if raw, ok := params["headers"]; ok && raw != nil {
		if _, isMap := raw.(map[string]any); !isMap {
			return fmt.Errorf("http request: 'headers' must be a mapping, got %T", raw)
		}
	}
	return nil
}

func (ha *HTTPAdapter) Execute(ctx context.Context, action string, params map[string]any) types.ActionResult {
	start := time.Now()
	result := ha.execute(ctx, action, params)
	result.Duration = time.Since(start)
	return result
}

func (ha *HTTPAdapter) execute(ctx context.Context, action string, params map[string]any) types.ActionResult {
	if err := ha.Validate(action, params); err != nil {
		return types.Failure("%v", err)
	}

	method := "GET"
	if m, ok := adapter.StringParam(params, "method"); ok {
		method = strings.ToUpper(m)
	}
	url, _ := adapter.StringParam(params, "url")

	var reqBody io.Reader
	if body, ok := params["body"]; ok && body != nil && (method == "POST" || method == "PUT" || method == "PATCH") {
		switch b := body.(type) {
		case string:
			reqBody = strings.NewReader(b)
		default:
			jsonBody, err := json.Marshal(b)
			if err != nil {
				return types.Failure("marshaling request body to JSON: %v", err)
			}
			reqBody = bytes.NewBuffer(jsonBody)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return types.Failure("creating HTTP request: %v", err)
	}

	headers, _ := adapter.MapParam(params, "headers")
	hasContentType := false
	for key, value := range headers {
		req.Header.Set(key, fmt.Sprintf("%v", value))
		if strings.EqualFold(key, "content-type") {
			hasContentType = true
		}
	}
	if reqBody != nil && !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Ideflow-Http-Client/1.0")

	// Header values are redacted at the sink level.
	ha.logger.Info().
		Str("method", method).
		Str("url", url).
		Interface("headers", headers).
		Msg("Making HTTP request")

	resp, err := ha.client.Do(req)
	if err != nil {
		return types.Failure("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Failure("reading response body: %v", err)
	}

	ha.logger.Info().Int("status_code", resp.StatusCode).Msg("Received HTTP response")
	if len(respBodyBytes) > 0 {
		bodyLog := string(respBodyBytes)
		if len(bodyLog) > 256 {
			bodyLog = bodyLog[:256] + "..."
		}
		ha.logger.Debug().Str("body_preview", bodyLog).Msg("Response body")
	}

	respHeaders := make(map[string]any, len(resp.Header))
	for k, v := range resp.Header {
		respHeaders[k] = strings.Join(v, ", ")
	}
	output := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        decodeBody(respBodyBytes, ha.logger),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ha.logger.Warn().Int("status_code", resp.StatusCode).Msg("Received non-success HTTP response (non-2xx)")
		return types.ActionResult{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("%s %s returned status %d", method, url, resp.StatusCode),
		}
	}
	return types.ActionResult{Success: true, Output: output}
}

func decodeBody(raw []byte, logger types.Logger) any {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed
	}
	if s := string(raw); strings.ToValidUTF8(s, "") == s {
		return s
	}
	logger.Warn().
		Int("body_size_bytes", len(raw)).
		Msg("Response body was not valid JSON nor UTF-8 string, storing as base64.")
	return base64.StdEncoding.EncodeToString(raw)
}
