package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/types"
	"golang.org/x/net/html"
)

type BrowserAction int

const (
	BrowserActionUnknown BrowserAction = iota
	BrowserActionOpen
	BrowserActionExtractContent
)

func ParseBrowserAction(name string) BrowserAction {
	switch name {
	case "open":
		return BrowserActionOpen
	case "extract_content":
		return BrowserActionExtractContent
	default:
		return BrowserActionUnknown
	}
}

const (
	defaultFetchTimeout = 15 * time.Second
	maxContentBytes     = 2 << 20
)

// BrowserAdapter opens pages in the user's browser and pulls readable text from them.
type BrowserAdapter struct {
	launcher string
	runner   CommandRunner
	client   *http.Client
	logger   types.Logger
}

func init() {
	adapter.RegisterFactory("browser", func(settings adapter.Settings, logger types.Logger) (adapter.SystemAdapter, error) {
		return NewBrowserAdapter(settings, logger, ExecRunner{}), nil
	})
}

func NewBrowserAdapter(settings adapter.Settings, logger types.Logger, runner CommandRunner) *BrowserAdapter {
	launcher := settings.BrowserCommand
	if launcher == "" {
		launcher = defaultBrowserCommand()
	}
	timeout := settings.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &BrowserAdapter{
		launcher: launcher,
		runner:   runner,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func defaultBrowserCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "rundll32 url.dll,FileProtocolHandler"
	default:
		return "xdg-open"
	}
}

func (ba *BrowserAdapter) Supports(action string) bool {
	return ParseBrowserAction(action) != BrowserActionUnknown
}

func (ba *BrowserAdapter) Actions() []string { return []string{"open", "extract_content"} }

func (ba *BrowserAdapter) Validate(action string, params map[string]any) error {
	switch ParseBrowserAction(action) {
	case BrowserActionOpen:
		if _, ok := adapter.StringParam(params, "url"); !ok {
			return fmt.Errorf("browser open: 'url' is required")
		}
	case BrowserActionExtractContent:
		// url may arrive at run time through input_data
	default:
		return fmt.Errorf("unknown browser action %q", action)
	}
	return nil
}

func (ba *BrowserAdapter) Execute(ctx context.Context, action string, params map[string]any) types.ActionResult {
	start := time.Now()
	var result types.ActionResult
	if err := ba.Validate(action, params); err != nil {
		result = types.Failure("%v", err)
	} else {
		switch ParseBrowserAction(action) {
		case BrowserActionOpen:
			result = ba.open(ctx, params)
		case BrowserActionExtractContent:
			result = ba.extract(ctx, params)
		}
	}
	result.Duration = time.Since(start)
	return result
}

func (ba *BrowserAdapter) open(ctx context.Context, params map[string]any) types.ActionResult {
	url, _ := adapter.StringParam(params, "url")
	name, args := splitCommand(ba.launcher)
	if name == "" {
		return types.Failure("no browser launcher configured")
	}
	args = append(args, url)

	ba.logger.Info().Str("url", url).Str("launcher", name).Msg("Opening URL in browser")
	if _, stderr, err := ba.runner.Run(ctx, "", name, args...); err != nil {
		return types.Failure("opening %s: %v %s", url, err, stderr)
	}
	return types.ActionResult{Success: true, Output: map[string]any{"url": url}}
}

func (ba *BrowserAdapter) extract(ctx context.Context, params map[string]any) types.ActionResult {
	url, ok := adapter.StringParam(params, "url")
	if !ok {
		if input, isMap := adapter.MapParam(params, "input_data"); isMap {
			url, ok = adapter.StringParam(input, "url")
		}
	}
	if !ok {
		return types.Failure("browser extract_content: no 'url' parameter and no url in input_data")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Failure("creating request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", "Ideflow-Browser/1.0")

	ba.logger.Info().Str("url", url).Msg("Fetching page content")
	resp, err := ba.client.Do(req)
	if err != nil {
		return types.Failure("fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return types.Failure("reading %s: %v", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.Failure("fetching %s: status %d", url, resp.StatusCode)
	}

	title, content, err := pageText(bytes.NewReader(raw))
	if err != nil {
		return types.Failure("parsing %s: %v", url, err)
	}
	output := map[string]any{"url": url, "title": title, "content": content}

	if want, ok := adapter.StringParam(params, "contains"); ok && !strings.Contains(content, want) {
		return types.ActionResult{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("page %s does not contain %q", url, want),
		}
	}
	ba.logger.Debug().Int("content_length", len(content)).Msg("Extracted page content")
	return types.ActionResult{Success: true, Output: output}
}

// pageText returns the document title and the visible body text collapsed
// to single spaces.
func pageText(r io.Reader) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}
	doc.Find("script,style,noscript,template").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Selection.Text glues sibling blocks together, so text nodes are
	// joined with a space instead.
	var words []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	for _, n := range doc.Find("body").Nodes {
		collect(n)
	}
	return title, strings.Join(words, " "), nil
}
