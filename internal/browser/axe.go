package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/nao1215/a11yaudit/internal/model"
)

// DefaultAxeScript is where npm installs the minified engine.
const DefaultAxeScript = "node_modules/axe-core/axe.min.js"

// maxAxeScriptSize bounds a downloaded engine script.
const maxAxeScriptSize = 10 * 1024 * 1024

// axeRunScript runs the engine over the whole document restricted to a tag
// set and returns only the fields the audit keeps, serialized as JSON.
// The %s verb receives the JSON-encoded tag list.
const axeRunScript = `axe.run(document, {
  runOnly: { type: 'tag', values: %s }
}).then((r) => JSON.stringify({ violations: r.violations, incomplete: r.incomplete }))`

// AxeAnalyzer runs axe-core inside a Page.
type AxeAnalyzer struct {
	source string
}

// NewAxeAnalyzer creates an analyzer that injects source into each page.
func NewAxeAnalyzer(source string) *AxeAnalyzer {
	return &AxeAnalyzer{source: source}
}

// Analyze injects the engine and runs the rules matching tags.
func (a *AxeAnalyzer) Analyze(ctx context.Context, page Page, tags []string) (*model.Analysis, error) {
	if err := page.Evaluate(ctx, a.source, nil); err != nil {
		return nil, fmt.Errorf("failed to inject axe-core: %w", err)
	}

	script, err := RunScript(tags)
	if err != nil {
		return nil, err
	}

	var raw string
	if err := page.Evaluate(ctx, script, &raw); err != nil {
		return nil, fmt.Errorf("failed to run axe-core: %w", err)
	}

	return ParseAnalysis([]byte(raw))
}

// RunScript builds the expression that runs the engine for tags.
func RunScript(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return fmt.Sprintf(axeRunScript, encoded), nil
}

// ParseAnalysis decodes the engine output. Missing lists decode as empty.
func ParseAnalysis(data []byte) (*model.Analysis, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyResult
	}

	var analysis model.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode axe-core result: %w", err)
	}
	if analysis.Violations == nil {
		analysis.Violations = []model.Violation{}
	}
	if analysis.Incomplete == nil {
		analysis.Incomplete = []model.Violation{}
	}
	return &analysis, nil
}

// LoadAxeSource reads the engine script from a file path or an
// http(s) URL. A missing file yields ErrMissingDependency.
func LoadAxeSource(ctx context.Context, location string) (string, error) {
	if location == "" {
		location = DefaultAxeScript
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return fetchAxeSource(ctx, location)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingDependency, location)
		}
		return "", fmt.Errorf("failed to read axe-core script: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingDependency, location)
	}
	return string(data), nil
}

// fetchAxeSource downloads the engine script.
func fetchAxeSource(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrMissingDependency, location, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAxeScriptSize))
	if err != nil {
		return "", fmt.Errorf("failed to read axe-core script: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingDependency, location)
	}
	return string(data), nil
}
