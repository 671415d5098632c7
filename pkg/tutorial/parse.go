package tutorial

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/llm"
)

// fencedYAML extracts the body of the first ```yaml fenced block in a
// model response. Models are prompted to answer in exactly this shape;
// anything else is a schema violation.
func fencedYAML(response string) (string, error) {
	_, after, found := strings.Cut(response, "```yaml")
	if !found {
		return "", fmt.Errorf("no ```yaml block in response")
	}
	body, _, found := strings.Cut(after, "```")
	if !found {
		return "", fmt.Errorf("unterminated ```yaml block in response")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("empty ```yaml block in response")
	}
	return body, nil
}

// parseIndexEntry reads an index that models emit either as a bare
// integer or as an annotated "3 # Some Name" string.
func parseIndexEntry(entry any) (int, error) {
	switch v := entry.(type) {
	case int:
		return v, nil
	case string:
		head, _, _ := strings.Cut(v, "#")
		idx, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			return 0, fmt.Errorf("bad index entry %q: %w", v, err)
		}
		return idx, nil
	default:
		return 0, fmt.Errorf("bad index entry type %T", entry)
	}
}

// decodeYAML unmarshals a fenced YAML body into out.
func decodeYAML(body string, out any) error {
	if err := yaml.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// correctivePreamble asks the model to fix an unparseable response.
const correctivePreamble = `Your previous response could not be parsed. Respond again, and this time output ONLY a fenced yaml code block (starting with a line containing only three backticks followed by "yaml", ending with a line of three backticks) in exactly the requested structure, with no prose before or after it.

Original request follows.

`

// callParsed issues a gateway call and runs parse over the response.
// A response that fails to parse gets exactly one corrective retry with
// an amended prompt; a second failure is an extraction-parse error.
func callParsed(ctx context.Context, gw *llm.Gateway, provider, model, prompt string, parse func(string) error) error {
	response, err := gw.Call(ctx, provider, model, prompt)
	if err != nil {
		return err
	}
	firstErr := parse(response)
	if firstErr == nil {
		return nil
	}

	response, err = gw.Call(ctx, provider, model, correctivePreamble+prompt)
	if err != nil {
		return err
	}
	if err := parse(response); err != nil {
		return errors.Wrap(errors.ErrCodeExtractionParse, err,
			"model response unparseable after corrective retry (first failure: %v)", firstErr)
	}
	return nil
}
