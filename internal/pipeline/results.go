package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToJSON serializes a Result to pretty JSON.
func ToJSON(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes a Result to YAML.
func ToYAML(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := yaml.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToText renders a short human-readable summary followed by one line per
// point: index, row, column and the latest chain code.
func ToText(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "image %dx%d, edges=%s\n", res.Width, res.Height, res.EdgeMethod)
	fmt.Fprintf(&sb, "rounds=%d insertions=%d converged=%t points=%d spacing=%.3f\n",
		res.Rounds, res.Insertions, res.Converged, len(res.Points), res.AverageSpacing)
	for i, p := range res.Points {
		code := "-"
		if n := len(p.ChainCodes); n > 0 {
			code = p.ChainCodes[n-1].String()
		}
		fmt.Fprintf(&sb, "%d\t%d\t%d\t%s\n", i, p.Row, p.Col, code)
	}
	return sb.String(), nil
}

// Format renders res in the named format: text, json or yaml.
func Format(res *Result, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return ToText(res)
	case "json":
		return ToJSON(res)
	case "yaml", "yml":
		return ToYAML(res)
	default:
		return "", fmt.Errorf("unsupported format %q (must be text, json or yaml)", format)
	}
}
