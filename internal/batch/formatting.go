package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/snake/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// FormatResults renders the batch in text, json, yaml or csv.
func (r *Result) FormatResults(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return formatText(r.Images)
	case "json":
		bts, err := json.MarshalIndent(r, "", "  ")
		return string(bts), err
	case "yaml", "yml":
		bts, err := yaml.Marshal(r)
		return string(bts), err
	case "csv":
		return formatCSV(r.Images)
	default:
		return "", fmt.Errorf("unsupported format %q (must be text, json, yaml or csv)", format)
	}
}

// formatCSV writes one row per contour point. Failed files get a single row
// carrying the error.
func formatCSV(images []ImageResult) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"file", "index", "row", "col", "chain_code", "error"}); err != nil {
		return "", err
	}

	for _, img := range images {
		if img.Result == nil || img.Error != "" {
			if err := writer.Write([]string{img.File, "", "", "", "", img.Error}); err != nil {
				return "", err
			}
			continue
		}
		for i, p := range img.Result.Points {
			code := ""
			if n := len(p.ChainCodes); n > 0 {
				code = p.ChainCodes[n-1].String()
			}
			if err := writer.Write([]string{img.File, strconv.Itoa(i), strconv.Itoa(p.Row), strconv.Itoa(p.Col), code, ""}); err != nil {
				return "", err
			}
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText concatenates per-file text summaries under "# file" headers.
func formatText(images []ImageResult) (string, error) {
	var output strings.Builder
	for i, img := range images {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", img.File)
		if img.Error != "" {
			fmt.Fprintf(&output, "error: %s\n", img.Error)
			continue
		}
		if img.Result == nil {
			output.WriteString("skipped\n")
			continue
		}
		text, err := pipeline.ToText(img.Result)
		if err != nil {
			return "", err
		}
		output.WriteString(text)
	}
	return output.String(), nil
}
