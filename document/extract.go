package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// contentExts is the allow-list of text-bearing extensions whose content is
// fetched and indexed. Anything else indexes metadata only.
var contentExts = map[string]bool{
	".csv":   true,
	".html":  true,
	".ipynb": true,
	".json":  true,
	".md":    true,
	".rmd":   true,
	".txt":   true,
	".xml":   true,
}

// nbVersion is the notebook format version the cell extractor understands.
const nbVersion = 4

// Indexable reports whether content for the extension should be fetched
// and indexed.
func Indexable(ext string) bool {
	return contentExts[strings.ToLower(ext)]
}

// ExtractText converts raw object bytes to indexable text for the given
// extension. Notebooks are parsed and reduced to their code and markdown
// cell sources; every other allow-listed format is indexed verbatim.
// Content that is not valid UTF-8 yields an error; the caller indexes the
// object without body text.
func ExtractText(ext string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrInvalidEncoding
	}
	if strings.ToLower(ext) == ".ipynb" {
		return extractNotebook(raw)
	}
	return string(raw), nil
}

// notebook mirrors the subset of the nbformat v4 schema the extractor
// reads. Cell sources may be a single string or a list of lines.
type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	} `json:"cells"`
	NBFormat int `json:"nbformat"`
}

// extractNotebook pulls code and markdown cell sources out of a notebook.
// Output streams and display strings are deliberately not indexed; they
// were noisy and low value.
func extractNotebook(raw []byte) (string, error) {
	var nb notebook
	if err := json.Unmarshal(raw, &nb); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedNotebook, err)
	}
	if nb.NBFormat != 0 && nb.NBFormat != nbVersion {
		return "", fmt.Errorf("%w: unsupported nbformat %d", ErrMalformedNotebook, nb.NBFormat)
	}

	var cells []string
	for _, cell := range nb.Cells {
		if cell.CellType != "code" && cell.CellType != "markdown" {
			continue
		}
		source, err := decodeSource(cell.Source)
		if err != nil {
			return "", err
		}
		cells = append(cells, source)
	}
	return strings.Join(cells, "\n"), nil
}

func decodeSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("%w: cell source is neither string nor list", ErrMalformedNotebook)
	}
	return strings.Join(lines, ""), nil
}
