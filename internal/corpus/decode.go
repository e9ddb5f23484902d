package corpus

import (
	"bufio"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Serialized corpus formats.
const (
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// maxLineBytes bounds a single JSONL row; 3072-dim vectors stay well below it.
const maxLineBytes = 16 << 20

// DetectFormat infers the format from a location's extension, defaulting to JSONL.
func DetectFormat(location string) string {
	switch strings.ToLower(path.Ext(location)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONL
	}
}

// DecodeRows reads every row from r in the given format.
func DecodeRows(r io.Reader, format string) ([]Row, error) {
	switch format {
	case FormatJSONL, "":
		return decodeJSONL(r)
	case FormatJSON:
		var rows []Row
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, goerr.Wrap(err, "failed to decode json corpus")
		}
		return rows, nil
	case FormatYAML:
		var rows []Row
		if err := yaml.NewDecoder(r).Decode(&rows); err != nil && err != io.EOF {
			return nil, goerr.Wrap(err, "failed to decode yaml corpus")
		}
		return rows, nil
	default:
		return nil, goerr.New("unknown corpus format", goerr.V("format", format))
	}
}

func decodeJSONL(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, goerr.Wrap(err, "failed to decode corpus row", goerr.V("line", line))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read corpus")
	}
	return rows, nil
}

// EncodeJSONL writes rows one per line.
func EncodeJSONL(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return goerr.Wrap(err, "failed to encode corpus row", goerr.V("index", i))
		}
	}
	return nil
}
