package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

func parseJSONL(ctx context.Context, data []byte, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []domain.RawDocument
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec map[string]any
		if err := decodeJSON(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidInput, line, err)
		}
		doc, err := fromRecord(rec, opts, line)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return docs, nil
}

func parseJSON(data []byte, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	var items []any
	if err := decodeJSON(data, &items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array: %w", domain.ErrInvalidInput, err)
	}
	return fromItems(items, opts)
}

// decodeJSON decodes a single value, keeping numbers as json.Number so large
// integer IDs survive without float rounding.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

func parseYAML(data []byte, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	var items []any
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: expected a YAML list: %w", domain.ErrInvalidInput, err)
	}
	return fromItems(items, opts)
}

// fromItems accepts a list of records or a list of plain strings.
func fromItems(items []any, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	docs := make([]domain.RawDocument, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			docs = append(docs, domain.RawDocument{Content: v})
		case map[string]any:
			doc, err := fromRecord(v, opts, i+1)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		default:
			return nil, fmt.Errorf("%w: record %d is %T, want object or string", domain.ErrInvalidInput, i+1, item)
		}
	}
	return docs, nil
}

func fromRecord(rec map[string]any, opts driven.SourceOptions, n int) (domain.RawDocument, error) {
	text, ok := rec[opts.TextField]
	if !ok || text == nil {
		return domain.RawDocument{}, fmt.Errorf("%w: record %d has no %q field", domain.ErrInvalidInput, n, opts.TextField)
	}
	return domain.RawDocument{
		ID:      scalar(rec[opts.IDField]),
		Content: scalar(text),
	}, nil
}

// scalar renders a decoded JSON or YAML value as text. Whole floats print
// without a fraction so numeric IDs stay readable.
func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func parseCSV(ctx context.Context, data []byte, opts driven.SourceOptions) ([]domain.RawDocument, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	textCol := slices.Index(header, opts.TextField)
	if textCol < 0 {
		return nil, fmt.Errorf("%w: csv header has no %q column", domain.ErrInvalidInput, opts.TextField)
	}
	idCol := slices.Index(header, opts.IDField)

	var docs []domain.RawDocument
	for row := 2; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", domain.ErrInvalidInput, row, err)
		}
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if textCol >= len(rec) {
			return nil, fmt.Errorf("%w: row %d has no %q value", domain.ErrInvalidInput, row, opts.TextField)
		}
		doc := domain.RawDocument{Content: rec[textCol]}
		if idCol >= 0 && idCol < len(rec) {
			doc.ID = rec[idCol]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseLines(data []byte) []domain.RawDocument {
	var docs []domain.RawDocument
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		docs = append(docs, domain.RawDocument{Content: line})
	}
	return docs
}
