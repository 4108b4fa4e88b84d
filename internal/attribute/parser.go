package attribute

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muurk/attrstore/internal/logging"
	"go.uber.org/zap"
)

// ParseDeclarations turns a configuration payload into attribute declarations,
// in order of appearance.
//
// The payload is first read as a JSON array of records. If it is not a
// well-formed array of flat objects, it is read as the legacy format: a
// comma-separated list of names, each producing a declaration with default
// type and access. The legacy reading never fails; empty tokens are skipped.
func ParseDeclarations(raw string) []Declaration {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	decls, err := parseRecords(raw)
	if err == nil {
		return decls
	}

	if json.Valid([]byte(raw)) {
		// Well-formed JSON that is not a record list, e.g. ["a","b"], still
		// takes the legacy reading; the names it yields are rarely intended.
		logging.Warn("Attribute payload is JSON but not a list of records, reading it as a name list",
			zap.Error(err),
		)
	}
	return parseNameList(raw)
}

// parseRecords parses the structured form: [{"name": "...", ...}, ...]
func parseRecords(raw string) ([]Declaration, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after attribute list")
	}

	records, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("attribute list must be a JSON array, got %T", payload)
	}

	decls := make([]Declaration, 0, len(records))
	for i, r := range records {
		record, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("attribute record %d must be an object, got %T", i, r)
		}
		decl, err := declarationFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("attribute record %d: %w", i, err)
		}
		decls = append(decls, decl)
	}

	return decls, nil
}

func declarationFromRecord(record map[string]any) (Declaration, error) {
	var decl Declaration
	fields := map[string]*string{
		"name":        &decl.Name,
		"data_type":   &decl.DataType,
		"min_value":   &decl.MinValue,
		"max_value":   &decl.MaxValue,
		"unit":        &decl.Unit,
		"write_type":  &decl.WriteType,
		"label":       &decl.Label,
		"modifier":    &decl.Modifier,
		"min_alarm":   &decl.MinAlarm,
		"max_alarm":   &decl.MaxAlarm,
		"min_warning": &decl.MinWarning,
		"max_warning": &decl.MaxWarning,
	}

	for key, dst := range fields {
		v, present := record[key]
		if !present {
			continue
		}
		text, ok := ScalarText(v)
		if !ok {
			return Declaration{}, fmt.Errorf("field %q must be a scalar, got %T", key, v)
		}
		*dst = text
	}

	return decl, nil
}

// parseNameList parses the legacy form: "a, b ,c"
func parseNameList(raw string) []Declaration {
	var decls []Declaration
	for _, token := range strings.Split(raw, ",") {
		name := strings.TrimSpace(token)
		if name == "" {
			continue
		}
		decls = append(decls, Declaration{Name: name})
	}
	return decls
}

// FormatDeclarations encodes declarations in the structured form accepted by
// ParseDeclarations.
func FormatDeclarations(decls []Declaration) (string, error) {
	if decls == nil {
		decls = []Declaration{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(decls); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
