package cloudant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Noaman7/BluemixPOC/errors"
)

// Document is a field-to-value mapping bound for the backend.
type Document map[string]any

// ID returns the document identifier field, if present.
func (d Document) ID() (string, bool) {
	return d.stringField("_id")
}

// Revision returns the document revision field, if present.
func (d Document) Revision() (string, bool) {
	return d.stringField("_rev")
}

func (d Document) stringField(name string) (string, bool) {
	v, ok := d[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// InputKind tags the shape an inbound payload arrived in.
type InputKind int

const (
	// InputStructured is a ready document-shaped mapping
	InputStructured InputKind = iota
	// InputText is a string that may hold a serialized document
	InputText
	// InputScalar is any other value (number, bool, list, nil)
	InputScalar
)

// RawInput is an inbound payload classified by shape. Exactly one of the
// value fields is meaningful for a given Kind.
type RawInput struct {
	Kind       InputKind
	Structured Document
	Text       string
	Scalar     any
}

// ClassifyInput tags an arbitrary inbound value by its shape.
func ClassifyInput(raw any) RawInput {
	switch v := raw.(type) {
	case Document:
		return RawInput{Kind: InputStructured, Structured: v}
	case map[string]any:
		return RawInput{Kind: InputStructured, Structured: Document(v)}
	case string:
		return RawInput{Kind: InputText, Text: v}
	case []byte:
		return RawInput{Kind: InputText, Text: string(v)}
	default:
		return RawInput{Kind: InputScalar, Scalar: raw}
	}
}

// Coerce converts the classified input into a document. Text inputs are
// parsed as a JSON object; text that fails to parse, parses to a non-object,
// or any scalar input, is wrapped into a single-field document keyed by
// fallbackField.
func (r RawInput) Coerce(fallbackField string) Document {
	switch r.Kind {
	case InputStructured:
		return r.Structured
	case InputText:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(r.Text), &parsed); err == nil && parsed != nil {
			return Document(parsed)
		}
		return Document{fallbackField: r.Text}
	default:
		return Document{fallbackField: r.Scalar}
	}
}

// CoerceDocument classifies and coerces in one step.
func CoerceDocument(raw any, fallbackField string) Document {
	return ClassifyInput(raw).Coerce(fallbackField)
}

// reservedFields are the underscore-prefixed field names the backend accepts
// on a document. Anything else with the prefix gets renamed.
var reservedFields = map[string]struct{}{
	"_id":                {},
	"_rev":               {},
	"_attachments":       {},
	"_deleted":           {},
	"_revisions":         {},
	"_revs_info":         {},
	"_conflicts":         {},
	"_deleted_conflicts": {},
	"_local_seq":         {},
}

// Sanitize returns a copy of the document in which every field whose name
// starts with an underscore and is not in the reserved allow-set is renamed
// by stripping the underscore. Each rename is reported in the second return
// so the caller can emit per-field warnings. A rename whose target name is
// already present fails with ErrConflictingFieldName rather than silently
// overwriting either value.
//
// Sanitizing an already-clean document returns an equal document and no
// renames.
func Sanitize(doc Document) (Document, []string, error) {
	out := make(Document, len(doc))
	var renamed []string

	for name, value := range doc {
		if !strings.HasPrefix(name, "_") {
			out[name] = value
			continue
		}
		if _, ok := reservedFields[name]; ok {
			out[name] = value
			continue
		}

		stripped := strings.TrimLeft(name, "_")
		if stripped == "" {
			return nil, nil, errors.WrapInvalid(errors.ErrConflictingFieldName, "Sanitize", "rename",
				fmt.Sprintf("field %q has no name once the prefix is stripped", name))
		}
		if _, exists := doc[stripped]; exists {
			return nil, nil, errors.WrapInvalid(errors.ErrConflictingFieldName, "Sanitize", "rename",
				fmt.Sprintf("cannot rename %q: field %q already present", name, stripped))
		}
		if _, exists := out[stripped]; exists {
			return nil, nil, errors.WrapInvalid(errors.ErrConflictingFieldName, "Sanitize", "rename",
				fmt.Sprintf("cannot rename %q: field %q already produced by another rename", name, stripped))
		}
		out[stripped] = value
		renamed = append(renamed, name)
	}

	return out, renamed, nil
}
