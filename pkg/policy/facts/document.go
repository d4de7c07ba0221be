package facts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"policylens-be/pkg/policy"
)

// Schema is the optional `_schema` block of a facts document.
type Schema struct {
	CourseName string                       `json:"course_name"`
	KeyMap     map[string]string            `json:"key_map"`
	FieldMap   map[string]map[string]string `json:"field_map"`
}

var defaultKeys = map[policy.Intent]string{
	policy.IntentDueDate:        "due_dates",
	policy.IntentInstructorInfo: "instructors",
	policy.IntentCoordinator:    "coordinator",
	policy.IntentTAList:         "tas",
	policy.IntentLinks:          "links",
	policy.IntentGeneralPolicy:  "policies",
}

// fieldAliases are tried when neither the field_map nor the canonical name is present.
var fieldAliases = map[policy.RecordKind]map[string][]string{
	policy.KindDueDate: {
		policy.FieldAssessment:  {"item", "title", "name"},
		policy.FieldDueDate:     {"deadline", "due"},
		policy.FieldWhereFind:   {"instructions", "where_to_find"},
		policy.FieldWhereSubmit: {"submit_to", "submission"},
		policy.FieldNote:        {"notes"},
	},
	policy.KindInstructorInfo: {
		policy.FieldInstructor: {"name"},
		policy.FieldWhen:       {"time", "schedule"},
		policy.FieldWhere:      {"location", "room"},
		policy.FieldContact:    {"email"},
	},
	policy.KindCoordinator: {
		policy.FieldEmail:   {"contact"},
		policy.FieldPurpose: {"contact_for"},
	},
	policy.KindTAList: {
		policy.FieldName: {"ta"},
	},
	policy.KindLink: {
		policy.FieldName: {"title", "label"},
		policy.FieldURL:  {"href", "link"},
	},
	policy.KindGeneralPolicy: {
		policy.FieldPolicy: {"text", "description", "rule"},
	},
}

// Document is a parsed, immutable facts document.
type Document struct {
	Schema  Schema
	Version string
	Dropped int

	records map[policy.Intent][]policy.FactRecord
}

type rawRecord map[string]string

// ParseDocument decodes a facts document and resolves every factual intent's
// records through the schema remap. Records without a source are dropped.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var top map[string]json.RawMessage
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("decode facts document: %w", err)
	}
	if top == nil {
		return nil, errors.New("facts document is not a JSON object")
	}

	doc := &Document{records: map[policy.Intent][]policy.FactRecord{}}
	sum := sha256.Sum256(data)
	doc.Version = hex.EncodeToString(sum[:])

	if raw, ok := top["_schema"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &doc.Schema); err != nil {
			return nil, fmt.Errorf("decode _schema: %w", err)
		}
	}

	lists := map[string][]rawRecord{}
	for key, raw := range top {
		if strings.HasPrefix(key, "_") {
			continue
		}
		if recs, ok := decodeList(raw); ok {
			lists[key] = recs
		}
	}

	for _, intent := range policy.AllIntents {
		kind, ok := intent.Kind()
		if !ok {
			continue
		}
		raws := lists[doc.StorageKey(intent)]
		records := make([]policy.FactRecord, 0, len(raws))
		for _, raw := range raws {
			rec, err := doc.buildRecord(intent, kind, raw)
			if err != nil {
				doc.Dropped++
				continue
			}
			records = append(records, rec)
		}
		doc.records[intent] = records
	}

	return doc, nil
}

// StorageKey resolves key_map[intent], else the default key for the intent.
func (d *Document) StorageKey(intent policy.Intent) string {
	if k := strings.TrimSpace(d.Schema.KeyMap[string(intent)]); k != "" {
		return k
	}
	return defaultKeys[intent]
}

// FieldName resolves field_map[intent][canonical], else the canonical name.
func (d *Document) FieldName(intent policy.Intent, canonical string) string {
	if m, ok := d.Schema.FieldMap[string(intent)]; ok {
		if f := strings.TrimSpace(m[canonical]); f != "" {
			return f
		}
	}
	return canonical
}

// Records returns the records stored for intent in document order.
func (d *Document) Records(intent policy.Intent) []policy.FactRecord {
	return d.records[intent]
}

// Counts reports the number of records per storage key, for diagnostics.
func (d *Document) Counts() map[string]int {
	out := map[string]int{}
	for intent, recs := range d.records {
		out[d.StorageKey(intent)] = len(recs)
	}
	return out
}

func (d *Document) buildRecord(intent policy.Intent, kind policy.RecordKind, raw rawRecord) (policy.FactRecord, error) {
	fields := map[string]string{}
	for _, canonical := range kind.CanonicalFields() {
		if v := d.fieldValue(intent, kind, canonical, raw); v != "" {
			fields[canonical] = v
		}
	}
	quote := raw[d.FieldName(intent, policy.FieldQuote)]
	source := raw[d.FieldName(intent, policy.FieldSource)]
	return policy.NewFactRecord(kind, fields, quote, source)
}

func (d *Document) fieldValue(intent policy.Intent, kind policy.RecordKind, canonical string, raw rawRecord) string {
	name := d.FieldName(intent, canonical)
	if v := raw[name]; v != "" {
		return v
	}
	if name != canonical {
		return ""
	}
	for _, alias := range fieldAliases[kind][canonical] {
		if v := raw[alias]; v != "" {
			return v
		}
	}
	return ""
}

func decodeList(raw json.RawMessage) ([]rawRecord, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var items []interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, false
	}
	out := make([]rawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rec := rawRecord{}
		for k, v := range obj {
			if s := stringify(v); s != "" {
				rec[k] = s
			}
		}
		out = append(out, rec)
	}
	return out, true
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if _, nested := item.(map[string]interface{}); nested {
				continue
			}
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

