package ledger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// synonyms is the curated per-field synonym table used by InferMapping.
var synonyms = map[string][]string{
	FieldPlant:       {"plant name", "plant"},
	FieldIssue:       {"chronic issue", "issue"},
	FieldFailureDesc: {"failures description", "failure description", "description"},
	FieldDuration:    {"duration loss (hour per year)", "duration loss", "hour per year"},
	FieldFrequency:   {"frequency (per year)", "frequency", "per year"},
	FieldClass:       {"class", "type"},
	FieldActionPlan:  {"action plan", "action"},
	FieldCategory:    {"category", "cat"},
	FieldProgress:    {"progress", "status"},
	FieldCompletion:  {"completion", "percent complete"},
	FieldStart:       {"start", "start time"},
	FieldEnd:         {"end", "end time"},
}

// ColumnMapping maps each canonical field to the source header feeding it.
// An empty value means the field is unmapped.
type ColumnMapping map[string]string

// NewColumnMapping returns a mapping with every canonical key present and unmapped.
func NewColumnMapping() ColumnMapping {
	m := make(ColumnMapping, len(CanonicalFields))
	for _, f := range CanonicalFields {
		m[f] = ""
	}
	return m
}

// Source returns the mapped header for field and whether it is mapped.
func (m ColumnMapping) Source(field string) (string, bool) {
	h, ok := m[field]
	return h, ok && h != ""
}

// Unmapped lists canonical fields with no source header, in canonical order.
func (m ColumnMapping) Unmapped() []string {
	var out []string
	for _, f := range CanonicalFields {
		if _, ok := m.Source(f); !ok {
			out = append(out, f)
		}
	}
	return out
}

// Set assigns a source header to a canonical field. Unknown fields are rejected
// so the key set stays exactly the canonical one.
func (m ColumnMapping) Set(field, header string) error {
	canon, ok := canonicalName(field)
	if !ok {
		return fmt.Errorf("unknown canonical field %q", field)
	}
	m[canon] = strings.TrimSpace(header)
	return nil
}

func canonicalName(field string) (string, bool) {
	f := strings.TrimSpace(field)
	for _, c := range CanonicalFields {
		if strings.EqualFold(c, f) {
			return c, true
		}
	}
	return "", false
}

// InferMapping proposes a default mapping for the given source headers.
// Per field, the first rule that matches any header wins: exact name,
// exact synonym, then a header containing a synonym. Headers are scanned in
// order within each rule.
func InferMapping(headers []string) ColumnMapping {
	m := NewColumnMapping()
	for _, field := range CanonicalFields {
		if h, ok := matchHeader(field, headers); ok {
			m[field] = h
		}
	}
	return m
}

func matchHeader(field string, headers []string) (string, bool) {
	want := strings.ToLower(field)
	for _, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return h, true
		}
	}
	syns := synonyms[field]
	for _, h := range headers {
		hn := strings.ToLower(strings.TrimSpace(h))
		for _, s := range syns {
			if hn == s {
				return h, true
			}
		}
	}
	for _, h := range headers {
		hn := strings.ToLower(strings.TrimSpace(h))
		for _, s := range syns {
			if strings.Contains(hn, s) {
				return h, true
			}
		}
	}
	return "", false
}

// mappingFile is the on-disk shape of a user-edited mapping.
type mappingFile struct {
	Columns map[string]string `yaml:"columns"`
}

// LoadMapping reads a YAML mapping written by MarshalMapping or by hand.
// Only the listed fields are present in the result; a listed field with an
// empty value is an explicit unmap.
func LoadMapping(path string) (ColumnMapping, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var mf mappingFile
	if err := yaml.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	m := make(ColumnMapping, len(mf.Columns))
	for k, v := range mf.Columns {
		if err := m.Set(k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MarshalMapping renders the mapping as YAML, fields in canonical order.
func MarshalMapping(m ColumnMapping) ([]byte, error) {
	var node yaml.Node
	node.Kind = yaml.MappingNode
	for _, f := range CanonicalFields {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f},
			&yaml.Node{Kind: yaml.ScalarNode, Value: m[f], Style: yaml.DoubleQuotedStyle},
		)
	}
	root := yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "columns"},
		&node,
	}}
	b, err := yaml.Marshal(&root)
	if err != nil {
		return nil, fmt.Errorf("marshal mapping: %w", err)
	}
	return b, nil
}
