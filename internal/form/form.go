// Package form extracts the registry questionnaire fields from free text.
// Parsing is label-anchored: each line is scanned for a known label
// substring and the remainder of the line is the value. Line order does not
// matter and unrecognized lines are ignored.
package form

import (
	"fmt"
	"strings"
)

const minFormLines = 4

// Field describes one questionnaire entry.
type Field struct {
	Key      string
	Label    string
	Required bool
}

// Fields is a parsed submission.
type Fields struct {
	CharacterName string
	Race          string
	BirthDate     string
	ParentNames   string
	Subclass      string
}

// ValidationError reports which required fields were absent or left empty,
// or that the submission was too short to be a filled-in form at all.
type ValidationError struct {
	Missing  []string
	TooShort bool
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return "form: submission too short"
	}
	return fmt.Sprintf("form: missing or empty fields: %s", strings.Join(e.Missing, ", "))
}

type Parser struct {
	fields      []Field
	unspecified string
}

// NewParser builds a parser over the given field specs. unspecified is the
// sentinel value assigned to absent optional fields; it never satisfies
// validation of a required field.
func NewParser(fields []Field, unspecified string) *Parser {
	return &Parser{fields: fields, unspecified: unspecified}
}

// DefaultFields returns the five registry fields keyed for Fields, with
// caller-supplied (localized) labels in this order: character name, race,
// birth date, parent names, subclass.
func DefaultFields(labels [5]string) []Field {
	return []Field{
		{Key: "characterName", Label: labels[0], Required: true},
		{Key: "race", Label: labels[1], Required: true},
		{Key: "birthDate", Label: labels[2], Required: true},
		{Key: "parentNames", Label: labels[3], Required: true},
		{Key: "subclass", Label: labels[4], Required: false},
	}
}

func (p *Parser) extract(text string) map[string]string {
	values := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		for _, f := range p.fields {
			if f.Label == "" {
				continue
			}
			idx := strings.Index(line, f.Label)
			if idx < 0 {
				continue
			}
			if _, seen := values[f.Key]; seen {
				continue
			}
			values[f.Key] = strings.TrimSpace(line[idx+len(f.Label):])
			break
		}
	}
	return values
}

// Validate rejects a submission unless every required label is present with
// a non-empty value and the text has at least four non-blank lines. It fails
// closed: a missing field is reported, never defaulted.
func (p *Parser) Validate(text string) error {
	nonBlank := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			nonBlank++
		}
	}

	values := p.extract(text)
	var missing []string
	for _, f := range p.fields {
		if !f.Required {
			continue
		}
		v, ok := values[f.Key]
		if !ok || v == "" || v == p.unspecified {
			missing = append(missing, f.Label)
		}
	}
	if len(missing) > 0 || nonBlank < minFormLines {
		return &ValidationError{Missing: missing, TooShort: nonBlank < minFormLines}
	}
	return nil
}

// Parse extracts field values from text. Call Validate first; Parse itself
// fills anything absent with the unspecified sentinel.
func (p *Parser) Parse(text string) Fields {
	values := p.extract(text)
	get := func(key string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return p.unspecified
	}
	return Fields{
		CharacterName: get("characterName"),
		Race:          get("race"),
		BirthDate:     get("birthDate"),
		ParentNames:   get("parentNames"),
		Subclass:      get("subclass"),
	}
}
