package models

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldKind names a binary field of the draft.
type FieldKind string

const (
	FieldPhoto     FieldKind = "photo"
	FieldDocuments FieldKind = "documents"
)

var categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Selector addresses one Reference inside a DraftRecord: the photo field or
// the document item tagged with Category.
type Selector struct {
	Field    FieldKind
	Category string
}

// PhotoSelector addresses the single photo field.
func PhotoSelector() Selector {
	return Selector{Field: FieldPhoto}
}

// DocumentSelector addresses the document item tagged with category.
func DocumentSelector(category string) Selector {
	return Selector{Field: FieldDocuments, Category: category}
}

func (s Selector) String() string {
	if s.Field == FieldDocuments {
		return string(FieldDocuments) + "/" + s.Category
	}
	return string(s.Field)
}

// Validate checks that s addresses an existing field shape.
func (s Selector) Validate() error {
	switch s.Field {
	case FieldPhoto:
		if s.Category != "" {
			return fmt.Errorf("photo selector takes no category")
		}
		return nil
	case FieldDocuments:
		if !categoryPattern.MatchString(s.Category) {
			return fmt.Errorf("invalid document category: %q", s.Category)
		}
		return nil
	default:
		return fmt.Errorf("invalid field: %q", s.Field)
	}
}

// ParseSelector parses "photo" or "documents/<category>".
func ParseSelector(raw string) (Selector, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return Selector{}, fmt.Errorf("selector is required")
	}
	field, category, _ := strings.Cut(value, "/")
	sel := Selector{Field: FieldKind(field), Category: category}
	if err := sel.Validate(); err != nil {
		return Selector{}, err
	}
	return sel, nil
}

func (s Selector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Selector) UnmarshalText(text []byte) error {
	sel, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = sel
	return nil
}
