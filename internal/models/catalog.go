package models

import (
	"errors"
	"fmt"
	"strings"
)

// TagSeparator joins a focus and its subcategory suffix in catalog tags ("strength-upper").
const TagSeparator = "-"

// ErrMalformedTag is returned when a subcategory tag does not split into exactly
// one focus and one suffix.
var ErrMalformedTag = errors.New("malformed subcategory tag")

// OptionCatalog is the /get_options response: the values offered by each select.
type OptionCatalog struct {
	Focus       []string `json:"focus"`
	Subcategory []string `json:"subcategory"`
	Access      []string `json:"access"`
}

// SplitTag splits a "focus-sub" tag. Both halves must be non-empty and the tag
// must contain exactly one separator.
func SplitTag(tag string) (focus, sub string, err error) {
	if strings.Count(tag, TagSeparator) != 1 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}
	focus, sub, _ = strings.Cut(tag, TagSeparator)
	if focus == "" || sub == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}
	return focus, sub, nil
}

// JoinTag is the inverse of SplitTag.
func JoinTag(focus, sub string) string {
	return focus + TagSeparator + sub
}

// SubcategoryIndex maps a focus value to its subcategory suffixes, in first-seen
// order. An index is never modified after BuildSubcategoryIndex returns it.
type SubcategoryIndex struct {
	subs map[string][]string
}

// BuildSubcategoryIndex derives the focus → suffix mapping from the catalog's
// subcategory tags. Any malformed tag rejects the whole catalog.
func BuildSubcategoryIndex(tags []string) (*SubcategoryIndex, error) {
	idx := &SubcategoryIndex{subs: make(map[string][]string)}
	seen := make(map[string]bool, len(tags))

	for _, tag := range tags {
		focus, sub, err := SplitTag(tag)
		if err != nil {
			return nil, err
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		idx.subs[focus] = append(idx.subs[focus], sub)
	}
	return idx, nil
}

// Lookup returns a copy of the suffixes recorded for focus, or nil.
func (idx *SubcategoryIndex) Lookup(focus string) []string {
	if idx == nil {
		return nil
	}
	subs := idx.subs[focus]
	if len(subs) == 0 {
		return nil
	}
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// Len returns the number of focus keys.
func (idx *SubcategoryIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.subs)
}

// Map returns a copy of the whole index, suitable for JSON encoding.
func (idx *SubcategoryIndex) Map() map[string][]string {
	out := make(map[string][]string, idx.Len())
	if idx == nil {
		return out
	}
	for focus, subs := range idx.subs {
		out[focus] = append([]string(nil), subs...)
	}
	return out
}
