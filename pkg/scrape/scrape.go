// Package scrape cuts marker-delimited fragments out of scraped HTML
// documents. Pages embed their data as JSON inside inline scripts, so
// extraction is substring work: find a marker, cut at a terminator,
// parse what is between.
package scrape

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed marks a document that does not carry an expected marker
// or whose embedded fragment is not valid JSON.
var ErrMalformed = errors.New("malformed document")

// ScriptClose ends an inline script blob.
const ScriptClose = ";</script>"

// stmtEnd matches a statement boundary: a semicolon followed by the
// next declaration.
var stmtEnd = regexp.MustCompile(`;\s*(?:var|const|let)\s`)

// Fragment returns the substring after the first occurrence of marker,
// cut at the earliest of the given terminators. A missing terminator
// leaves the rest of the document in place; a missing marker is a
// malformed-document error.
func Fragment(doc, marker string, terminators ...string) (string, error) {
	_, rest, found := strings.Cut(doc, marker)
	if !found {
		return "", fmt.Errorf("%w: marker %q not found", ErrMalformed, marker)
	}

	cut := len(rest)
	for _, term := range terminators {
		if i := strings.Index(rest, term); i >= 0 && i < cut {
			cut = i
		}
	}
	return rest[:cut], nil
}

// Statement returns the fragment after marker up to a statement
// boundary, either the script close or the next declaration keyword,
// whichever comes first.
func Statement(doc, marker string) (string, error) {
	frag, err := Fragment(doc, marker, ScriptClose)
	if err != nil {
		return "", err
	}
	if loc := stmtEnd.FindStringIndex(frag); loc != nil {
		frag = frag[:loc[0]]
	}
	return frag, nil
}

// Parse unmarshals a fragment, reporting invalid JSON as a
// malformed-document error.
func Parse(fragment string, v any) error {
	if err := json.Unmarshal([]byte(fragment), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Decode combines Fragment and Parse.
func Decode(doc, marker string, v any, terminators ...string) error {
	frag, err := Fragment(doc, marker, terminators...)
	if err != nil {
		return err
	}
	return Parse(frag, v)
}

// DecodeStatement combines Statement and Parse.
func DecodeStatement(doc, marker string, v any) error {
	frag, err := Statement(doc, marker)
	if err != nil {
		return err
	}
	return Parse(frag, v)
}
