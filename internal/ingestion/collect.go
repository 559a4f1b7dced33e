package ingestion

import (
	"errors"
	"strings"
)

// Upload is a single file submitted by the user.
type Upload struct {
	Filename string
	Data     []byte
}

// CollectOptions controls how the final name list is assembled.
type CollectOptions struct {
	// Dedupe drops exact duplicate names, keeping the first occurrence.
	Dedupe bool
}

// Collection is the result of gathering names from all input sources.
type Collection struct {
	Names    NameList   `json:"names"`
	Source   SourceKind `json:"source,omitempty"`
	Preview  *Preview   `json:"preview,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// Display renders the names the way they are shown back to the user.
func (c *Collection) Display() string {
	return strings.Join(c.Names, ", ")
}

// Collect builds the name list from an optional upload and an optional typed name.
// File-derived names come first and the typed name, when non-empty, is appended as-is.
// An upload that cannot be decoded contributes no names and adds a warning instead of failing.
func Collect(typed string, upload *Upload, opts CollectOptions) (*Collection, error) {
	coll := &Collection{Names: NameList{}}

	if upload != nil {
		src := Detect(upload.Filename, upload.Data)
		coll.Source = src.Kind()

		names, err := src.ExtractNames()
		switch {
		case errors.Is(err, ErrUnsupportedEncoding):
			coll.Warnings = append(coll.Warnings, DecodeWarning)
		case err != nil:
			return nil, err
		default:
			coll.Names = append(coll.Names, names...)
		}

		if csvSrc, ok := src.(*CSVSource); ok {
			coll.Preview = csvSrc.Preview
		}
	}

	if typed != "" {
		coll.Names = append(coll.Names, typed)
	}

	if opts.Dedupe {
		coll.Names = Dedupe(coll.Names)
	}

	return coll, nil
}

// Dedupe returns names without exact duplicates, preserving first-seen order.
func Dedupe(names NameList) NameList {
	seen := make(map[string]bool, len(names))
	out := make(NameList, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
