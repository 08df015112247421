// Package changelog parses and rewrites the version-sectioned changelog
// document. New sections are prepended so the document stays ordered
// most-recent-first, with versions strictly decreasing top to bottom.
package changelog

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/aviadlevy/releasekit/internal/version"
)

// DefaultPath is the default changelog location relative to the repository root.
const DefaultPath = "CHANGELOG.md"

// ErrMalformed is returned when the existing document cannot be parsed into
// version sections (a section header that does not follow the expected
// `## [x.y.z] - YYYY-MM-DD` convention).
var ErrMalformed = errors.New("malformed changelog")

// ErrNotMonotonic is returned when a prepend would break the strictly
// decreasing version order of the document.
var ErrNotMonotonic = errors.New("changelog versions must be strictly decreasing")

// sectionHeader matches the fixed section-header convention.
var sectionHeader = regexp.MustCompile(`^## \[(\d+\.\d+\.\d+)\] - (\d{4}-\d{2}-\d{2})\s*$`)

// Section is one dated version entry in the document.
type Section struct {
	Version version.Version
	Date    string
	Body    string
}

// Document is the parsed changelog: free-text preamble followed by version
// sections in most-recent-first order.
type Document struct {
	Preamble string
	Sections []Section
}

// Parse splits a changelog into preamble and version sections.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	lines := strings.Split(string(data), "\n")

	var preamble []string
	var current *Section
	var body []string

	flush := func() {
		if current != nil {
			current.Body = strings.TrimRight(strings.Join(body, "\n"), "\n")
			doc.Sections = append(doc.Sections, *current)
		}
		body = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			match := sectionHeader.FindStringSubmatch(line)
			if match == nil {
				return nil, fmt.Errorf("%w: unexpected section header %q", ErrMalformed, line)
			}
			v, err := version.Parse(match[1])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			flush()
			current = &Section{Version: v, Date: match[2]}
			continue
		}
		if current == nil {
			preamble = append(preamble, line)
		} else {
			body = append(body, line)
		}
	}
	flush()

	doc.Preamble = strings.TrimRight(strings.Join(preamble, "\n"), "\n")
	return doc, nil
}

// Render serializes the document back to its textual form.
func (d *Document) Render() []byte {
	var buf bytes.Buffer
	if d.Preamble != "" {
		buf.WriteString(d.Preamble)
		buf.WriteString("\n\n")
	}
	for i, s := range d.Sections {
		fmt.Fprintf(&buf, "## [%s] - %s\n", s.Version.String(), s.Date)
		if s.Body != "" {
			buf.WriteString(strings.TrimRight(s.Body, "\n"))
			buf.WriteString("\n")
		}
		if i < len(d.Sections)-1 {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes()
}

// Prepend inserts a new section at the top of the document. The new version
// must be strictly greater than the current top section.
func (d *Document) Prepend(v version.Version, date time.Time, notes string) error {
	if len(d.Sections) > 0 && !v.GreaterThan(d.Sections[0].Version) {
		return fmt.Errorf("%w: %s is not greater than %s",
			ErrNotMonotonic, v.String(), d.Sections[0].Version.String())
	}

	section := Section{
		Version: v,
		Date:    date.Format("2006-01-02"),
		Body:    strings.TrimRight(notes, "\n"),
	}
	d.Sections = append([]Section{section}, d.Sections...)
	return nil
}

// Store persists the changelog document on a filesystem.
type Store struct {
	fs   billy.Filesystem
	path string
}

// NewStore returns a changelog store for the given file. If path is empty,
// DefaultPath is used.
func NewStore(fs billy.Filesystem, path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{fs: fs, path: path}
}

// Path returns the changelog file path relative to the filesystem root.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the persisted document.
func (s *Store) Load() (*Document, error) {
	data, err := util.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog %q: %w", s.path, err)
	}
	return Parse(data)
}

// Prepend rewrites the persisted document with a new top section for the
// given version and notes, leaving all prior sections intact below it.
func (s *Store) Prepend(v version.Version, date time.Time, notes string) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}

	if err := doc.Prepend(v, date, notes); err != nil {
		return err
	}

	if err := util.WriteFile(s.fs, s.path, doc.Render(), 0o644); err != nil {
		return fmt.Errorf("failed to rewrite changelog %q: %w", s.path, err)
	}
	return nil
}
