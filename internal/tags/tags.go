package tags

import (
	"errors"
	"fmt"
	"strings"
)

// Field names used in Metadata.Fields. Values are stored verbatim.
const (
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldAlbum       = "album"
	FieldAlbumArtist = "album_artist"
	FieldComposer    = "composer"
	FieldGenre       = "genre"
	FieldYear        = "year"
	FieldTrack       = "track"
	FieldDisc        = "disc"
)

// Picture is an embedded cover image.
type Picture struct {
	MIMEType    string
	Description string
	Data        []byte
}

// Metadata is the readable tag state of an audio file.
type Metadata struct {
	Fields map[string]string
	Art    *Picture
}

// Empty reports whether there is nothing to propagate.
func (m Metadata) Empty() bool {
	return len(m.Fields) == 0 && m.Art == nil
}

// Reader extracts metadata from a source audio file.
type Reader interface {
	Read(path string) (Metadata, error)
}

// Writer stamps metadata onto an MP3 destination. Fields and art are written
// in separate steps so a failure in one does not lose the other.
type Writer interface {
	WriteFields(path string, fields map[string]string) error
	WriteArt(path string, art Picture) error
}

// Report summarizes a propagation. Partial means one of the two halves
// (text fields, cover art) was written while the other failed.
type Report struct {
	FieldCount int
	ArtWritten bool
	Partial    bool
	Detail     string
}

// Propagator copies metadata from source to destination files.
type Propagator struct {
	reader Reader
	writer Writer
}

// NewPropagator wires a propagator from its two capabilities.
func NewPropagator(reader Reader, writer Writer) *Propagator {
	return &Propagator{reader: reader, writer: writer}
}

// Propagate reads tags and art from src and writes them onto dst, which must
// already exist on disk. A source without tags is a successful no-op. The
// returned error is reserved for total failure; one-sided failures surface
// as a partial Report instead.
func (p *Propagator) Propagate(src, dst string) (Report, error) {
	md, err := p.reader.Read(src)
	if err != nil {
		return Report{}, fmt.Errorf("read tags from %s: %w", src, err)
	}
	if md.Empty() {
		return Report{}, nil
	}

	var report Report
	var fieldErr, artErr error

	if len(md.Fields) > 0 {
		if fieldErr = p.writer.WriteFields(dst, md.Fields); fieldErr == nil {
			report.FieldCount = len(md.Fields)
		}
	}
	if md.Art != nil {
		if artErr = p.writer.WriteArt(dst, *md.Art); artErr == nil {
			report.ArtWritten = true
		}
	}

	switch {
	case fieldErr != nil && artErr != nil:
		return report, fmt.Errorf("write tags to %s: %w", dst, errors.Join(fieldErr, artErr))
	case fieldErr != nil && md.Art == nil:
		return report, fmt.Errorf("write tags to %s: %w", dst, fieldErr)
	case artErr != nil && len(md.Fields) == 0:
		return report, fmt.Errorf("write cover art to %s: %w", dst, artErr)
	case fieldErr != nil:
		report.Partial = true
		report.Detail = fmt.Sprintf("text tags failed: %v", fieldErr)
	case artErr != nil:
		report.Partial = true
		report.Detail = fmt.Sprintf("cover art failed: %v", artErr)
	}
	return report, nil
}

// normalizeExt lowercases a path's extension for format dispatch.
func normalizeExt(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}
