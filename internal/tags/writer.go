package tags

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

// frameIDs maps portable field names onto ID3v2.4 text frame identifiers.
var frameIDs = map[string]string{
	FieldTitle:       "Title/Songname/Content description",
	FieldArtist:      "Lead artist/Lead performer/Soloist/Performing group",
	FieldAlbum:       "Album/Movie/Show title",
	FieldAlbumArtist: "Band/Orchestra/Accompaniment",
	FieldComposer:    "Composer",
	FieldGenre:       "Content type",
	FieldYear:        "Recording time",
	FieldTrack:       "Track number/Position in set",
	FieldDisc:        "Part of a set",
}

// ID3Writer writes ID3v2.4 tags onto MP3 destinations with bogem/id3v2.
type ID3Writer struct{}

// WriteFields implements Writer.
func (ID3Writer) WriteFields(path string, fields map[string]string) error {
	return withTag(path, func(t *id3v2.Tag) {
		for field, value := range fields {
			id, ok := frameIDs[field]
			if !ok {
				continue
			}
			t.AddTextFrame(t.CommonID(id), t.DefaultEncoding(), value)
		}
	})
}

// WriteArt implements Writer.
func (ID3Writer) WriteArt(path string, art Picture) error {
	if len(art.Data) == 0 {
		return nil
	}
	mime := art.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return withTag(path, func(t *id3v2.Tag) {
		t.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: art.Description,
			Picture:     art.Data,
		})
	})
}

func withTag(path string, apply func(*id3v2.Tag)) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open destination tag: %w", err)
	}
	defer t.Close()

	t.SetVersion(4)
	apply(t)
	if err := t.Save(); err != nil {
		return fmt.Errorf("save destination tag: %w", err)
	}
	return nil
}

var _ Writer = ID3Writer{}
