package tags

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dhowden/tag"
)

// FileReader reads metadata with dhowden/tag. FLAC and MP3 are supported;
// other extensions return empty metadata so unsupported sources degrade to
// an untagged destination instead of a pipeline warning.
type FileReader struct{}

// Read implements Reader.
func (FileReader) Read(path string) (Metadata, error) {
	switch normalizeExt(path) {
	case ".flac", ".mp3":
	default:
		return Metadata{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	md, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Metadata{}, nil
		}
		return Metadata{}, fmt.Errorf("parse tags: %w", err)
	}

	fields := make(map[string]string)
	put := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	put(FieldTitle, md.Title())
	put(FieldArtist, md.Artist())
	put(FieldAlbum, md.Album())
	put(FieldAlbumArtist, md.AlbumArtist())
	put(FieldComposer, md.Composer())
	put(FieldGenre, md.Genre())
	if year := md.Year(); year > 0 {
		fields[FieldYear] = strconv.Itoa(year)
	}
	if number, total := md.Track(); number > 0 {
		fields[FieldTrack] = formatIndex(number, total)
	}
	if number, total := md.Disc(); number > 0 {
		fields[FieldDisc] = formatIndex(number, total)
	}

	result := Metadata{Fields: fields}
	if pic := md.Picture(); pic != nil && len(pic.Data) > 0 {
		result.Art = &Picture{
			MIMEType:    pic.MIMEType,
			Description: pic.Description,
			Data:        pic.Data,
		}
	}
	if len(result.Fields) == 0 {
		result.Fields = nil
	}
	return result, nil
}

// formatIndex renders "n" or "n/total" the way ID3 position frames expect.
func formatIndex(number, total int) string {
	if total > 0 {
		return strconv.Itoa(number) + "/" + strconv.Itoa(total)
	}
	return strconv.Itoa(number)
}

var _ Reader = FileReader{}
