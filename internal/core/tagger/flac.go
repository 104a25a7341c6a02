package tagger

import (
	"fmt"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"spotube-downloader/internal/shared"
)

// fillVorbisComments adds ARTIST, TITLE and ALBUM when the transcoder did not write them.
// Existing values are left alone.
func fillVorbisComments(path string, d shared.TrackDescriptor) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	index := -1
	var comment *flacvorbis.MetaDataBlockVorbisComment
	for i, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			comment, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return fmt.Errorf("failed to read vorbis comments: %w", err)
			}
			index = i
			break
		}
	}
	if comment == nil {
		comment = flacvorbis.New()
	}

	changed := false
	for _, field := range []struct{ name, value string }{
		{flacvorbis.FIELD_ARTIST, d.Artist},
		{flacvorbis.FIELD_TITLE, d.Title},
		{flacvorbis.FIELD_ALBUM, d.Album},
	} {
		if field.value == "" {
			continue
		}
		existing, err := comment.Get(field.name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", field.name, err)
		}
		if len(existing) > 0 {
			continue
		}
		if err := comment.Add(field.name, field.value); err != nil {
			return fmt.Errorf("failed to add %s: %w", field.name, err)
		}
		changed = true
	}
	if !changed {
		return nil
	}

	block := comment.Marshal()
	if index >= 0 {
		f.Meta[index] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC file with metadata: %w", err)
	}
	return nil
}
