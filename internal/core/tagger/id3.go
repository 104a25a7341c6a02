package tagger

import (
	"context"
	"fmt"

	"github.com/bogem/id3v2/v2"

	"spotube-downloader/internal/shared"
)

const coverDescription = "Front cover"

func (t *Tagger) tagMP3(ctx context.Context, path string, d shared.TrackDescriptor) error {
	// fetch before opening so a slow server does not hold the file
	cover := t.cover(ctx, d)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open ID3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetArtist(d.Artist)
	tag.SetTitle(d.Title)
	tag.SetAlbum(d.Album)

	mimeType := detectImageFormat(cover)
	if len(cover) > 0 && mimeType == "" {
		if t.warnings != nil {
			t.warnings.AddCoverArtMetadataWarning(d.String(), "cover is not a recognized image format")
		}
		cover = nil
	}
	if len(cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mimeType,
			PictureType: id3v2.PTFrontCover,
			Description: coverDescription,
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save ID3 tag: %w", err)
	}
	return nil
}

// detectImageFormat returns the MIME type of the image data, or "" when it is not an image
func detectImageFormat(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	// PNG signature (89 50 4E 47)
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// JPEG signature (FF D8)
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	// WebP (RIFF....WEBP)
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}
	if string(data[0:4]) == "GIF8" {
		return "image/gif"
	}
	return ""
}
