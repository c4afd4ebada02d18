package engine

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	"pdf-epub-converter/internal/domain"
)

const jpegQuality = 75

// compressImage re-encodes an embedded image and returns the smaller of the
// re-encoded and original bytes. PNGs stay PNG, everything else becomes
// JPEG. Any decode or encode failure falls back to the original bytes.
func compressImage(img domain.EmbeddedImage) domain.EmbeddedImage {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return img
	}

	var buf bytes.Buffer
	ext := img.Ext
	if img.Ext == "png" {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, decoded)
	} else {
		ext = "jpeg"
		err = jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil || buf.Len() >= len(img.Data) {
		return img
	}
	return domain.EmbeddedImage{Index: img.Index, Ext: ext, Data: buf.Bytes()}
}

func mediaType(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/" + ext
	}
}
