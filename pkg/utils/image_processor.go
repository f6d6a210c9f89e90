package utils

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"
	"path/filepath"
	"strings"

	"atelier-admin/pkg/logger"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// MaxImageWidth is the width images are scaled down to before upload.
const MaxImageWidth = 2000

var (
	ErrImageType      = errors.New("invalid file type. Allowed: JPEG, PNG, WebP, GIF")
	ErrImageExtension = errors.New("invalid file extension")

	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// ValidateImage checks the declared content type and the file extension.
func ValidateImage(filename, contentType string) error {
	if !allowedMimeTypes[strings.ToLower(contentType)] {
		return ErrImageType
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrImageExtension
	}
	return nil
}

// ProcessImage Resize and Convert to WebP
func ProcessImage(r io.Reader, filename string) ([]byte, string, error) {
	// 1. Decode generic image
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	logger.Debug().Str("filename", filename).Str("format", format).Msg("Processing image")

	// 2. Resize if too large
	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	// 3. Encode as WebP. Quality 85, lossy.
	var buf bytes.Buffer
	err = webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  85,
	})
	if err != nil {
		logger.Warn().Err(err).Str("filename", filename).Msg("WebP encoding failed, falling back to JPEG")
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	return buf.Bytes(), "image/webp", nil
}

// ReplaceExtension swaps the extension of filename for the one matching contentType.
func ReplaceExtension(filename, contentType string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	switch contentType {
	case "image/webp":
		return base + ".webp"
	case "image/jpeg":
		return base + ".jpg"
	}
	return base + filepath.Ext(filename)
}
