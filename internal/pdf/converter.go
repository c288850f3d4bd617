// Package pdf turns uploaded documents into JPEG pages for the vision model.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register the PNG decoder for image.Decode
	"strings"

	"github.com/gen2brain/go-fitz" // Lightweight PDF renderer
)

// MaxPages caps how many pages of a PDF are sent for inspection. Compliance
// certificates rarely run past the second page.
const MaxPages = 4

const jpegQuality = 90

// ConvertPDFToImages renders up to maxPages PDF pages as JPEG images
func ConvertPDFToImages(pdfData []byte, maxPages int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if maxPages > 0 && pageCount > maxPages {
		pageCount = maxPages
	}
	images := make([][]byte, 0, pageCount)

	for i := 0; i < pageCount; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i, err)
		}
		images = append(images, buf.Bytes())
	}

	return images, nil
}

// DetectImageFormat detects if data is already an image
func DetectImageFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return format, nil
}

// ConvertImageToJPEG converts any image format to JPEG
func ConvertImageToJPEG(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Pages returns the JPEG pages of an uploaded file of the given type
// (pdf, jpg, jpeg, png). JPEGs pass through untouched.
func Pages(fileType string, data []byte) ([][]byte, error) {
	switch strings.ToLower(fileType) {
	case "pdf":
		return ConvertPDFToImages(data, MaxPages)
	case "jpg", "jpeg":
		if _, err := DetectImageFormat(data); err != nil {
			return nil, fmt.Errorf("invalid jpeg: %w", err)
		}
		return [][]byte{data}, nil
	case "png":
		img, err := ConvertImageToJPEG(data)
		if err != nil {
			return nil, err
		}
		return [][]byte{img}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}
