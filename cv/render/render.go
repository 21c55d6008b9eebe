package render

import (
	"fmt"

	"cv-builder/cv/model"
)

const (
	// DOCXContentType is the media type of the rich-text artifact.
	DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	// PDFContentType is the media type of the fixed-layout artifact.
	PDFContentType = "application/pdf"
)

// Rendered is a serialized document with its deterministic file name.
type Rendered struct {
	Bytes    []byte
	FileName string
	Warnings []string
}

// Render lays out doc and serializes it to DOCX. The only side effect is
// reading the photo file; a photo that cannot be embedded becomes a warning.
func Render(doc model.Document, variant Variant) (Rendered, error) {
	blocks, warnings := Blocks(doc, variant)
	data, err := buildDOCX(blocks)
	if err != nil {
		return Rendered{}, fmt.Errorf("render docx: %w", err)
	}
	return Rendered{
		Bytes:    data,
		FileName: FileName(doc.Profile.FullName, variant, "docx"),
		Warnings: warnings,
	}, nil
}
