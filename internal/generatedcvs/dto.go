package generatedcvs

import "time"

// FileResponse describes one downloadable artifact.
type FileResponse struct {
	Format    string `json:"format"`
	FileName  string `json:"fileName"`
	SizeBytes int64  `json:"sizeBytes"`
}

// GeneratedCVResponse is the outward-facing representation of a generation.
type GeneratedCVResponse struct {
	ID              string         `json:"id"`
	FullName        string         `json:"fullName"`
	Variant         string         `json:"variant"`
	Keywords        []string       `json:"keywords"`
	Warnings        []string       `json:"warnings"`
	ConversionError string         `json:"conversionError,omitempty"`
	JobDescription  string         `json:"jobDescriptionFile,omitempty"`
	Files           []FileResponse `json:"files"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toResponse(cv GeneratedCV) GeneratedCVResponse {
	resp := GeneratedCVResponse{
		ID:              cv.ID,
		FullName:        cv.FullName,
		Variant:         cv.Variant,
		Keywords:        nonNil(cv.Keywords),
		Warnings:        nonNil(cv.Warnings),
		ConversionError: cv.ConversionError,
		JobDescription:  cv.JobDescription.FileName,
		Files:           []FileResponse{},
		CreatedAt:       cv.CreatedAt,
	}
	if cv.DOCX.Present() {
		resp.Files = append(resp.Files, FileResponse{Format: "docx", FileName: cv.DOCX.FileName, SizeBytes: cv.DOCX.SizeBytes})
	}
	if cv.PDF.Present() {
		resp.Files = append(resp.Files, FileResponse{Format: "pdf", FileName: cv.PDF.FileName, SizeBytes: cv.PDF.SizeBytes})
	}
	return resp
}
