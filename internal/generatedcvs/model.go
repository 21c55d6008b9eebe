package generatedcvs

import "time"

// Artifact is one stored file of a generation.
type Artifact struct {
	StorageKey string
	FileName   string
	SizeBytes  int64
}

// Present reports whether the artifact was produced.
func (a Artifact) Present() bool {
	return a.StorageKey != ""
}

// GeneratedCV records one generation and where its artifacts live.
type GeneratedCV struct {
	ID       string
	OwnerID  string
	FullName string
	Variant  string
	Keywords []string
	Warnings []string
	DOCX     Artifact
	PDF      Artifact
	// JobDescription is the uploaded job description file, if any. Its
	// extracted text sits next to it under extract.ExtractedKey.
	JobDescription  Artifact
	ConversionError string
	CreatedAt       time.Time
	DeletedAt       *time.Time
}
