package generatedcvs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cv-builder/cv/jobdesc"
	"cv-builder/cv/model"
	"cv-builder/cv/pipeline"
	"cv-builder/cv/render"
	"cv-builder/internal/extract"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/storage/object"
	"cv-builder/internal/shared/telemetry"
	"cv-builder/internal/shared/util"
)

// Upload is a file handed in alongside a generation request.
type Upload struct {
	FileName string
	Body     io.Reader
}

// CreateInput is everything one generation needs from the caller.
type CreateInput struct {
	Request        model.Request
	Photo          *Upload
	JobDescription *Upload
}

// Service contains business logic for generated CVs.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Generator *pipeline.Generator
	// Defaults supplies the feature toggles; the request may override
	// Variant and Formats.
	Defaults pipeline.Features
	TempDir  string
	Now      func() time.Time
}

// Create runs the pipeline and stores the artifacts. Validation failures
// come back as model.ErrValidation, bad uploads or options as ErrInvalidInput.
// Nothing stays in the store when Create fails.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (_ GeneratedCV, err error) {
	if strings.TrimSpace(ownerID) == "" {
		return GeneratedCV{}, ErrInvalidInput
	}
	if s.Repo == nil || s.Store == nil || s.Generator == nil {
		return GeneratedCV{}, errors.New("missing dependencies")
	}

	features, err := s.features(in.Request)
	if err != nil {
		return GeneratedCV{}, err
	}
	draft := in.Request.Draft()
	if err := model.ValidateProfile(draft.Profile); err != nil {
		metrics.IncValidationFailed()
		return GeneratedCV{}, err
	}

	if in.Photo != nil {
		path, cleanup, err := s.stagePhoto(*in.Photo)
		if err != nil {
			return GeneratedCV{}, err
		}
		defer cleanup()
		draft.Photo = model.Some(model.Photo{Path: path})
	}

	var stored []string
	defer func() {
		if err != nil {
			s.discard(ctx, stored...)
		}
	}()

	jd, jdFile, err := s.jobDescription(ctx, ownerID, in)
	if err != nil {
		return GeneratedCV{}, err
	}
	if jdFile.Present() {
		stored = append(stored, jdFile.StorageKey, extract.ExtractedKey(jdFile.StorageKey))
	}

	res, err := s.Generator.Generate(ctx, draft, jd, features)
	if err != nil {
		return GeneratedCV{}, err
	}

	cv := GeneratedCV{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		FullName:       res.Document.Profile.FullName,
		Variant:        string(features.Variant),
		Keywords:       res.Keywords,
		Warnings:       res.Warnings,
		JobDescription: jdFile,
		CreatedAt:      s.now(),
	}
	if cv.DOCX, err = s.saveArtifact(ctx, cv, res.DOCX, render.DOCXContentType); err != nil {
		return GeneratedCV{}, err
	}
	stored = append(stored, cv.DOCX.StorageKey)
	if res.PDF != nil {
		if cv.PDF, err = s.saveArtifact(ctx, cv, *res.PDF, render.PDFContentType); err != nil {
			return GeneratedCV{}, err
		}
		stored = append(stored, cv.PDF.StorageKey)
	}
	if res.ConversionErr != nil {
		cv.ConversionError = res.ConversionErr.Error()
	}

	if err := s.Repo.Create(ctx, cv); err != nil {
		return GeneratedCV{}, fmt.Errorf("record generation: %w", err)
	}
	return cv, nil
}

// Get returns one of the owner's generations.
func (s *Service) Get(ctx context.Context, ownerID, id string) (GeneratedCV, error) {
	if ownerID == "" || id == "" {
		return GeneratedCV{}, ErrInvalidInput
	}
	cv, err := s.Repo.GetByID(ctx, ownerID, id)
	if errors.Is(err, ErrForbidden) {
		return GeneratedCV{}, ErrNotFound
	}
	return cv, err
}

// List returns the owner's generations, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]GeneratedCV, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Open streams one artifact of a generation. ErrNotFound is returned when the
// format was not produced.
func (s *Service) Open(ctx context.Context, ownerID, id string, format pipeline.Format) (io.ReadCloser, Artifact, error) {
	cv, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, Artifact{}, err
	}
	artifact := cv.DOCX
	if format == pipeline.FormatPDF {
		artifact = cv.PDF
	}
	if !artifact.Present() {
		return nil, Artifact{}, ErrNotFound
	}
	rc, err := s.Store.Open(ctx, artifact.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, Artifact{}, ErrNotFound
		}
		return nil, Artifact{}, err
	}
	return rc, artifact, nil
}

// Delete soft-deletes one of the owner's generations and removes its files.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	cv, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.SoftDelete(ctx, ownerID, id, s.now()); err != nil {
		return err
	}
	s.discard(ctx, storedKeys(cv)...)
	return nil
}

func (s *Service) features(req model.Request) (pipeline.Features, error) {
	features := s.Defaults
	if strings.TrimSpace(req.Variant) != "" || features.Variant == "" {
		variant, err := render.ParseVariant(req.Variant)
		if err != nil {
			return pipeline.Features{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		features.Variant = variant
	}
	if strings.TrimSpace(req.Format) != "" {
		format, err := pipeline.ParseFormat(req.Format)
		if err != nil {
			return pipeline.Features{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		features.Formats = []pipeline.Format{format}
	}
	return features, nil
}

// jobDescription prefers an uploaded file over pasted text. A stored upload
// comes back as an Artifact; on error nothing is left in the store.
func (s *Service) jobDescription(ctx context.Context, ownerID string, in CreateInput) (string, Artifact, error) {
	if in.JobDescription == nil {
		return jobdesc.Text(in.Request.JobDescription), Artifact{}, nil
	}
	up := in.JobDescription
	key, size, mimeType, err := s.Store.Save(ctx, ownerID, up.FileName, io.LimitReader(up.Body, extract.MaxJobDescriptionBytes+1))
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			return "", Artifact{}, fmt.Errorf("%w: job description file name", ErrInvalidInput)
		}
		return "", Artifact{}, fmt.Errorf("store job description: %w", err)
	}
	if size > extract.MaxJobDescriptionBytes {
		s.discard(ctx, key)
		return "", Artifact{}, fmt.Errorf("%w: job description exceeds %d bytes", ErrInvalidInput, extract.MaxJobDescriptionBytes)
	}
	text, err := extract.ExtractText(ctx, s.Store, key, mimeType, up.FileName)
	if err != nil {
		s.discard(ctx, key, extract.ExtractedKey(key))
		if errors.Is(err, extract.ErrUnsupported) {
			return "", Artifact{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", Artifact{}, err
	}
	return text, Artifact{StorageKey: key, FileName: up.FileName, SizeBytes: size}, nil
}

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// stagePhoto copies the upload into a temp file the renderer can read. The
// returned cleanup removes it.
func (s *Service) stagePhoto(up Upload) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(up.FileName))
	if !photoExtensions[ext] {
		return "", nil, fmt.Errorf("%w: photo must be jpg, jpeg or png", ErrInvalidInput)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(up.Body, render.MaxPhotoBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read photo: %w", err)
	}
	if n > render.MaxPhotoBytes {
		return "", nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrInvalidInput, render.MaxPhotoBytes)
	}

	f, err := os.CreateTemp(s.TempDir, "cv-photo-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("stage photo: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("stage photo: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("stage photo: %w", err)
	}
	return path, cleanup, nil
}

func (s *Service) saveArtifact(ctx context.Context, cv GeneratedCV, out render.Rendered, contentType string) (Artifact, error) {
	key, err := util.ArtifactKey(cv.OwnerID, cv.ID, out.FileName)
	if err != nil {
		return Artifact{}, err
	}
	n, err := s.Store.SaveWithKey(ctx, key, contentType, bytes.NewReader(out.Bytes))
	if err != nil {
		return Artifact{}, fmt.Errorf("store %s: %w", out.FileName, err)
	}
	return Artifact{StorageKey: key, FileName: out.FileName, SizeBytes: n}, nil
}

// discard removes keys on a best-effort basis. It ignores cancellation of ctx
// so that cleanup still runs for aborted requests.
func (s *Service) discard(ctx context.Context, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.Store.Delete(ctx, key); err != nil {
			telemetry.Warn("generatedcvs.discard_failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
}

func storedKeys(cv GeneratedCV) []string {
	var keys []string
	for _, a := range []Artifact{cv.DOCX, cv.PDF} {
		if a.Present() {
			keys = append(keys, a.StorageKey)
		}
	}
	if cv.JobDescription.Present() {
		keys = append(keys, cv.JobDescription.StorageKey, extract.ExtractedKey(cv.JobDescription.StorageKey))
	}
	return keys
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
