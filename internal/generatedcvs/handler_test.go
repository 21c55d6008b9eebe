package generatedcvs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/keywords"
	"cv-builder/cv/nlp"
	"cv-builder/cv/optimize"
	"cv-builder/cv/pipeline"
	"cv-builder/cv/render"
	"cv-builder/internal/shared/server/middleware"
	localstore "cv-builder/internal/shared/storage/object/local"
)

type nounTagger struct{}

func (nounTagger) Tag(text string) ([]nlp.Token, error) {
	var out []nlp.Token
	for _, w := range strings.Fields(text) {
		tag := "NN"
		if strings.EqualFold(w, "led") {
			tag = "VBD"
		}
		out = append(out, nlp.Token{Text: w, Tag: tag})
	}
	return out, nil
}

type fakePDF struct{ err error }

func (f fakePDF) Convert(ctx context.Context, docx []byte, fileName string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func newTestService(t *testing.T, conv fakePDF) *Service {
	t.Helper()
	svc, _ := newTestServiceWithStore(t, conv)
	return svc
}

// newTestServiceWithStore also returns the local store directory.
func newTestServiceWithStore(t *testing.T, conv fakePDF) (*Service, string) {
	t.Helper()
	caps := nlp.Capabilities{Tagging: true, Statistics: true}
	storeDir := t.TempDir()
	return &Service{
		Repo:      NewMemoryRepo(),
		Store:     localstore.New(storeDir),
		Generator: pipeline.New(keywords.New(caps), optimize.New(caps, nounTagger{}), conv),
		Defaults: pipeline.Features{
			InjectKeywords:     true,
			OptimizeStatements: true,
			Variant:            render.VariantATS,
		},
		TempDir: t.TempDir(),
	}, storeDir
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return files
}

// multipartRequest builds a form with the request JSON and a jobDescription file.
func multipartRequest(t *testing.T, requestJSON, jdName, jdBody string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("request", requestJSON)
	jd, err := writer.CreateFormFile("jobDescription", jdName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = jd.Write([]byte(jdBody))
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (failingCreateRepo) Create(ctx context.Context, cv GeneratedCV) error {
	return errors.New("db down")
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

const requestJSON = `{
  "fullName": "Jane Doe",
  "phone": "555-0100",
  "email": "jane@example.com",
  "experience": [{"company": "Acme", "title": "Engineer", "tasks": "led rollout"}],
  "jobDescription": "led rollout deployment deployment",
  "format": "pdf"
}`

func doRequest(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Guest-Id", "guest-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateAndDownloadRoundTrip(t *testing.T) {
	router := newTestRouter(newTestService(t, fakePDF{}))

	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", strings.NewReader(requestJSON), "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created GeneratedCVResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Variant != "ats" {
		t.Fatalf("unexpected response %+v", created)
	}
	if strings.Join(created.Keywords, ",") != "deployment,led,rollout" {
		t.Fatalf("unexpected keywords %v", created.Keywords)
	}
	if len(created.Files) != 2 || created.Files[0].FileName != "CV_ATS_Jane_Doe.docx" || created.Files[1].FileName != "CV_ATS_Jane_Doe.pdf" {
		t.Fatalf("unexpected files %+v", created.Files)
	}

	dl := doRequest(router, http.MethodGet, "/api/v1/cvs/"+created.ID+"/download?format=pdf", nil, "")
	if dl.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", dl.Code)
	}
	if got := dl.Header().Get("Content-Disposition"); got != `attachment; filename="CV_ATS_Jane_Doe.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if dl.Body.String() != "%PDF-1.7 fake" {
		t.Fatalf("unexpected body %q", dl.Body.String())
	}

	docx := doRequest(router, http.MethodGet, "/api/v1/cvs/"+created.ID+"/download", nil, "")
	if docx.Code != http.StatusOK || !bytes.HasPrefix(docx.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected docx download, got %d", docx.Code)
	}
	blocks, err := render.ReadBlocks(docx.Body.Bytes())
	if err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}
	var bullets []string
	for _, b := range blocks {
		if b.Kind == render.KindBullets {
			bullets = append(bullets, b.Items...)
		}
	}
	want := []string{"led rollout" + optimize.OutcomeClause, "Experience related to deployment"}
	if strings.Join(bullets, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected bullets %v", bullets)
	}

	get := doRequest(router, http.MethodGet, "/api/v1/cvs/"+created.ID, nil, "")
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}
	list := doRequest(router, http.MethodGet, "/api/v1/cvs", nil, "")
	var listed []GeneratedCVResponse
	if err := json.Unmarshal(list.Body.Bytes(), &listed); err != nil || len(listed) != 1 {
		t.Fatalf("unexpected list %s", list.Body.String())
	}
}

func TestCreateValidationErrors(t *testing.T) {
	router := newTestRouter(newTestService(t, fakePDF{}))

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "missing fields", body: `{"fullName": "Jane"}`, code: "validation_error"},
		{name: "wrong type", body: `{"fullName": 42}`, code: "validation_error"},
		{name: "bad json", body: `{`, code: "validation_error"},
		{name: "bad variant", body: `{"fullName":"J","phone":"1","email":"e","variant":"fancy"}`, code: "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(router, http.MethodPost, "/api/v1/cvs", strings.NewReader(tt.body), "application/json")
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			var payload struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Error.Code != tt.code {
				t.Fatalf("expected %s, got %s", tt.code, payload.Error.Code)
			}
			if tt.name == "missing fields" {
				fields, _ := payload.Error.Details["fields"].([]any)
				if len(fields) != 2 || fields[0] != "phone" || fields[1] != "email" {
					t.Fatalf("unexpected fields %v", payload.Error.Details)
				}
			}
		})
	}
}

func TestCreateConversionFailureStillDelivers(t *testing.T) {
	svc := newTestService(t, fakePDF{err: io.ErrUnexpectedEOF})
	router := newTestRouter(svc)

	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", strings.NewReader(requestJSON), "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var created GeneratedCVResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if created.ConversionError == "" || len(created.Files) != 1 {
		t.Fatalf("expected docx only with conversion error: %+v", created)
	}

	dl := doRequest(router, http.MethodGet, "/api/v1/cvs/"+created.ID+"/download?format=pdf", nil, "")
	if dl.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing pdf, got %d", dl.Code)
	}
}

func TestCreateMultipartWithPhotoAndJobDescription(t *testing.T) {
	svc := newTestService(t, fakePDF{})
	router := newTestRouter(svc)

	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, image.NewRGBA(image.Rect(0, 0, 20, 30))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("request", `{"fullName":"Jane Doe","phone":"1","email":"e@x","variant":"standard","experience":[{"company":"Acme","title":"Eng","tasks":"led rollout"}]}`)
	photo, _ := writer.CreateFormFile("photo", "me.png")
	_, _ = photo.Write(imgBuf.Bytes())
	jd, _ := writer.CreateFormFile("jobDescription", "jd.txt")
	_, _ = jd.Write([]byte("terraform terraform"))
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", body, writer.FormDataContentType())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created GeneratedCVResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if created.Variant != "standard" || created.Files[0].FileName != "CV_Jane_Doe.docx" {
		t.Fatalf("unexpected response %+v", created)
	}
	if strings.Join(created.Keywords, ",") != "terraform" {
		t.Fatalf("expected keywords from uploaded file, got %v", created.Keywords)
	}
	if len(created.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", created.Warnings)
	}
	if created.JobDescription != "jd.txt" {
		t.Fatalf("expected job description file recorded, got %q", created.JobDescription)
	}

	entries, err := os.ReadDir(svc.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staged photo not removed: %v", entries)
	}

	dl := doRequest(router, http.MethodGet, "/api/v1/cvs/"+created.ID+"/download?format=docx", nil, "")
	blocks, err := render.ReadBlocks(dl.Body.Bytes())
	if err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}
	if blocks[0].Header == nil || blocks[0].Header.Photo == nil {
		t.Fatalf("expected embedded photo in header")
	}
}

func TestCreateRejectsBadPhotoExtension(t *testing.T) {
	router := newTestRouter(newTestService(t, fakePDF{}))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("request", `{"fullName":"Jane","phone":"1","email":"e"}`)
	photo, _ := writer.CreateFormFile("photo", "me.gif")
	_, _ = photo.Write([]byte("GIF89a"))
	_ = writer.Close()

	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", body, writer.FormDataContentType())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOtherOwnersCannotSeeGeneration(t *testing.T) {
	router := newTestRouter(newTestService(t, fakePDF{}))

	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", strings.NewReader(requestJSON), "application/json")
	var created GeneratedCVResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &created)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cvs/"+created.ID, nil)
	req.Header.Set("X-User-Id", "someone-else")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateValidationFailureLeavesStoreEmpty(t *testing.T) {
	svc, storeDir := newTestServiceWithStore(t, fakePDF{})
	router := newTestRouter(svc)

	body, contentType := multipartRequest(t, `{"fullName":"","phone":"+1","email":"a@b.com"}`, "jd.txt", "terraform kubernetes")
	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", body, contentType)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Error struct {
			Details map[string][]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := payload.Error.Details["fields"]; len(got) != 1 || got[0] != "fullName" {
		t.Fatalf("unexpected fields %v", payload.Error.Details)
	}
	if files := storedFiles(t, storeDir); len(files) != 0 {
		t.Fatalf("store must stay empty on validation failure, found %v", files)
	}
}

func TestCreateRecordFailureDiscardsStoredFiles(t *testing.T) {
	svc, storeDir := newTestServiceWithStore(t, fakePDF{})
	svc.Repo = failingCreateRepo{NewMemoryRepo()}
	router := newTestRouter(svc)

	body, contentType := multipartRequest(t, `{"fullName":"Jane Doe","phone":"1","email":"e@x","format":"pdf"}`, "jd.txt", "terraform")
	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", body, contentType)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.Code, resp.Body.String())
	}
	if files := storedFiles(t, storeDir); len(files) != 0 {
		t.Fatalf("orphaned files left in store: %v", files)
	}
}

func TestDeleteRemovesRecordAndFiles(t *testing.T) {
	svc, storeDir := newTestServiceWithStore(t, fakePDF{})
	router := newTestRouter(svc)

	body, contentType := multipartRequest(t, `{"fullName":"Jane Doe","phone":"1","email":"e@x","format":"pdf"}`, "jd.txt", "terraform")
	resp := doRequest(router, http.MethodPost, "/api/v1/cvs", body, contentType)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created GeneratedCVResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	// upload, extracted text, docx, pdf
	if files := storedFiles(t, storeDir); len(files) != 4 {
		t.Fatalf("expected 4 stored files, got %v", files)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cvs/"+created.ID, nil)
	req.Header.Set("X-User-Id", "someone-else")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d", rec.Code)
	}

	del := doRequest(router, http.MethodDelete, "/api/v1/cvs/"+created.ID, nil, "")
	if del.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", del.Code, del.Body.String())
	}
	if get := doRequest(router, http.MethodGet, "/api/v1/cvs/"+created.ID, nil, ""); get.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", get.Code)
	}
	if files := storedFiles(t, storeDir); len(files) != 0 {
		t.Fatalf("files left after delete: %v", files)
	}
	if again := doRequest(router, http.MethodDelete, "/api/v1/cvs/"+created.ID, nil, ""); again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", again.Code)
	}
}
