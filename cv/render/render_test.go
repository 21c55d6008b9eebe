package render

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cv-builder/cv/model"
	"cv-builder/internal/shared/telemetry"
)

func sampleDoc() model.Document {
	return model.Document{
		Profile: model.PersonalProfile{
			FullName: "Ann Lee",
			Phone:    "555-1",
			Email:    "ann@x.com",
			Location: model.Some("Berlin"),
			LinkedIn: model.Some("https://linkedin.com/in/annlee"),
		},
		Summary: model.Some("Platform engineer focused on R&D tooling."),
		Experience: []model.ExperienceEntry{{
			Company:   "Acme",
			Title:     "Engineer",
			Location:  "Remote",
			StartDate: "2020",
			EndDate:   "2023",
			Tasks:     []string{"led rollout", "built CI"},
		}},
		Education: []model.EducationEntry{{
			School: "State U",
			Degree: "BSc Computer Science",
			Year:   "2019",
			Grade:  model.Some("3.8"),
		}},
		Organizations: []model.OrganizationEntry{{
			Name:         "Gophers Berlin",
			Role:         "Organizer",
			Descriptions: []string{"ran monthly meetups"},
		}},
		Certifications: []model.CertificationEntry{{Name: "CKA", Issuer: "CNCF", Year: "2022"}},
		Skills:         model.SkillSet{Hard: []string{"Go", "SQL"}, Tools: []string{"Docker"}},
		Achievements:   []string{"Speaker at GopherCon"},
	}
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func quiet(t *testing.T) {
	t.Helper()
	prev := telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(prev) })
}

func readPart(t *testing.T, docx []byte, name string) string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	for _, f := range reader.File {
		if f.Name == name {
			content, err := readZipFile(f)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return string(content)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func partNames(t *testing.T, docx []byte) []string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBlocksSectionOrder(t *testing.T) {
	cases := []struct {
		variant Variant
		want    string
	}{
		{VariantATS, "Professional Summary|Work Experience|Education|Certifications|Skills|Achievements"},
		{VariantStandard, "Professional Summary|Work Experience|Education|Organizational Experience|Certifications|Skills|Achievements"},
	}
	for _, tc := range cases {
		t.Run(string(tc.variant), func(t *testing.T) {
			for i := 0; i < 3; i++ {
				blocks, warnings := Blocks(sampleDoc(), tc.variant)
				if len(warnings) != 0 {
					t.Fatalf("unexpected warnings: %v", warnings)
				}
				if blocks[0].Kind != KindHeader {
					t.Fatalf("first block should be the header, got %s", blocks[0].Kind)
				}
				if got := strings.Join(Headings(blocks), "|"); got != tc.want {
					t.Fatalf("got %s, want %s", got, tc.want)
				}
			}
		})
	}
}

func TestBlocksLineFormats(t *testing.T) {
	blocks, _ := Blocks(sampleDoc(), VariantStandard)
	var texts []string
	for _, b := range blocks {
		switch b.Kind {
		case KindHeading, KindParagraph:
			texts = append(texts, b.Text)
		case KindHeader:
			texts = append(texts, b.Header.Name)
			texts = append(texts, b.Header.Lines...)
		}
	}
	joined := strings.Join(texts, "\n")
	for _, want := range []string{
		"Ann Lee",
		"555-1 | ann@x.com",
		"LinkedIn: https://linkedin.com/in/annlee",
		"Engineer – Acme",
		"Remote | 2020 – 2023",
		"BSc Computer Science – State U (2019), Grade: 3.8",
		"Organizer – Gophers Berlin",
		"CKA – CNCF (2022)",
		"Hard Skills: Go, SQL",
		"Tools & Software: Docker",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Soft Skills") {
		t.Fatalf("empty skill group should be omitted")
	}
	if strings.Contains(joined, "Portfolio:") {
		t.Fatalf("absent portfolio should be omitted")
	}
}

func TestBlocksOmitsEmptySections(t *testing.T) {
	doc := model.Document{Profile: model.PersonalProfile{FullName: "Ann Lee", Phone: "1", Email: "e"}}
	blocks, _ := Blocks(doc, VariantStandard)
	if len(blocks) != 1 || blocks[0].Kind != KindHeader {
		t.Fatalf("expected only the header, got %+v", blocks)
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		name    string
		variant Variant
		want    string
	}{
		{"Jane X. Doe!", VariantATS, "CV_ATS_Jane_X_Doe.docx"},
		{"Jane X. Doe!", VariantStandard, "CV_Jane_X_Doe.docx"},
		{"  José   María-López_2 ", VariantATS, "CV_ATS_José_María-López_2.docx"},
		{"!!!", VariantATS, "CV_ATS_candidate.docx"},
	}
	for _, tc := range cases {
		if got := FileName(tc.name, tc.variant, "docx"); got != tc.want {
			t.Fatalf("FileName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
	if got := FileName("Ann Lee", VariantATS, ".pdf"); got != "CV_ATS_Ann_Lee.pdf" {
		t.Fatalf("unexpected pdf name %q", got)
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant(""); err != nil || v != VariantATS {
		t.Fatalf("blank should default to ats, got %q %v", v, err)
	}
	if v, err := ParseVariant(" Standard "); err != nil || v != VariantStandard {
		t.Fatalf("expected standard, got %q %v", v, err)
	}
	if _, err := ParseVariant("fancy"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestRenderProducesDocx(t *testing.T) {
	out, err := Render(sampleDoc(), VariantATS)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.FileName != "CV_ATS_Ann_Lee.docx" {
		t.Fatalf("unexpected file name %q", out.FileName)
	}

	names := strings.Join(partNames(t, out.Bytes), ",")
	for _, part := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/numbering.xml", "word/_rels/document.xml.rels"} {
		if !strings.Contains(names, part) {
			t.Fatalf("missing part %s in %s", part, names)
		}
	}
	if strings.Contains(names, "word/media/") {
		t.Fatalf("no media expected without a photo")
	}

	documentXML := readPart(t, out.Bytes, "word/document.xml")
	for _, want := range []string{"Ann Lee", "Work Experience", "R&amp;D tooling", `<w:numId w:val="1"/>`, "Heading1"} {
		if !strings.Contains(documentXML, want) {
			t.Fatalf("document.xml missing %q", want)
		}
	}
	if err := validateDocumentXMLStrict(documentXML); err != nil {
		t.Fatalf("strict validation: %v", err)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	first, err := Render(sampleDoc(), VariantStandard)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := Render(sampleDoc(), VariantStandard)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestRenderEmbedsPhoto(t *testing.T) {
	doc := sampleDoc()
	doc.Photo = model.Some(model.Photo{Path: writePNG(t, 200, 300)})

	out, err := Render(doc, VariantATS)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", out.Warnings)
	}
	if !strings.Contains(strings.Join(partNames(t, out.Bytes), ","), "word/media/image1.png") {
		t.Fatalf("photo part missing")
	}
	documentXML := readPart(t, out.Bytes, "word/document.xml")
	// 1.5in wide, aspect ratio kept
	if !strings.Contains(documentXML, `<wp:extent cx="1371600" cy="2057400"/>`) {
		t.Fatalf("unexpected photo extent in document.xml")
	}
	rels := readPart(t, out.Bytes, "word/_rels/document.xml.rels")
	if !strings.Contains(rels, "media/image1.png") {
		t.Fatalf("image relationship missing")
	}
	types := readPart(t, out.Bytes, "[Content_Types].xml")
	if !strings.Contains(types, `Extension="png"`) {
		t.Fatalf("png content type missing")
	}
}

func TestRenderPhotoFailureIsWarning(t *testing.T) {
	quiet(t)
	notImage := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(notImage, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, path := range map[string]string{
		"missing":     filepath.Join(t.TempDir(), "nope.png"),
		"undecodable": notImage,
	} {
		t.Run(name, func(t *testing.T) {
			doc := sampleDoc()
			doc.Photo = model.Some(model.Photo{Path: path})
			out, err := Render(doc, VariantATS)
			if err != nil {
				t.Fatalf("photo failure must not be an error: %v", err)
			}
			if len(out.Warnings) != 1 || !strings.HasPrefix(out.Warnings[0], "photo skipped") {
				t.Fatalf("expected one photo warning, got %v", out.Warnings)
			}
			if strings.Contains(strings.Join(partNames(t, out.Bytes), ","), "word/media/") {
				t.Fatalf("no media expected after photo failure")
			}
		})
	}
}

func TestReadBlocksRoundTrip(t *testing.T) {
	doc := sampleDoc()
	doc.Photo = model.Some(model.Photo{Path: writePNG(t, 40, 40)})
	want, _ := Blocks(doc, VariantStandard)

	out, err := Render(doc, VariantStandard)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	got, err := ReadBlocks(out.Bytes)
	if err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("block count %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || got[i].Text != want[i].Text || got[i].Level != want[i].Level {
			t.Fatalf("block %d = %+v, want %+v", i, got[i], want[i])
		}
		if strings.Join(got[i].Items, "|") != strings.Join(want[i].Items, "|") {
			t.Fatalf("block %d items = %v, want %v", i, got[i].Items, want[i].Items)
		}
	}
	header := got[0].Header
	if header.Name != "Ann Lee" || header.Photo == nil || header.Photo.Format != "png" {
		t.Fatalf("unexpected header: %+v", header)
	}
}

func TestHTML(t *testing.T) {
	doc := sampleDoc()
	doc.Photo = model.Some(model.Photo{Path: writePNG(t, 10, 10)})
	blocks, _ := Blocks(doc, VariantATS)

	page, err := HTML(blocks)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	html := string(page)
	for _, want := range []string{"<h1>Work Experience</h1>", "<li>led rollout</li>", "data:image/png;base64,", "R&amp;D tooling", "<title>Ann Lee</title>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}
