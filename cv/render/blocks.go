package render

import (
	"fmt"
	"strings"

	"cv-builder/cv/model"
	"cv-builder/internal/shared/telemetry"
)

// Variant selects section set and file prefix.
type Variant string

const (
	VariantATS      Variant = "ats"
	VariantStandard Variant = "standard"
)

// ParseVariant maps request text to a Variant. Blank means ATS.
func ParseVariant(raw string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(VariantATS):
		return VariantATS, nil
	case string(VariantStandard):
		return VariantStandard, nil
	default:
		return "", fmt.Errorf("unknown variant %q", raw)
	}
}

// Prefix is the file name prefix for the variant.
func (v Variant) Prefix() string {
	if v == VariantStandard {
		return "CV_"
	}
	return "CV_ATS_"
}

// Kind identifies a block.
type Kind string

const (
	KindHeader    Kind = "header"
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindBullets   Kind = "bullets"
)

// Section headings in render order.
const (
	SectionSummary        = "Professional Summary"
	SectionExperience     = "Work Experience"
	SectionEducation      = "Education"
	SectionCertifications = "Certifications"
	SectionOrganizations  = "Organizational Experience"
	SectionSkills         = "Skills"
	SectionAchievements   = "Achievements"
)

// Block is one element of the rendered document.
type Block struct {
	Kind   Kind
	Level  int
	Text   string
	Items  []string
	Header *Header
}

// Header is the two-column contact block.
type Header struct {
	Name  string
	Lines []string
	Photo *Image
}

// Image is a decoded photo ready for embedding.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Blocks lays out the document in its fixed section order and returns any
// non-fatal warnings produced along the way.
func Blocks(doc model.Document, variant Variant) ([]Block, []string) {
	var (
		blocks   []Block
		warnings []string
	)

	header := &Header{Name: doc.Profile.FullName, Lines: contactLines(doc.Profile)}
	if photo, ok := doc.Photo.Get(); ok {
		img, err := loadPhoto(photo.Path)
		if err != nil {
			msg := fmt.Sprintf("photo skipped: %v", err)
			warnings = append(warnings, msg)
			telemetry.Warn("render.photo_skipped", map[string]any{"error": err.Error()})
		} else {
			header.Photo = img
		}
	}
	blocks = append(blocks, Block{Kind: KindHeader, Header: header})

	if summary, ok := doc.Summary.Get(); ok {
		blocks = append(blocks, heading(1, SectionSummary), paragraph(summary))
	}

	if len(doc.Experience) > 0 {
		blocks = append(blocks, heading(1, SectionExperience))
		for _, exp := range doc.Experience {
			blocks = append(blocks, subsection(exp.Title, exp.Company, exp.Location, exp.StartDate, exp.EndDate, exp.Tasks)...)
		}
	}

	if len(doc.Education) > 0 {
		blocks = append(blocks, heading(1, SectionEducation))
		for _, edu := range doc.Education {
			line := withYear(joinNonEmpty(" – ", edu.Degree, edu.School), edu.Year)
			if grade, ok := edu.Grade.Get(); ok {
				line += ", Grade: " + grade
			}
			blocks = append(blocks, paragraph(line))
		}
	}

	if variant == VariantStandard && len(doc.Organizations) > 0 {
		blocks = append(blocks, heading(1, SectionOrganizations))
		for _, org := range doc.Organizations {
			blocks = append(blocks, subsection(org.Role, org.Name, org.Location, org.StartDate, org.EndDate, org.Descriptions)...)
		}
	}

	if len(doc.Certifications) > 0 {
		blocks = append(blocks, heading(1, SectionCertifications))
		for _, cert := range doc.Certifications {
			blocks = append(blocks, paragraph(withYear(joinNonEmpty(" – ", cert.Name, cert.Issuer), cert.Year)))
		}
	}

	if !doc.Skills.Empty() {
		blocks = append(blocks, heading(1, SectionSkills))
		for _, group := range []struct {
			label string
			items []string
		}{
			{"Hard Skills", doc.Skills.Hard},
			{"Soft Skills", doc.Skills.Soft},
			{"Tools & Software", doc.Skills.Tools},
		} {
			if len(group.items) == 0 {
				continue
			}
			blocks = append(blocks, paragraph(group.label+": "+strings.Join(group.items, ", ")))
		}
	}

	if len(doc.Achievements) > 0 {
		blocks = append(blocks, heading(1, SectionAchievements), bullets(doc.Achievements))
	}

	return blocks, warnings
}

// Headings lists the level-1 headings of blocks in order.
func Headings(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == KindHeading && b.Level == 1 {
			out = append(out, b.Text)
		}
	}
	return out
}

func contactLines(p model.PersonalProfile) []string {
	lines := []string{joinNonEmpty(" | ", p.Phone, p.Email)}
	if loc, ok := p.Location.Get(); ok {
		lines = append(lines, loc)
	}
	if url, ok := p.LinkedIn.Get(); ok {
		lines = append(lines, "LinkedIn: "+url)
	}
	if url, ok := p.Portfolio.Get(); ok {
		lines = append(lines, "Portfolio: "+url)
	}
	return lines
}

func subsection(title, org, location, start, end string, items []string) []Block {
	out := []Block{heading(2, joinNonEmpty(" – ", title, org))}
	if meta := joinNonEmpty(" | ", location, joinNonEmpty(" – ", start, end)); meta != "" {
		out = append(out, paragraph(meta))
	}
	if len(items) > 0 {
		out = append(out, bullets(items))
	}
	return out
}

func heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: level, Text: text}
}

func paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

func bullets(items []string) Block {
	return Block{Kind: KindBullets, Items: append([]string(nil), items...)}
}

func withYear(text, year string) string {
	if year == "" {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, year)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
