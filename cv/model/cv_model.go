package model

import (
	"errors"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the required fields that were empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required fields are empty: " + strings.Join(e.Fields, ", ")
}

// Is lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Document is the canonical CV payload handed to the renderer.
type Document struct {
	Profile        PersonalProfile
	Summary        Optional[string]
	Experience     []ExperienceEntry
	Education      []EducationEntry
	Organizations  []OrganizationEntry
	Certifications []CertificationEntry
	Skills         SkillSet
	Achievements   []string
	Photo          Optional[Photo]
}

// PersonalProfile captures identity and contact details.
type PersonalProfile struct {
	FullName  string
	Phone     string
	Email     string
	Location  Optional[string]
	LinkedIn  Optional[string]
	Portfolio Optional[string]
}

// ExperienceEntry is a single work history entry.
type ExperienceEntry struct {
	Company   string
	Title     string
	Location  string
	StartDate string
	EndDate   string
	Tasks     []string
}

// EducationEntry is a single education entry.
type EducationEntry struct {
	School string
	Degree string
	Year   string
	Grade  Optional[string]
}

// OrganizationEntry is a membership or volunteer role.
type OrganizationEntry struct {
	Name         string
	Role         string
	Location     string
	StartDate    string
	EndDate      string
	Descriptions []string
}

// CertificationEntry is a single certification.
type CertificationEntry struct {
	Name   string
	Issuer string
	Year   string
}

// SkillSet groups skills by kind.
type SkillSet struct {
	Hard  []string
	Soft  []string
	Tools []string
}

// Empty reports whether no group has any entry.
func (s SkillSet) Empty() bool {
	return len(s.Hard) == 0 && len(s.Soft) == 0 && len(s.Tools) == 0
}

// Photo references a caller-owned image file. The core only reads it.
type Photo struct {
	Path string
}

// ValidateProfile enforces the required contact fields.
func ValidateProfile(p PersonalProfile) error {
	var missing []string
	if strings.TrimSpace(p.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(p.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// New validates a draft and returns a normalized copy that shares no slices
// with the input.
func New(draft Document) (Document, error) {
	if err := ValidateProfile(draft.Profile); err != nil {
		return Document{}, err
	}

	doc := Document{
		Profile: PersonalProfile{
			FullName:  strings.TrimSpace(draft.Profile.FullName),
			Phone:     strings.TrimSpace(draft.Profile.Phone),
			Email:     strings.TrimSpace(draft.Profile.Email),
			Location:  retrim(draft.Profile.Location),
			LinkedIn:  retrim(draft.Profile.LinkedIn),
			Portfolio: retrim(draft.Profile.Portfolio),
		},
		Summary: retrim(draft.Summary),
		Skills: SkillSet{
			Hard:  CleanList(draft.Skills.Hard),
			Soft:  CleanList(draft.Skills.Soft),
			Tools: CleanList(draft.Skills.Tools),
		},
		Achievements: CleanList(draft.Achievements),
		Photo:        draft.Photo,
	}

	for _, exp := range draft.Experience {
		exp.Company = strings.TrimSpace(exp.Company)
		exp.Title = strings.TrimSpace(exp.Title)
		exp.Location = strings.TrimSpace(exp.Location)
		exp.StartDate = strings.TrimSpace(exp.StartDate)
		exp.EndDate = strings.TrimSpace(exp.EndDate)
		exp.Tasks = CleanList(exp.Tasks)
		doc.Experience = append(doc.Experience, exp)
	}
	for _, edu := range draft.Education {
		edu.School = strings.TrimSpace(edu.School)
		edu.Degree = strings.TrimSpace(edu.Degree)
		edu.Year = strings.TrimSpace(edu.Year)
		edu.Grade = retrim(edu.Grade)
		doc.Education = append(doc.Education, edu)
	}
	for _, org := range draft.Organizations {
		org.Name = strings.TrimSpace(org.Name)
		org.Role = strings.TrimSpace(org.Role)
		org.Location = strings.TrimSpace(org.Location)
		org.StartDate = strings.TrimSpace(org.StartDate)
		org.EndDate = strings.TrimSpace(org.EndDate)
		org.Descriptions = CleanList(org.Descriptions)
		doc.Organizations = append(doc.Organizations, org)
	}
	for _, cert := range draft.Certifications {
		cert.Name = strings.TrimSpace(cert.Name)
		cert.Issuer = strings.TrimSpace(cert.Issuer)
		cert.Year = strings.TrimSpace(cert.Year)
		doc.Certifications = append(doc.Certifications, cert)
	}

	return doc, nil
}

// CleanList trims every entry and drops blanks. The result never aliases values.
func CleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SplitList splits comma-separated form input into a clean list.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return CleanList(strings.Split(raw, ","))
}

func retrim(o Optional[string]) Optional[string] {
	v, ok := o.Get()
	if !ok {
		return o
	}
	return Text(v)
}
