package model

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed request_schema.json
var requestSchema string

// ErrMalformedRequest is returned when the request body does not match the schema.
var ErrMalformedRequest = errors.New("malformed request")

// Request is the collector-agnostic generation request. List-valued fields
// arrive as comma-separated text, the way form collectors submit them.
type Request struct {
	FullName       string                 `json:"fullName"`
	Phone          string                 `json:"phone"`
	Email          string                 `json:"email"`
	Location       string                 `json:"location,omitempty"`
	LinkedIn       string                 `json:"linkedin,omitempty"`
	Portfolio      string                 `json:"portfolio,omitempty"`
	Summary        string                 `json:"summary,omitempty"`
	Experience     []ExperienceRequest    `json:"experience,omitempty"`
	Education      []EducationRequest     `json:"education,omitempty"`
	Organizations  []OrganizationRequest  `json:"organizations,omitempty"`
	Certifications []CertificationRequest `json:"certifications,omitempty"`
	HardSkills     string                 `json:"hardSkills,omitempty"`
	SoftSkills     string                 `json:"softSkills,omitempty"`
	Tools          string                 `json:"tools,omitempty"`
	Achievements   string                 `json:"achievements,omitempty"`
	JobDescription string                 `json:"jobDescription,omitempty"`
	Variant        string                 `json:"variant,omitempty"`
	Format         string                 `json:"format,omitempty"`
}

// ExperienceRequest is one repeated experience block.
type ExperienceRequest struct {
	Company   string `json:"company"`
	Title     string `json:"title"`
	Location  string `json:"location,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Tasks     string `json:"tasks,omitempty"`
}

// EducationRequest is one repeated education block.
type EducationRequest struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year,omitempty"`
	Grade  string `json:"grade,omitempty"`
}

// OrganizationRequest is one repeated organization block.
type OrganizationRequest struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Location     string `json:"location,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Descriptions string `json:"descriptions,omitempty"`
}

// CertificationRequest is one repeated certification block.
type CertificationRequest struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Year   string `json:"year,omitempty"`
}

// DecodeRequest checks raw JSON against the request schema and decodes it.
func DecodeRequest(raw []byte) (Request, error) {
	if err := ValidateRequestJSON(raw); err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return req, nil
}

// ValidateRequestJSON reports shape and type problems. Required-field checks
// are left to New so they surface as validation errors.
func ValidateRequestJSON(raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("%w: invalid json body", ErrMalformedRequest)
	}
	schemaLoader := gojsonschema.NewStringLoader(requestSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformedRequest, strings.Join(msgs, "; "))
}

// Draft converts the request into an unvalidated Document.
func (r Request) Draft() Document {
	doc := Document{
		Profile: PersonalProfile{
			FullName:  r.FullName,
			Phone:     r.Phone,
			Email:     r.Email,
			Location:  Text(r.Location),
			LinkedIn:  Text(r.LinkedIn),
			Portfolio: Text(r.Portfolio),
		},
		Summary: Text(r.Summary),
		Skills: SkillSet{
			Hard:  SplitList(r.HardSkills),
			Soft:  SplitList(r.SoftSkills),
			Tools: SplitList(r.Tools),
		},
		Achievements: SplitList(r.Achievements),
	}
	for _, exp := range r.Experience {
		doc.Experience = append(doc.Experience, ExperienceEntry{
			Company:   exp.Company,
			Title:     exp.Title,
			Location:  exp.Location,
			StartDate: exp.StartDate,
			EndDate:   exp.EndDate,
			Tasks:     SplitList(exp.Tasks),
		})
	}
	for _, edu := range r.Education {
		doc.Education = append(doc.Education, EducationEntry{
			School: edu.School,
			Degree: edu.Degree,
			Year:   edu.Year,
			Grade:  Text(edu.Grade),
		})
	}
	for _, org := range r.Organizations {
		doc.Organizations = append(doc.Organizations, OrganizationEntry{
			Name:         org.Name,
			Role:         org.Role,
			Location:     org.Location,
			StartDate:    org.StartDate,
			EndDate:      org.EndDate,
			Descriptions: SplitList(org.Descriptions),
		})
	}
	for _, cert := range r.Certifications {
		doc.Certifications = append(doc.Certifications, CertificationEntry{
			Name:   cert.Name,
			Issuer: cert.Issuer,
			Year:   cert.Year,
		})
	}
	return doc
}
