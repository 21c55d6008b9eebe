package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
)

var htmlTemplate = template.Must(template.New("cv").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 0.75in; }
body { font-family: Calibri, Arial, sans-serif; font-size: 10pt; color: #111111; }
h1 { font-size: 12pt; color: #{{.HeadingColor}}; margin: 14pt 0 4pt; }
h2 { font-size: 11pt; margin: 8pt 0 2pt; }
p { margin: 0 0 4pt; }
ul { margin: 0 0 4pt; padding-left: 18pt; }
table.header { border-collapse: collapse; margin-bottom: 10pt; }
table.header td { vertical-align: top; padding: 0 12pt 0 0; }
.name { font-size: 16pt; font-weight: bold; }
</style>
</head>
<body>
{{range .Blocks}}{{if eq .Kind "header"}}{{with .Header}}<table class="header"><tr>
<td>{{if $.Photo}}<img src="{{$.Photo}}" style="width:1.5in" alt="">{{end}}</td>
<td><p class="name">{{.Name}}</p>{{range .Lines}}<p>{{.}}</p>{{end}}</td>
</tr></table>
{{end}}{{else if eq .Kind "heading"}}{{if eq .Level 1}}<h1>{{.Text}}</h1>{{else}}<h2>{{.Text}}</h2>{{end}}
{{else if eq .Kind "bullets"}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
{{else}}<p>{{.Text}}</p>
{{end}}{{end}}</body>
</html>
`))

// HTML renders blocks as a printable page. The photo is inlined as a data URI.
func HTML(blocks []Block) ([]byte, error) {
	data := struct {
		Title        string
		HeadingColor string
		Blocks       []Block
		Photo        template.URL
	}{
		Title:        "Curriculum Vitae",
		HeadingColor: HeadingColor,
		Blocks:       blocks,
	}
	if photo := headerPhoto(blocks); photo != nil {
		data.Photo = template.URL(fmt.Sprintf("data:%s;base64,%s", photo.contentType(), base64.StdEncoding.EncodeToString(photo.Data)))
	}
	for _, b := range blocks {
		if b.Kind == KindHeader && b.Header != nil && b.Header.Name != "" {
			data.Title = b.Header.Name
		}
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
