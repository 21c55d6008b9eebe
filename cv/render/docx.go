package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const (
	wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	wpNamespace  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	aNamespace   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	picNamespace = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	relTypeBase      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	PhotoWidthInch   = 1.5
	emuPerInch       = 914400
	bulletNumID      = 1
	photoRelID       = "rIdPhoto"
	listBulletStyle  = "ListBullet"
	photoColumnTwips = 2400
	textColumnTwips  = 7200
)

// zipEpoch pins entry timestamps so identical input yields identical bytes.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type part struct {
	name    string
	content []byte
}

// buildDOCX assembles the OOXML package for the given blocks.
func buildDOCX(blocks []Block) ([]byte, error) {
	photo := headerPhoto(blocks)

	documentXML := documentXML(blocks)
	if err := validateDocumentXMLStrict(documentXML); err != nil {
		return nil, err
	}
	if err := validateDocumentXMLStructure(documentXML); err != nil {
		return nil, err
	}

	parts := []part{
		{"[Content_Types].xml", []byte(contentTypesXML(photo))},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", []byte(documentXML)},
		{"word/styles.xml", []byte(stylesXML())},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML(photo))},
	}
	if photo != nil {
		parts = append(parts, part{"word/media/image1." + photo.extension(), photo.Data})
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	for _, p := range parts {
		if err := writeZipPart(writer, p); err != nil {
			writer.Close()
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

func writeZipPart(writer *zip.Writer, p part) error {
	header := &zip.FileHeader{
		Name:     p.name,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	dst, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = dst.Write(p.content)
	return err
}

func headerPhoto(blocks []Block) *Image {
	for _, b := range blocks {
		if b.Kind == KindHeader && b.Header != nil {
			return b.Header.Photo
		}
	}
	return nil
}

func documentXML(blocks []Block) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	fmt.Fprintf(&sb, `<w:document xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s"><w:body>`,
		wmlNamespace, relNamespace, wpNamespace, aNamespace, picNamespace)

	for _, b := range blocks {
		switch b.Kind {
		case KindHeader:
			writeHeaderTable(&sb, b.Header)
		case KindHeading:
			style, runStyle := "Heading1", StyleMap["sectionHeading"]
			if b.Level == 2 {
				style, runStyle = "Heading2", StyleMap["subHeading"]
			}
			writeParagraph(&sb, style, b.Text, runStyle, false)
		case KindParagraph:
			writeParagraph(&sb, "", b.Text, StyleMap["body"], false)
		case KindBullets:
			for _, item := range b.Items {
				writeParagraph(&sb, listBulletStyle, item, StyleMap["body"], true)
			}
		}
	}

	sb.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>`)
	sb.WriteString(`<w:pgMar w:top="1080" w:right="1080" w:bottom="1080" w:left="1080" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`)
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}

func writeHeaderTable(sb *strings.Builder, h *Header) {
	if h == nil {
		return
	}
	sb.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(sb, `<w:%s w:val="nil"/>`, edge)
	}
	sb.WriteString(`</w:tblBorders><w:tblLook w:val="0000"/></w:tblPr>`)
	fmt.Fprintf(sb, `<w:tblGrid><w:gridCol w:w="%d"/><w:gridCol w:w="%d"/></w:tblGrid><w:tr>`, photoColumnTwips, textColumnTwips)

	fmt.Fprintf(sb, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr><w:p>`, photoColumnTwips)
	if h.Photo != nil {
		sb.WriteString(`<w:r>`)
		writeDrawing(sb, h.Photo)
		sb.WriteString(`</w:r>`)
	}
	sb.WriteString(`</w:p></w:tc>`)

	fmt.Fprintf(sb, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr>`, textColumnTwips)
	writeParagraph(sb, "", h.Name, StyleMap["name"], false)
	for _, line := range h.Lines {
		writeParagraph(sb, "", line, StyleMap["body"], false)
	}
	sb.WriteString(`</w:tc></w:tr></w:tbl>`)
	// spacer between the header table and the first section
	sb.WriteString(`<w:p/>`)
}

func writeDrawing(sb *strings.Builder, img *Image) {
	cx, cy := img.extentEMU()
	fmt.Fprintf(sb, `<w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0"><wp:extent cx="%d" cy="%d"/>`, cx, cy)
	sb.WriteString(`<wp:docPr id="1" name="Photo"/><wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	fmt.Fprintf(sb, `<a:graphic><a:graphicData uri="%s"><pic:pic>`, picNamespace)
	fmt.Fprintf(sb, `<pic:nvPicPr><pic:cNvPr id="0" name="image1.%s"/><pic:cNvPicPr/></pic:nvPicPr>`, img.extension())
	fmt.Fprintf(sb, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, photoRelID)
	fmt.Fprintf(sb, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, cx, cy)
	sb.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`)
}

func writeParagraph(sb *strings.Builder, style, text string, rs RunStyle, bullet bool) {
	sb.WriteString(`<w:p>`)
	if style != "" || bullet {
		sb.WriteString(`<w:pPr>`)
		if style != "" {
			fmt.Fprintf(sb, `<w:pStyle w:val="%s"/>`, style)
		}
		if bullet {
			fmt.Fprintf(sb, `<w:numPr><w:ilvl w:val="0"/><w:numId w:val="%d"/></w:numPr>`, bulletNumID)
		}
		sb.WriteString(`</w:pPr>`)
	}
	if text != "" {
		sb.WriteString(`<w:r>`)
		writeRunProps(sb, rs)
		sb.WriteString(`<w:t xml:space="preserve">`)
		escape(sb, text)
		sb.WriteString(`</w:t></w:r>`)
	}
	sb.WriteString(`</w:p>`)
}

func writeRunProps(sb *strings.Builder, rs RunStyle) {
	if rs == (RunStyle{}) {
		return
	}
	sb.WriteString(`<w:rPr>`)
	if rs.Bold {
		sb.WriteString(`<w:b/>`)
	}
	if rs.Italic {
		sb.WriteString(`<w:i/>`)
	}
	if rs.Color != "" {
		fmt.Fprintf(sb, `<w:color w:val="%s"/>`, rs.Color)
	}
	if rs.Size > 0 {
		fmt.Fprintf(sb, `<w:sz w:val="%d"/>`, rs.Size)
	}
	sb.WriteString(`</w:rPr>`)
}

func escape(sb *strings.Builder, text string) {
	// xml.EscapeText only fails when the writer does
	_ = xml.EscapeText(sb, []byte(text))
}

func contentTypesXML(photo *Image) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	if photo != nil {
		fmt.Fprintf(&sb, `<Default Extension="%s" ContentType="%s"/>`, photo.extension(), photo.contentType())
	}
	sb.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	sb.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	sb.WriteString(`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>`)
	sb.WriteString(`</Types>`)
	return sb.String()
}

const packageRelsXML = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relTypeBase + `officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func documentRelsXML(photo *Image) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rIdStyles" Type="` + relTypeBase + `styles" Target="styles.xml"/>`)
	sb.WriteString(`<Relationship Id="rIdNumbering" Type="` + relTypeBase + `numbering" Target="numbering.xml"/>`)
	if photo != nil {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%simage" Target="media/image1.%s"/>`, photoRelID, relTypeBase, photo.extension())
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func stylesXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	fmt.Fprintf(&sb, `<w:styles xmlns:w="%s">`, wmlNamespace)
	fmt.Fprintf(&sb, `<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="%d"/></w:rPr></w:rPrDefault>`, BodySize)
	sb.WriteString(`<w:pPrDefault><w:pPr><w:spacing w:after="80" w:line="264" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)
	sb.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	writeStyle(&sb, "Heading1", "heading 1", `<w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="0"/>`, StyleMap["sectionHeading"])
	writeStyle(&sb, "Heading2", "heading 2", `<w:spacing w:before="160" w:after="40"/><w:outlineLvl w:val="1"/>`, StyleMap["subHeading"])
	fmt.Fprintf(&sb, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:numPr><w:numId w:val="%d"/></w:numPr><w:ind w:left="360" w:hanging="360"/></w:pPr></w:style>`, listBulletStyle, bulletNumID)
	sb.WriteString(`</w:styles>`)
	return sb.String()
}

func writeStyle(sb *strings.Builder, id, name, pPr string, rs RunStyle) {
	fmt.Fprintf(sb, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="%s"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`, id, name)
	sb.WriteString(`<w:pPr><w:keepNext/>` + pPr + `</w:pPr>`)
	writeRunProps(sb, rs)
	sb.WriteString(`</w:style>`)
}

const numberingXML = xml.Header +
	`<w:numbering xmlns:w="` + wmlNamespace + `">` +
	`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/>` +
	`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/>` +
	`<w:pPr><w:ind w:left="360" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>` +
	`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
	`</w:numbering>`
