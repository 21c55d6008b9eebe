package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
)

// ReadBlocks recovers the block layout from a DOCX produced by Render. It
// understands the paragraph styles, bullet numbering and header table this
// package writes; foreign documents degrade to plain paragraphs.
func ReadBlocks(docx []byte) ([]Block, error) {
	reader, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var (
		documentFile *zip.File
		photo        *Image
	)
	for _, f := range reader.File {
		switch {
		case f.Name == "word/document.xml":
			documentFile = f
		case strings.HasPrefix(f.Name, "word/media/"):
			if img, err := readImage(f); err == nil && photo == nil {
				photo = img
			}
		}
	}
	if documentFile == nil {
		return nil, errors.New("docx has no word/document.xml")
	}

	content, err := readZipFile(documentFile)
	if err != nil {
		return nil, err
	}
	return parseDocument(content, photo)
}

type parsedParagraph struct {
	style  string
	bullet bool
	text   strings.Builder
}

func parseDocument(content []byte, photo *Image) ([]Block, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var (
		blocks     []Block
		header     *Header
		para       *parsedParagraph
		inText     bool
		tableDepth int
		cellIndex  int
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != wmlNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if header == nil {
					header = &Header{Photo: photo}
				}
			case "tr":
				cellIndex = -1
			case "tc":
				cellIndex++
			case "p":
				para = &parsedParagraph{}
			case "pStyle":
				if para != nil {
					para.style = attrValue(t, "val")
				}
			case "numPr":
				if para != nil {
					para.bullet = true
				}
			case "t":
				inText = true
			}
		case xml.CharData:
			if inText && para != nil {
				para.text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wmlNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "tbl":
				tableDepth--
				if tableDepth == 0 && header != nil && len(blocks) == 0 {
					blocks = append(blocks, Block{Kind: KindHeader, Header: header})
				}
			case "p":
				if para == nil {
					continue
				}
				text := para.text.String()
				if tableDepth > 0 {
					if cellIndex > 0 && text != "" {
						if header.Name == "" {
							header.Name = text
						} else {
							header.Lines = append(header.Lines, text)
						}
					}
				} else {
					blocks = appendParagraph(blocks, para, text)
				}
				para = nil
			}
		}
	}
	return blocks, nil
}

func appendParagraph(blocks []Block, para *parsedParagraph, text string) []Block {
	if text == "" {
		return blocks
	}
	switch {
	case para.style == "Heading1":
		return append(blocks, heading(1, text))
	case para.style == "Heading2":
		return append(blocks, heading(2, text))
	case para.bullet || para.style == listBulletStyle:
		if n := len(blocks); n > 0 && blocks[n-1].Kind == KindBullets {
			blocks[n-1].Items = append(blocks[n-1].Items, text)
			return blocks
		}
		return append(blocks, Block{Kind: KindBullets, Items: []string{text}})
	default:
		return append(blocks, paragraph(text))
	}
}

func attrValue(start xml.StartElement, local string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

func readImage(f *zip.File) (*Image, error) {
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return content, nil
}
