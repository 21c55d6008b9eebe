package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

var knownNamespaces = map[string]string{
	wmlNamespace: "w",
	relNamespace: "r",
	wpNamespace:  "wp",
	aNamespace:   "a",
	picNamespace: "pic",
	xmlNamespace: "xml",
}

// validateDocumentXMLStrict checks that document.xml is well formed and that
// every prefix resolves to a declared namespace.
func validateDocumentXMLStrict(xmlText string) error {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("document.xml parse failed: %w\n%s", err, firstLines(xmlText, 5))
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if err := checkNamespace(start.Name, "element"); err != nil {
			return err
		}
		for _, attr := range start.Attr {
			if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
				continue
			}
			if err := checkNamespace(attr.Name, "attribute"); err != nil {
				return err
			}
		}
	}
}

// validateDocumentXMLStructure rejects nested paragraphs and run properties
// placed after run text, both of which Word refuses to open.
func validateDocumentXMLStructure(xmlText string) error {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	var stack []xml.Name
	type runState struct {
		seenText bool
	}
	var runs []runState

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("document.xml parse failed: %w\n%s", err, firstLines(xmlText, 5))
		}
		switch t := token.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			if isWmlElement(t.Name, "p") {
				for i := len(stack) - 2; i >= 0; i-- {
					if isWmlElement(stack[i], "p") {
						return fmt.Errorf("document.xml has nested <w:p>")
					}
				}
			}
			if isWmlElement(t.Name, "r") {
				runs = append(runs, runState{})
			}
			if isWmlElement(t.Name, "t") && len(runs) > 0 {
				runs[len(runs)-1].seenText = true
			}
			if isWmlElement(t.Name, "rPr") && len(runs) > 0 && runs[len(runs)-1].seenText {
				return fmt.Errorf("document.xml has <w:rPr> after <w:t> in a run")
			}
		case xml.EndElement:
			if isWmlElement(t.Name, "r") && len(runs) > 0 {
				runs = runs[:len(runs)-1]
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}

func isWmlElement(name xml.Name, local string) bool {
	return name.Local == local && name.Space == wmlNamespace
}

func checkNamespace(name xml.Name, kind string) error {
	if name.Space == "" {
		return nil
	}
	if _, ok := knownNamespaces[name.Space]; ok {
		return nil
	}
	return fmt.Errorf("document.xml %s %s:%s uses an undeclared namespace", kind, name.Space, name.Local)
}

func firstLines(text string, count int) string {
	lines := strings.SplitN(text, "\n", count+1)
	if len(lines) > count {
		lines = lines[:count]
	}
	return strings.Join(lines, "\n")
}
