package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// wtTag matches <w:t>text</w:t> or <w:t xml:space="preserve">text</w:t> (and any other attributes).
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpTag matches paragraph boundaries so paragraphs become separate lines.
var wpTag = regexp.MustCompile(`</w:p>`)

// extractDOCX pulls the text runs out of the main document part of a DOCX
// package.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document part: %w", err)
		}

		xml := wpTag.ReplaceAllString(buf.String(), "\n")
		var out strings.Builder
		for _, m := range wtTag.FindAllStringSubmatch(xml, -1) {
			out.WriteString(unescapeXML(m[1]))
			out.WriteByte(' ')
		}
		return strings.TrimSpace(out.String()), nil
	}
	return "", fmt.Errorf("DOCX has no %s", docxDocumentXMLPath)
}

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func unescapeXML(s string) string {
	return xmlUnescaper.Replace(s)
}
