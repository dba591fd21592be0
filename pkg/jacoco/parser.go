package jacoco

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Parse decodes raw JaCoCo XML into a Report. It is a pure transform:
// callers are responsible for reading the document from wherever it lives.
//
// Error surface: ErrEmptyInput for zero-length input, *ParseError for
// malformed markup, ErrFormatMismatch when the root element is not
// <report>, and *MalformedReportError for well-formed markup missing
// required structural fields.
func Parse(data []byte) (*Report, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	// JaCoCo reports declare a DTD; no external resolution is performed.
	dec.Strict = true

	root, err := firstStartElement(dec)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if root.Name.Local != "report" {
		return nil, fmt.Errorf("%w: got <%s>", ErrFormatMismatch, root.Name.Local)
	}

	var doc xmlReport
	if err := dec.DecodeElement(&doc, root); err != nil {
		return nil, &ParseError{Err: err}
	}

	return buildReport(&doc)
}

// firstStartElement advances the decoder past prolog, comments and
// directives to the document's root element.
func firstStartElement(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("no root element")
			}
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

func buildReport(doc *xmlReport) (*Report, error) {
	report := &Report{Name: doc.Name}

	for pi, pkg := range doc.Packages {
		pkgPath := fmt.Sprintf("report/package[%d]", pi)
		p := PackageInfo{Name: dotted(pkg.Name)}

		lines, err := collectSourceLines(pkg, pkgPath)
		if err != nil {
			return nil, err
		}

		attributions := attributeLines(pkg, lines)

		for ci, cls := range pkg.Classes {
			clsPath := fmt.Sprintf("%s/class[%d]", pkgPath, ci)
			if cls.Name == "" {
				return nil, &MalformedReportError{Path: clsPath, Reason: "missing name attribute"}
			}

			c := ClassInfo{
				Name:       dotted(cls.Name),
				SourceFile: cls.SourceFileName,
			}
			for mi, m := range cls.Methods {
				if m.Name == "" {
					return nil, &MalformedReportError{
						Path:   fmt.Sprintf("%s/method[%d]", clsPath, mi),
						Reason: "missing name attribute",
					}
				}
				c.Methods = append(c.Methods, MethodInfo{
					Name:      m.Name,
					Desc:      m.Desc,
					StartLine: m.Line,
					Lines:     attributions[methodKey{ci, mi}],
				})
			}
			p.Classes = append(p.Classes, c)
		}
		report.Packages = append(report.Packages, p)
	}

	return report, nil
}

// collectSourceLines validates and indexes a package's sourcefile lines by
// file name, sorted ascending. Duplicate line numbers within one file are
// structural corruption.
func collectSourceLines(pkg xmlPackage, pkgPath string) (map[string][]LineInfo, error) {
	out := make(map[string][]LineInfo, len(pkg.SourceFiles))
	for si, sf := range pkg.SourceFiles {
		sfPath := fmt.Sprintf("%s/sourcefile[%d]", pkgPath, si)
		seen := make(map[int]bool, len(sf.Lines))
		lines := make([]LineInfo, 0, len(sf.Lines))
		for li, ln := range sf.Lines {
			if ln.Nr < 1 {
				return nil, &MalformedReportError{
					Path:   fmt.Sprintf("%s/line[%d]", sfPath, li),
					Reason: fmt.Sprintf("line number %d is not positive", ln.Nr),
				}
			}
			if seen[ln.Nr] {
				return nil, &MalformedReportError{
					Path:   fmt.Sprintf("%s/line[%d]", sfPath, li),
					Reason: fmt.Sprintf("duplicate line number %d", ln.Nr),
				}
			}
			seen[ln.Nr] = true
			lines = append(lines, LineInfo{
				Number:              ln.Nr,
				CoveredInstructions: ln.Ci,
				MissedInstructions:  ln.Mi,
				CoveredBranches:     ln.Cb,
				MissedBranches:      ln.Mb,
			})
		}
		sort.Slice(lines, func(a, b int) bool { return lines[a].Number < lines[b].Number })
		out[sf.Name] = lines
	}
	return out, nil
}

// methodKey identifies a method by class and method index within a package.
type methodKey struct {
	class, method int
}

// attributeLines assigns each sourcefile line to the method whose declared
// start line is the greatest one not exceeding it, across all classes that
// share the file. Methods without a start line receive no lines.
func attributeLines(pkg xmlPackage, lines map[string][]LineInfo) map[methodKey][]LineInfo {
	type methodStart struct {
		key   methodKey
		start int
	}

	// Group method starts per source file.
	starts := make(map[string][]methodStart)
	for ci, cls := range pkg.Classes {
		for mi, m := range cls.Methods {
			if m.Line < 1 {
				continue
			}
			starts[cls.SourceFileName] = append(starts[cls.SourceFileName], methodStart{
				key:   methodKey{ci, mi},
				start: m.Line,
			})
		}
	}

	out := make(map[methodKey][]LineInfo)
	for file, ms := range starts {
		sort.Slice(ms, func(a, b int) bool { return ms[a].start < ms[b].start })
		for _, ln := range lines[file] {
			// Find the last method starting at or before this line.
			idx := sort.Search(len(ms), func(i int) bool { return ms[i].start > ln.Number }) - 1
			if idx < 0 {
				continue
			}
			out[ms[idx].key] = append(out[ms[idx].key], ln)
		}
	}
	return out
}

func dotted(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
