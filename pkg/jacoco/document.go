package jacoco

import "encoding/xml"

// Raw JaCoCo XML document shape. Counter elements are decoded but never
// stored on the model: every aggregate is recomputed from line data so the
// tree cannot drift out of sync with itself.

type xmlReport struct {
	XMLName  xml.Name     `xml:"report"`
	Name     string       `xml:"name,attr"`
	Packages []xmlPackage `xml:"package"`
	Counters []xmlCounter `xml:"counter"`
}

type xmlPackage struct {
	Name        string          `xml:"name,attr"`
	Classes     []xmlClass      `xml:"class"`
	SourceFiles []xmlSourceFile `xml:"sourcefile"`
	Counters    []xmlCounter    `xml:"counter"`
}

type xmlClass struct {
	Name           string       `xml:"name,attr"`
	SourceFileName string       `xml:"sourcefilename,attr"`
	Methods        []xmlMethod  `xml:"method"`
	Counters       []xmlCounter `xml:"counter"`
}

type xmlMethod struct {
	Name     string       `xml:"name,attr"`
	Desc     string       `xml:"desc,attr"`
	Line     int          `xml:"line,attr"`
	Counters []xmlCounter `xml:"counter"`
}

type xmlSourceFile struct {
	Name     string       `xml:"name,attr"`
	Lines    []xmlLine    `xml:"line"`
	Counters []xmlCounter `xml:"counter"`
}

type xmlLine struct {
	Nr int `xml:"nr,attr"`
	Mi int `xml:"mi,attr"`
	Ci int `xml:"ci,attr"`
	Mb int `xml:"mb,attr"`
	Cb int `xml:"cb,attr"`
}

type xmlCounter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}
