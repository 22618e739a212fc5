package pptx

import (
	"embed"
	"encoding/xml"
	"fmt"
	"path"
	"strings"
	"time"
)

//go:embed parts/*
var partsFS embed.FS

const (
	relBase        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	relSlide       = relBase + "slide"
	relSlideMaster = relBase + "slideMaster"
	relSlideLayout = relBase + "slideLayout"
	relTheme       = relBase + "theme"
	relImage       = relBase + "image"
	relNotesSlide  = relBase + "notesSlide"
	relNotesMaster = relBase + "notesMaster"
	relPresProps   = relBase + "presProps"
	relViewProps   = relBase + "viewProps"
	relTableStyles = relBase + "tableStyles"
	relOfficeDoc   = relBase + "officeDocument"
	relExtended    = relBase + "extended-properties"
	relCore        = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"

	ctBase        = "application/vnd.openxmlformats-officedocument."
	ctPresMain    = ctBase + "presentationml.presentation.main+xml"
	ctSlide       = ctBase + "presentationml.slide+xml"
	ctSlideMaster = ctBase + "presentationml.slideMaster+xml"
	ctSlideLayout = ctBase + "presentationml.slideLayout+xml"
	ctNotesSlide  = ctBase + "presentationml.notesSlide+xml"
	ctNotesMaster = ctBase + "presentationml.notesMaster+xml"
	ctPresProps   = ctBase + "presentationml.presProps+xml"
	ctViewProps   = ctBase + "presentationml.viewProps+xml"
	ctTableStyles = ctBase + "presentationml.tableStyles+xml"
	ctTheme       = ctBase + "theme+xml"
	ctExtended    = ctBase + "extended-properties+xml"
	ctCore        = "application/vnd.openxmlformats-package.core-properties+xml"
	ctRels        = "application/vnd.openxmlformats-package.relationships+xml"
)

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
}

type part struct {
	name string
	data []byte
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xRelationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Xmlns   string         `xml:"xmlns,attr"`
	Rels    []relationship `xml:"Relationship"`
}

func relsPart(name string, rels []relationship) (part, error) {
	data, err := marshalPart(xRelationships{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships",
		Rels:  rels,
	})
	return part{name: name, data: data}, err
}

type xTypes struct {
	XMLName   xml.Name    `xml:"Types"`
	Xmlns     string      `xml:"xmlns,attr"`
	Defaults  []xDefault  `xml:"Default"`
	Overrides []xOverride `xml:"Override"`
}

type xDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xPresentation struct {
	XMLName          xml.Name           `xml:"p:presentation"`
	XmlnsA           string             `xml:"xmlns:a,attr"`
	XmlnsR           string             `xml:"xmlns:r,attr"`
	XmlnsP           string             `xml:"xmlns:p,attr"`
	SaveSubsetFonts  string             `xml:"saveSubsetFonts,attr"`
	SldMasterIDLst   xSldMasterIDLst    `xml:"p:sldMasterIdLst"`
	NotesMasterIDLst *xNotesMasterIDLst `xml:"p:notesMasterIdLst"`
	SldIDLst         xSldIDLst          `xml:"p:sldIdLst"`
	SldSz            xExt               `xml:"p:sldSz"`
	NotesSz          xExt               `xml:"p:notesSz"`
}

type xSldMasterIDLst struct {
	Items []xIDRef `xml:"p:sldMasterId"`
}

type xNotesMasterIDLst struct {
	Item xRef `xml:"p:notesMasterId"`
}

type xSldIDLst struct {
	Items []xIDRef `xml:"p:sldId"`
}

type xIDRef struct {
	ID  uint32 `xml:"id,attr"`
	RID string `xml:"r:id,attr"`
}

type xRef struct {
	RID string `xml:"r:id,attr"`
}

type xCoreProperties struct {
	XMLName        xml.Name `xml:"cp:coreProperties"`
	XmlnsCP        string   `xml:"xmlns:cp,attr"`
	XmlnsDC        string   `xml:"xmlns:dc,attr"`
	XmlnsDCTerms   string   `xml:"xmlns:dcterms,attr"`
	XmlnsDCMIType  string   `xml:"xmlns:dcmitype,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	Title          string   `xml:"dc:title"`
	Subject        string   `xml:"dc:subject"`
	Creator        string   `xml:"dc:creator"`
	LastModifiedBy string   `xml:"cp:lastModifiedBy"`
	Revision       string   `xml:"cp:revision"`
	Created        xW3CDTF  `xml:"dcterms:created"`
	Modified       xW3CDTF  `xml:"dcterms:modified"`
}

type xW3CDTF struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

type xAppProperties struct {
	XMLName            xml.Name `xml:"Properties"`
	Xmlns              string   `xml:"xmlns,attr"`
	XmlnsVT            string   `xml:"xmlns:vt,attr"`
	Application        string   `xml:"Application"`
	PresentationFormat string   `xml:"PresentationFormat"`
	Slides             int      `xml:"Slides"`
	Notes              int      `xml:"Notes"`
	Company            string   `xml:"Company,omitempty"`
	AppVersion         string   `xml:"AppVersion"`
}

func staticPart(src, name string) (part, error) {
	data, err := partsFS.ReadFile("parts/" + src)
	if err != nil {
		return part{}, fmt.Errorf("missing embedded part %s: %w", src, err)
	}
	return part{name: name, data: data}, nil
}

// parts renders every package part in write order.
func (p *Presentation) parts() ([]part, error) {
	withNotes := p.hasNotes()
	var out []part
	add := func(pt part, err error) error {
		if err != nil {
			return err
		}
		out = append(out, pt)
		return nil
	}
	xmlPart := func(name string, v any) error {
		data, err := marshalPart(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		out = append(out, part{name: name, data: data})
		return nil
	}

	if err := xmlPart("[Content_Types].xml", p.contentTypes(withNotes)); err != nil {
		return nil, err
	}
	if err := add(relsPart("_rels/.rels", []relationship{
		{ID: "rId1", Type: relOfficeDoc, Target: "ppt/presentation.xml"},
		{ID: "rId2", Type: relCore, Target: "docProps/core.xml"},
		{ID: "rId3", Type: relExtended, Target: "docProps/app.xml"},
	})); err != nil {
		return nil, err
	}
	if err := xmlPart("docProps/core.xml", p.coreProperties()); err != nil {
		return nil, err
	}
	if err := xmlPart("docProps/app.xml", p.appProperties()); err != nil {
		return nil, err
	}

	pres, presRels := p.presentation(withNotes)
	if err := xmlPart("ppt/presentation.xml", pres); err != nil {
		return nil, err
	}
	if err := add(relsPart("ppt/_rels/presentation.xml.rels", presRels)); err != nil {
		return nil, err
	}

	statics := [][2]string{
		{"presProps.xml", "ppt/presProps.xml"},
		{"viewProps.xml", "ppt/viewProps.xml"},
		{"tableStyles.xml", "ppt/tableStyles.xml"},
		{"theme.xml", "ppt/theme/theme1.xml"},
		{"slideMaster.xml", "ppt/slideMasters/slideMaster1.xml"},
		{"slideMaster.xml.rels", "ppt/slideMasters/_rels/slideMaster1.xml.rels"},
		{"slideLayout.xml", "ppt/slideLayouts/slideLayout1.xml"},
		{"slideLayout.xml.rels", "ppt/slideLayouts/_rels/slideLayout1.xml.rels"},
	}
	if withNotes {
		statics = append(statics,
			[2]string{"notesMaster.xml", "ppt/notesMasters/notesMaster1.xml"},
			[2]string{"notesMaster.xml.rels", "ppt/notesMasters/_rels/notesMaster1.xml.rels"},
			[2]string{"theme.xml", "ppt/theme/theme2.xml"},
		)
	}
	for _, s := range statics {
		if err := add(staticPart(s[0], s[1])); err != nil {
			return nil, err
		}
	}

	for _, s := range p.slides {
		slideRels := append([]relationship{{ID: "rId1", Type: relSlideLayout, Target: "../slideLayouts/slideLayout1.xml"}}, s.rels...)
		if s.notes != "" {
			slideRels = append(slideRels, relationship{
				ID:     fmt.Sprintf("rId%d", len(slideRels)+1),
				Type:   relNotesSlide,
				Target: fmt.Sprintf("../notesSlides/notesSlide%d.xml", s.number),
			})
		}
		if err := xmlPart(fmt.Sprintf("ppt/slides/slide%d.xml", s.number), s.document()); err != nil {
			return nil, err
		}
		if err := add(relsPart(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.number), slideRels)); err != nil {
			return nil, err
		}
		if s.notes == "" {
			continue
		}
		if err := xmlPart(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", s.number), s.notesDocument()); err != nil {
			return nil, err
		}
		if err := add(relsPart(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", s.number), []relationship{
			{ID: "rId1", Type: relNotesMaster, Target: "../notesMasters/notesMaster1.xml"},
			{ID: "rId2", Type: relSlide, Target: fmt.Sprintf("../slides/slide%d.xml", s.number)},
		})); err != nil {
			return nil, err
		}
	}

	for _, m := range p.media {
		out = append(out, part{name: "ppt/media/" + m.name, data: m.data})
	}
	return out, nil
}

func (p *Presentation) contentTypes(withNotes bool) xTypes {
	t := xTypes{
		Xmlns: "http://schemas.openxmlformats.org/package/2006/content-types",
		Defaults: []xDefault{
			{Extension: "rels", ContentType: ctRels},
			{Extension: "xml", ContentType: "application/xml"},
		},
	}
	seen := make(map[string]bool)
	for _, m := range p.media {
		ext := path.Ext(m.name)[1:]
		if seen[ext] {
			continue
		}
		seen[ext] = true
		t.Defaults = append(t.Defaults, xDefault{Extension: ext, ContentType: m.contentType})
	}

	override := func(name, ct string) {
		t.Overrides = append(t.Overrides, xOverride{PartName: name, ContentType: ct})
	}
	override("/ppt/presentation.xml", ctPresMain)
	override("/ppt/presProps.xml", ctPresProps)
	override("/ppt/viewProps.xml", ctViewProps)
	override("/ppt/tableStyles.xml", ctTableStyles)
	override("/ppt/theme/theme1.xml", ctTheme)
	override("/ppt/slideMasters/slideMaster1.xml", ctSlideMaster)
	override("/ppt/slideLayouts/slideLayout1.xml", ctSlideLayout)
	if withNotes {
		override("/ppt/notesMasters/notesMaster1.xml", ctNotesMaster)
		override("/ppt/theme/theme2.xml", ctTheme)
	}
	for _, s := range p.slides {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", s.number), ctSlide)
		if s.notes != "" {
			override(fmt.Sprintf("/ppt/notesSlides/notesSlide%d.xml", s.number), ctNotesSlide)
		}
	}
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctExtended)
	return t
}

func (p *Presentation) presentation(withNotes bool) (xPresentation, []relationship) {
	rels := []relationship{{ID: "rId1", Type: relSlideMaster, Target: "slideMasters/slideMaster1.xml"}}
	pres := xPresentation{
		XmlnsA:          nsA,
		XmlnsR:          nsR,
		XmlnsP:          nsP,
		SaveSubsetFonts: "1",
		SldMasterIDLst:  xSldMasterIDLst{Items: []xIDRef{{ID: 2147483648, RID: "rId1"}}},
		SldSz:           xExt{Cx: p.Layout.WidthEMU, Cy: p.Layout.HeightEMU},
		NotesSz:         xExt{Cx: 6858000, Cy: 9144000},
	}
	for i, s := range p.slides {
		rid := fmt.Sprintf("rId%d", i+2)
		rels = append(rels, relationship{ID: rid, Type: relSlide, Target: fmt.Sprintf("slides/slide%d.xml", s.number)})
		pres.SldIDLst.Items = append(pres.SldIDLst.Items, xIDRef{ID: uint32(256 + i), RID: rid})
	}

	next := func() string { return fmt.Sprintf("rId%d", len(rels)+1) }
	rels = append(rels,
		relationship{ID: next(), Type: relTheme, Target: "theme/theme1.xml"},
	)
	rels = append(rels, relationship{ID: next(), Type: relPresProps, Target: "presProps.xml"})
	rels = append(rels, relationship{ID: next(), Type: relViewProps, Target: "viewProps.xml"})
	rels = append(rels, relationship{ID: next(), Type: relTableStyles, Target: "tableStyles.xml"})
	if withNotes {
		rid := next()
		rels = append(rels, relationship{ID: rid, Type: relNotesMaster, Target: "notesMasters/notesMaster1.xml"})
		pres.NotesMasterIDLst = &xNotesMasterIDLst{Item: xRef{RID: rid}}
	}
	return pres, rels
}

func (p *Presentation) coreProperties() xCoreProperties {
	stamp := p.Created.UTC().Format(time.RFC3339)
	return xCoreProperties{
		XmlnsCP:        "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		XmlnsDC:        "http://purl.org/dc/elements/1.1/",
		XmlnsDCTerms:   "http://purl.org/dc/terms/",
		XmlnsDCMIType:  "http://purl.org/dc/dcmitype/",
		XmlnsXSI:       "http://www.w3.org/2001/XMLSchema-instance",
		Title:          p.Title,
		Subject:        p.Subject,
		Creator:        p.Author,
		LastModifiedBy: p.Author,
		Revision:       "1",
		Created:        xW3CDTF{Type: "dcterms:W3CDTF", Value: stamp},
		Modified:       xW3CDTF{Type: "dcterms:W3CDTF", Value: stamp},
	}
}

func (p *Presentation) appProperties() xAppProperties {
	notes := 0
	for _, s := range p.slides {
		if s.notes != "" {
			notes++
		}
	}
	return xAppProperties{
		Xmlns:              "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties",
		XmlnsVT:            "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes",
		Application:        "html2deck",
		PresentationFormat: p.Layout.Title,
		Slides:             len(p.slides),
		Notes:              notes,
		Company:            p.Company,
		AppVersion:         "16.0000",
	}
}

func (s *Slide) document() xSlide {
	doc := xSlide{
		XmlnsA: nsA,
		XmlnsR: nsR,
		XmlnsP: nsP,
		CSld:   xCSld{SpTree: spTree(s.nodes)},
	}
	if s.background != nil {
		doc.CSld.Bg = &xBg{BgPr: s.background}
	}
	return doc
}

func (s *Slide) notesDocument() xNotes {
	image := xShape{
		NvSpPr: xNvSpPr{
			CNvPr:   xCNvPr{ID: 2, Name: "Slide Image Placeholder 1"},
			CNvSpPr: xCNvSpPr{SpLocks: &xSpLocks{NoGrp: "1", NoRot: "1", NoChangeAspect: "1"}},
			NvPr:    xNvPr{Ph: &xPh{Type: "sldImg"}},
		},
		SpPr: xSpPr{
			Xfrm: &xXfrm{Off: xOff{X: 685800, Y: 1143000}, Ext: xExt{Cx: 5486400, Cy: 3086100}},
			Geom: xPrstGeom{Prst: "rect"},
		},
	}
	body := xShape{
		NvSpPr: xNvSpPr{
			CNvPr:   xCNvPr{ID: 3, Name: "Notes Placeholder 2"},
			CNvSpPr: xCNvSpPr{SpLocks: &xSpLocks{NoGrp: "1"}},
			NvPr:    xNvPr{Ph: &xPh{Type: "body", Idx: "1"}},
		},
		SpPr: xSpPr{
			Xfrm: &xXfrm{Off: xOff{X: 685800, Y: 4400550}, Ext: xExt{Cx: 5486400, Cy: 3600450}},
			Geom: xPrstGeom{Prst: "rect"},
		},
		TxBody: &xTxBody{},
	}
	for _, line := range strings.Split(s.notes, "\n") {
		line = strings.TrimSuffix(line, "\r")
		body.TxBody.Paragraphs = append(body.TxBody.Paragraphs, paragraph([]TextRun{{Text: line}}, TextOptions{}, nil))
	}
	return xNotes{
		XmlnsA: nsA,
		XmlnsR: nsR,
		XmlnsP: nsP,
		CSld:   xCSld{SpTree: spTree([]any{image, body})},
	}
}
