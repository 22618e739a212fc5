package pptx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

func marshalPart(v any) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), out...), nil
}

type xSlide struct {
	XMLName   xml.Name   `xml:"p:sld"`
	XmlnsA    string     `xml:"xmlns:a,attr"`
	XmlnsR    string     `xml:"xmlns:r,attr"`
	XmlnsP    string     `xml:"xmlns:p,attr"`
	CSld      xCSld      `xml:"p:cSld"`
	ClrMapOvr xClrMapOvr `xml:"p:clrMapOvr"`
}

type xNotes struct {
	XMLName   xml.Name   `xml:"p:notes"`
	XmlnsA    string     `xml:"xmlns:a,attr"`
	XmlnsR    string     `xml:"xmlns:r,attr"`
	XmlnsP    string     `xml:"xmlns:p,attr"`
	CSld      xCSld      `xml:"p:cSld"`
	ClrMapOvr xClrMapOvr `xml:"p:clrMapOvr"`
}

type xClrMapOvr struct {
	MasterClrMapping struct{} `xml:"a:masterClrMapping"`
}

type xCSld struct {
	Bg     *xBg    `xml:"p:bg"`
	SpTree xSpTree `xml:"p:spTree"`
}

type xBg struct {
	BgPr *xBgPr `xml:"p:bgPr"`
}

type xBgPr struct {
	Fill      *xSolidFill `xml:"a:solidFill"`
	BlipFill  *xBlipFill  `xml:"a:blipFill"`
	EffectLst struct{}    `xml:"a:effectLst"`
}

type xSpTree struct {
	NvGrpSpPr xNvGrpSpPr `xml:"p:nvGrpSpPr"`
	GrpSpPr   xGrpSpPr   `xml:"p:grpSpPr"`
	Nodes     []any
}

type xNvGrpSpPr struct {
	CNvPr      xCNvPr   `xml:"p:cNvPr"`
	CNvGrpSpPr struct{} `xml:"p:cNvGrpSpPr"`
	NvPr       xNvPr    `xml:"p:nvPr"`
}

type xGrpSpPr struct {
	Xfrm xGrpXfrm `xml:"a:xfrm"`
}

type xGrpXfrm struct {
	Off   xOff `xml:"a:off"`
	Ext   xExt `xml:"a:ext"`
	ChOff xOff `xml:"a:chOff"`
	ChExt xExt `xml:"a:chExt"`
}

func spTree(nodes []any) xSpTree {
	return xSpTree{
		NvGrpSpPr: xNvGrpSpPr{CNvPr: xCNvPr{ID: 1}},
		Nodes:     nodes,
	}
}

type xShape struct {
	XMLName xml.Name `xml:"p:sp"`
	NvSpPr  xNvSpPr  `xml:"p:nvSpPr"`
	SpPr    xSpPr    `xml:"p:spPr"`
	TxBody  *xTxBody `xml:"p:txBody"`
}

type xNvSpPr struct {
	CNvPr   xCNvPr   `xml:"p:cNvPr"`
	CNvSpPr xCNvSpPr `xml:"p:cNvSpPr"`
	NvPr    xNvPr    `xml:"p:nvPr"`
}

type xCNvPr struct {
	ID    int    `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr,omitempty"`
}

type xCNvSpPr struct {
	TxBox   string    `xml:"txBox,attr,omitempty"`
	SpLocks *xSpLocks `xml:"a:spLocks"`
}

type xSpLocks struct {
	NoGrp          string `xml:"noGrp,attr,omitempty"`
	NoRot          string `xml:"noRot,attr,omitempty"`
	NoChangeAspect string `xml:"noChangeAspect,attr,omitempty"`
}

type xNvPr struct {
	Ph *xPh `xml:"p:ph"`
}

type xPh struct {
	Type string `xml:"type,attr,omitempty"`
	Idx  string `xml:"idx,attr,omitempty"`
}

func nvSpPr(id int, name string, txBox bool) xNvSpPr {
	nv := xNvSpPr{CNvPr: xCNvPr{ID: id, Name: name}}
	if txBox {
		nv.CNvSpPr.TxBox = "1"
	}
	return nv
}

type xSpPr struct {
	Xfrm      *xXfrm      `xml:"a:xfrm"`
	Geom      xPrstGeom   `xml:"a:prstGeom"`
	NoFill    *struct{}   `xml:"a:noFill"`
	SolidFill *xSolidFill `xml:"a:solidFill"`
	Ln        *xLn        `xml:"a:ln"`
	EffectLst *xEffectLst `xml:"a:effectLst"`
}

type xXfrm struct {
	Rot   string `xml:"rot,attr,omitempty"`
	FlipH string `xml:"flipH,attr,omitempty"`
	FlipV string `xml:"flipV,attr,omitempty"`
	Off   xOff   `xml:"a:off"`
	Ext   xExt   `xml:"a:ext"`
}

type xOff struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type xExt struct {
	Cx int64 `xml:"cx,attr"`
	Cy int64 `xml:"cy,attr"`
}

func xfrm(x, y, w, h, rotate float64) *xXfrm {
	xf := &xXfrm{
		Off: xOff{X: inToEMU(x), Y: inToEMU(y)},
		Ext: xExt{Cx: inToEMU(w), Cy: inToEMU(h)},
	}
	if rotate != 0 {
		xf.Rot = strconv.FormatInt(angle(rotate), 10)
	}
	return xf
}

type xPrstGeom struct {
	Prst  string `xml:"prst,attr"`
	AvLst xAvLst `xml:"a:avLst"`
}

type xAvLst struct {
	Guides []xGuide `xml:"a:gd"`
}

type xGuide struct {
	Name string `xml:"name,attr"`
	Fmla string `xml:"fmla,attr"`
}

type xSolidFill struct {
	SrgbClr xSrgbClr `xml:"a:srgbClr"`
}

type xSrgbClr struct {
	Val   string `xml:"val,attr"`
	Alpha *xVal  `xml:"a:alpha"`
}

type xVal struct {
	Val string `xml:"val,attr"`
}

// solidFill builds a fill; transparency is a percentage.
func solidFill(hex string, transparency float64) *xSolidFill {
	f := &xSolidFill{SrgbClr: xSrgbClr{Val: normalizeHex(hex)}}
	if transparency > 0 {
		f.SrgbClr.Alpha = &xVal{Val: strconv.Itoa(int((100 - transparency) * 1000))}
	}
	return f
}

func normalizeHex(hex string) string {
	hex = strings.ToUpper(strings.TrimPrefix(hex, "#"))
	if hex == "" {
		return "000000"
	}
	return hex
}

type xLn struct {
	W         int64       `xml:"w,attr,omitempty"`
	NoFill    *struct{}   `xml:"a:noFill"`
	SolidFill *xSolidFill `xml:"a:solidFill"`
}

type xEffectLst struct {
	OuterShdw *xOuterShdw `xml:"a:outerShdw"`
}

type xOuterShdw struct {
	BlurRad      int64    `xml:"blurRad,attr"`
	Dist         int64    `xml:"dist,attr"`
	Dir          int64    `xml:"dir,attr"`
	Algn         string   `xml:"algn,attr"`
	RotWithShape string   `xml:"rotWithShape,attr"`
	SrgbClr      xSrgbClr `xml:"a:srgbClr"`
}

func outerShadow(s Shadow) *xOuterShdw {
	opacity := s.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return &xOuterShdw{
		BlurRad:      ptToEMU(s.Blur),
		Dist:         ptToEMU(s.Offset),
		Dir:          angle(s.Angle),
		Algn:         "bl",
		RotWithShape: "0",
		SrgbClr: xSrgbClr{
			Val:   normalizeHex(s.Color),
			Alpha: &xVal{Val: strconv.Itoa(int(opacity * 100000))},
		},
	}
}

type xPicture struct {
	XMLName  xml.Name  `xml:"p:pic"`
	NvPicPr  xNvPicPr  `xml:"p:nvPicPr"`
	BlipFill xBlipFill `xml:"p:blipFill"`
	SpPr     xSpPr     `xml:"p:spPr"`
}

type xNvPicPr struct {
	CNvPr    xCNvPr    `xml:"p:cNvPr"`
	CNvPicPr xCNvPicPr `xml:"p:cNvPicPr"`
	NvPr     xNvPr     `xml:"p:nvPr"`
}

type xCNvPicPr struct {
	PicLocks xPicLocks `xml:"a:picLocks"`
}

type xPicLocks struct {
	NoChangeAspect string `xml:"noChangeAspect,attr,omitempty"`
}

type xBlipFill struct {
	Blip    xBlip     `xml:"a:blip"`
	Stretch *xStretch `xml:"a:stretch"`
}

type xBlip struct {
	Embed string `xml:"r:embed,attr"`
}

type xStretch struct {
	FillRect struct{} `xml:"a:fillRect"`
}

type xTxBody struct {
	BodyPr     xBodyPr      `xml:"a:bodyPr"`
	LstStyle   struct{}     `xml:"a:lstStyle"`
	Paragraphs []xParagraph `xml:"a:p"`
}

type xBodyPr struct {
	Wrap   string `xml:"wrap,attr,omitempty"`
	LIns   string `xml:"lIns,attr,omitempty"`
	TIns   string `xml:"tIns,attr,omitempty"`
	RIns   string `xml:"rIns,attr,omitempty"`
	BIns   string `xml:"bIns,attr,omitempty"`
	RtlCol string `xml:"rtlCol,attr,omitempty"`
	Anchor string `xml:"anchor,attr,omitempty"`
}

type xParagraph struct {
	PPr        *xPPr `xml:"a:pPr"`
	Content    []any
	EndParaRPr *xRPr `xml:"a:endParaRPr"`
}

type xPPr struct {
	MarL      string      `xml:"marL,attr,omitempty"`
	Lvl       string      `xml:"lvl,attr,omitempty"`
	Indent    string      `xml:"indent,attr,omitempty"`
	Algn      string      `xml:"algn,attr,omitempty"`
	LnSpc     *xSpacing   `xml:"a:lnSpc"`
	SpcBef    *xSpacing   `xml:"a:spcBef"`
	SpcAft    *xSpacing   `xml:"a:spcAft"`
	BuAutoNum *xBuAutoNum `xml:"a:buAutoNum"`
	BuChar    *xBuChar    `xml:"a:buChar"`
}

type xSpacing struct {
	SpcPts xVal `xml:"a:spcPts"`
}

func spacing(pt float64) *xSpacing {
	return &xSpacing{SpcPts: xVal{Val: strconv.FormatInt(hundredths(pt), 10)}}
}

type xBuAutoNum struct {
	Type string `xml:"type,attr"`
}

type xBuChar struct {
	Char string `xml:"char,attr"`
}

// xBullet is the builder-side description of a list paragraph.
type xBullet struct {
	Level   int
	Indent  float64 // pt
	AutoNum *xBuAutoNum
	Char    *xBuChar
}

type xRun struct {
	XMLName xml.Name `xml:"a:r"`
	RPr     xRPr     `xml:"a:rPr"`
	T       string   `xml:"a:t"`
}

type xBreak struct {
	XMLName xml.Name `xml:"a:br"`
	RPr     xRPr     `xml:"a:rPr"`
}

type xRPr struct {
	Lang      string      `xml:"lang,attr,omitempty"`
	Sz        string      `xml:"sz,attr,omitempty"`
	B         string      `xml:"b,attr,omitempty"`
	I         string      `xml:"i,attr,omitempty"`
	U         string      `xml:"u,attr,omitempty"`
	Dirty     string      `xml:"dirty,attr,omitempty"`
	SolidFill *xSolidFill `xml:"a:solidFill"`
	Latin     *xFont      `xml:"a:latin"`
}

type xFont struct {
	Typeface string `xml:"typeface,attr"`
}

var anchors = map[string]string{"top": "t", "middle": "ctr", "bottom": "b"}

var alignments = map[string]string{"left": "l", "center": "ctr", "right": "r", "justify": "just"}

func textSpPr(opts TextOptions) xSpPr {
	sp := xSpPr{
		Xfrm: xfrm(opts.X, opts.Y, opts.W, opts.H, opts.Rotate),
		Geom: xPrstGeom{Prst: "rect"},
	}
	if opts.Fill != "" {
		sp.SolidFill = solidFill(opts.Fill, 0)
	} else {
		sp.NoFill = &struct{}{}
	}
	return sp
}

func textBody(opts TextOptions) *xTxBody {
	body := &xTxBody{BodyPr: xBodyPr{Wrap: "square", RtlCol: "0", Anchor: anchors[opts.VAlign]}}
	if in := opts.Inset; in != nil {
		body.BodyPr.LIns = strconv.FormatInt(ptToEMU(in.Left), 10)
		body.BodyPr.TIns = strconv.FormatInt(ptToEMU(in.Top), 10)
		body.BodyPr.RIns = strconv.FormatInt(ptToEMU(in.Right), 10)
		body.BodyPr.BIns = strconv.FormatInt(ptToEMU(in.Bottom), 10)
	}
	return body
}

func paragraph(runs []TextRun, opts TextOptions, bullet *xBullet) xParagraph {
	var p xParagraph
	ppr := &xPPr{Algn: alignments[opts.Align]}
	if opts.LineSpacing > 0 {
		ppr.LnSpc = spacing(opts.LineSpacing)
	}
	if opts.ParaSpaceBefore > 0 {
		ppr.SpcBef = spacing(opts.ParaSpaceBefore)
	}
	if opts.ParaSpaceAfter > 0 {
		ppr.SpcAft = spacing(opts.ParaSpaceAfter)
	}
	if bullet != nil {
		ppr.MarL = strconv.FormatInt(ptToEMU(bullet.Indent*float64(bullet.Level+1)), 10)
		ppr.Indent = strconv.FormatInt(-ptToEMU(bullet.Indent), 10)
		if bullet.Level > 0 {
			ppr.Lvl = strconv.Itoa(bullet.Level)
		}
		ppr.BuAutoNum = bullet.AutoNum
		ppr.BuChar = bullet.Char
	}
	if *ppr != (xPPr{}) {
		p.PPr = ppr
	}

	for _, r := range runs {
		rpr := runProps(r, opts)
		if r.Text != "" {
			p.Content = append(p.Content, xRun{RPr: rpr, T: r.Text})
		}
		if r.Break {
			p.Content = append(p.Content, xBreak{RPr: rpr})
		}
	}
	end := runProps(TextRun{}, opts)
	p.EndParaRPr = &end
	return p
}

func runProps(r TextRun, opts TextOptions) xRPr {
	rpr := xRPr{Lang: "en-US", Dirty: "0"}

	size := r.FontSize
	if size == 0 {
		size = opts.FontSize
	}
	if size > 0 {
		rpr.Sz = strconv.FormatInt(hundredths(size), 10)
	}
	if r.Bold || opts.Bold {
		rpr.B = "1"
	}
	if r.Italic || opts.Italic {
		rpr.I = "1"
	}
	if r.Underline || opts.Underline {
		rpr.U = "sng"
	}
	color := r.Color
	if color == "" {
		color = opts.Color
	}
	if color != "" {
		rpr.SolidFill = solidFill(color, 0)
	}
	face := r.FontFace
	if face == "" {
		face = opts.FontFace
	}
	if face != "" {
		rpr.Latin = &xFont{Typeface: face}
	}
	return rpr
}
