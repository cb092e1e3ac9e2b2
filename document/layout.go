package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"strings"

	"civic_horizon/domain"
)

// Font selects one of the PDF core fonts.
type Font struct {
	Family string
	Style  string // "", "B", "I" or "BI"
	Size   float64
}

// Options fixes the page geometry and typography. All lengths are points.
type Options struct {
	PageSize        string
	Margin          float64
	TitleFont       Font
	HeadingFont     Font
	BodyFont        Font
	AuthorFont      Font
	LineHeight      float64
	TitleLineHeight float64
	TitleGap        float64
	SectionGap      float64
	MaxImageHeight  float64
	SummaryLabel    string
	ImageLabel      string
	Creator         string
}

// DefaultOptions is the A4 layout used for vision-2050.pdf.
func DefaultOptions() Options {
	return Options{
		PageSize:        "A4",
		Margin:          40,
		TitleFont:       Font{Family: "Times", Style: "B", Size: 20},
		HeadingFont:     Font{Family: "Times", Style: "B", Size: 14},
		BodyFont:        Font{Family: "Times", Size: 12},
		AuthorFont:      Font{Family: "Times", Style: "I", Size: 10},
		LineHeight:      18,
		TitleLineHeight: 26,
		TitleGap:        14,
		SectionGap:      10,
		MaxImageHeight:  320,
		SummaryLabel:    "Summary",
		ImageLabel:      "Visual Representation",
		Creator:         "civic-horizon",
	}
}

type opKind int

const (
	opText opKind = iota
	opImage
)

// op is one positioned drawing instruction. (x, y) is the top-left corner
// of the box the text or image occupies.
type op struct {
	kind  opKind
	page  int
	x, y  float64
	w, h  float64
	text  string
	font  Font
	align string
}

type plan struct {
	ops          []op
	pages        int
	imageSkipped bool
	image        *image.Config
}

// cursor is the vertical layout state of one render call.
type cursor struct {
	page   int
	y      float64
	top    float64
	bottom float64
}

func newCursor(top, bottom float64) *cursor {
	return &cursor{page: 1, y: top, top: top, bottom: bottom}
}

// ensure starts a new page when a block of height h would cross the bottom
// bound. Touching the bound exactly still fits. A block taller than a whole
// page is placed at the top of the current page rather than looping.
func (c *cursor) ensure(h float64) {
	if c.y+h > c.bottom && c.y > c.top {
		c.page++
		c.y = c.top
	}
}

// take reserves h points and returns where they start.
func (c *cursor) take(h float64) (int, float64) {
	c.ensure(h)
	page, y := c.page, c.y
	c.y += h
	return page, y
}

func (c *cursor) advance(h float64) {
	c.y += h
}

type planner struct {
	opts  Options
	m     measurer
	tr    func(string) string
	cur   *cursor
	left  float64
	width float64
	pageH float64
	ops   []op
}

func newPlanner(opts Options, m measurer, tr func(string) string, pageW, pageH float64) *planner {
	if tr == nil {
		tr = func(s string) string { return s }
	}
	return &planner{
		opts:  opts,
		m:     m,
		tr:    tr,
		cur:   newCursor(opts.Margin, pageH-opts.Margin),
		left:  opts.Margin,
		width: pageW - 2*opts.Margin,
		pageH: pageH,
	}
}

func (p *planner) lines(text string, f Font, lineHeight float64, align string) {
	p.m.SetFont(f.Family, f.Style, f.Size)
	for _, line := range wrapText(p.m, p.tr(text), p.width) {
		page, y := p.cur.take(lineHeight)
		p.ops = append(p.ops, op{
			kind:  opText,
			page:  page,
			x:     p.left,
			y:     y,
			w:     p.width,
			h:     lineHeight,
			text:  line,
			font:  f,
			align: align,
		})
	}
}

func (p *planner) build(doc domain.VisionDocument, img *domain.RasterImage, author string) plan {
	o := p.opts

	p.lines(doc.DisplayTitle(), o.TitleFont, o.TitleLineHeight, "C")
	p.cur.advance(o.TitleGap)

	if summary := strings.TrimSpace(doc.Summary); summary != "" {
		p.lines(o.SummaryLabel, o.HeadingFont, o.LineHeight, "L")
		p.lines(summary, o.BodyFont, o.LineHeight, "L")
		p.cur.advance(o.SectionGap)
	}

	for i, s := range doc.Sections {
		heading := strings.TrimSpace(s.Heading)
		if heading == "" {
			heading = fmt.Sprintf("Section %d", i+1)
		}
		p.lines(heading, o.HeadingFont, o.LineHeight, "L")
		p.lines(s.Body, o.BodyFont, o.LineHeight, "L")
		p.cur.advance(o.SectionGap)
	}

	out := plan{}
	if cfg, ok := verifiedJPEG(img); ok {
		p.image(cfg)
		out.image = &cfg
	} else if !img.Empty() {
		out.imageSkipped = true
	}

	if author = strings.TrimSpace(author); author != "" {
		f := o.AuthorFont
		p.m.SetFont(f.Family, f.Style, f.Size)
		p.ops = append(p.ops, op{
			kind:  opText,
			page:  p.cur.page,
			x:     p.left,
			y:     p.pageH - o.Margin + (o.Margin-o.LineHeight)/2,
			w:     p.width,
			h:     o.LineHeight,
			text:  p.tr(author),
			font:  f,
			align: "R",
		})
	}

	out.ops = p.ops
	out.pages = p.cur.page
	return out
}

func (p *planner) image(cfg image.Config) {
	o := p.opts
	w := p.width
	h := w * float64(cfg.Height) / float64(cfg.Width)
	if h > o.MaxImageHeight {
		h = o.MaxImageHeight
		w = h * float64(cfg.Width) / float64(cfg.Height)
	}

	p.cur.ensure(o.LineHeight + h)
	p.lines(o.ImageLabel, o.HeadingFont, o.LineHeight, "C")
	page, y := p.cur.take(h)
	p.ops = append(p.ops, op{
		kind: opImage,
		page: page,
		x:    p.left + (p.width-w)/2,
		y:    y,
		w:    w,
		h:    h,
	})
	p.cur.advance(o.SectionGap)
}

// verifiedJPEG accepts only payloads that decode as JPEG with a usable size.
func verifiedJPEG(img *domain.RasterImage) (image.Config, bool) {
	if img.Empty() {
		return image.Config{}, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || format != "jpeg" || cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, false
	}
	return cfg, true
}
