// Package document lays out a vision as a paginated A4 PDF.
package document

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"civic_horizon/domain"
)

// FileName is the name the exported document is saved under.
const FileName = "vision-2050.pdf"

const imageName = "vision-image"

// Result is a fully produced document.
type Result struct {
	PDF          []byte
	Pages        int
	ImageSkipped bool
}

// WriteTo writes the finished PDF bytes.
func (r Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.PDF)
	return int64(n), err
}

// Engine renders vision documents. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Render lays out title, summary, sections, the optional image and the
// optional author line. An image that is not a decodable JPEG is left out
// and reported through Result.ImageSkipped.
func (e *Engine) Render(doc domain.VisionDocument, img *domain.RasterImage, author string) (Result, error) {
	pdf := fpdf.New("P", "pt", e.opts.PageSize, "")
	pdf.SetMargins(e.opts.Margin, e.opts.Margin, e.opts.Margin)
	pdf.SetAutoPageBreak(false, e.opts.Margin)
	pdf.SetTitle(doc.DisplayTitle(), true)
	pdf.SetCreator(e.opts.Creator, true)
	if author != "" {
		pdf.SetAuthor(author, true)
	}

	pageW, pageH := pdf.GetPageSize()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pl := newPlanner(e.opts, pdf, tr, pageW, pageH).build(doc, img, author)

	if pl.image != nil {
		pdf.RegisterImageOptionsReader(imageName, fpdf.ImageOptions{ImageType: "JPEG"}, bytes.NewReader(img.Data))
	}

	page := 0
	for _, o := range pl.ops {
		for page < o.page {
			pdf.AddPage()
			page++
		}
		switch o.kind {
		case opText:
			pdf.SetFont(o.font.Family, o.font.Style, o.font.Size)
			pdf.SetXY(o.x, o.y)
			pdf.CellFormat(o.w, o.h, o.text, "", 0, o.align, false, 0, "")
		case opImage:
			pdf.ImageOptions(imageName, o.x, o.y, o.w, o.h, false, fpdf.ImageOptions{ImageType: "JPEG"}, 0, "")
		}
	}
	for page < pl.pages {
		pdf.AddPage()
		page++
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("render pdf: %w", err)
	}
	return Result{PDF: buf.Bytes(), Pages: pl.pages, ImageSkipped: pl.imageSkipped}, nil
}

// Write renders and then writes the document. Nothing is written to w when
// rendering fails.
func (e *Engine) Write(w io.Writer, doc domain.VisionDocument, img *domain.RasterImage, author string) (Result, error) {
	res, err := e.Render(doc, img, author)
	if err != nil {
		return Result{}, err
	}
	if _, err := res.WriteTo(w); err != nil {
		return Result{}, fmt.Errorf("write pdf: %w", err)
	}
	return res, nil
}
