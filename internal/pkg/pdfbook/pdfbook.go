// Package pdfbook 把故事排版成可下载的 PDF 绘本：
// 封面一页，之后每章一页，图在上文在下
package pdfbook

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ImageFetcher 按 URL 拉取章节插图，取不到时返回 error，
// 对应页面会退化为纯色占位块而不是整本失败
type ImageFetcher func(url string) ([]byte, error)

// Chapter 是排版需要的最小章节视图
type Chapter struct {
	Title    string
	Text     string
	ImageURL string
}

// Booklet 描述一本待排版的绘本
type Booklet struct {
	Title      string
	AuthorLine string
	Chapters   []Chapter
}

const (
	pageWidth  = 210.0 // A4 纵向, mm
	pageHeight = 297.0
	margin     = 18.0

	// 章节页插图占页面上部约 45%
	imageHeight = pageHeight * 0.45
)

// Generate 渲染整本绘本并返回 PDF 字节。
// fetch 为 nil 时所有插图都画占位块
func Generate(b Booklet, fetch ImageFetcher) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(b.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	renderCover(pdf, tr, b, fetch)

	for i, ch := range b.Chapters {
		renderChapter(pdf, tr, i+1, ch, fetch)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCover(pdf *gofpdf.Fpdf, tr func(string) string, b Booklet, fetch ImageFetcher) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetY(40)
	pdf.MultiCell(pageWidth-2*margin, 14, tr(b.Title), "", "C", false)

	// 封面用第一章插图做主视觉
	coverURL := ""
	if len(b.Chapters) > 0 {
		coverURL = b.Chapters[0].ImageURL
	}
	placeImage(pdf, fetch, coverURL, "cover", margin, 80, pageWidth-2*margin, 140)

	if b.AuthorLine != "" {
		pdf.SetFont("Helvetica", "I", 13)
		pdf.SetY(pageHeight - 40)
		pdf.MultiCell(pageWidth-2*margin, 8, tr(b.AuthorLine), "", "C", false)
	}
}

func renderChapter(pdf *gofpdf.Fpdf, tr func(string) string, num int, ch Chapter, fetch ImageFetcher) {
	pdf.AddPage()

	placeImage(pdf, fetch, ch.ImageURL, fmt.Sprintf("chapter_%d", num), margin, margin, pageWidth-2*margin, imageHeight)

	pdf.SetY(margin + imageHeight + 10)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(pageWidth-2*margin, 9, tr(ch.Title), "", "L", false)

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(pageWidth-2*margin, 7, tr(ch.Text), "", "L", false)
}

// placeImage 把远端插图画到指定区域，拉取失败或还没生成插图时
// 画一个浅色占位块保持版面稳定
func placeImage(pdf *gofpdf.Fpdf, fetch ImageFetcher, url, name string, x, y, w, h float64) {
	if url != "" && fetch != nil {
		if data, err := fetch(url); err == nil {
			if imgType := detectImageType(data); imgType != "" {
				opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
				pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
				pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
				return
			}
		}
	}

	pdf.SetFillColor(235, 235, 240)
	pdf.Rect(x, y, w, h, "F")
}

func detectImageType(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "PNG"
	case bytes.HasPrefix(data, []byte("\xff\xd8")):
		return "JPG"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "GIF"
	default:
		return ""
	}
}
