package pages

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Rasterize turns an uploaded document into an ordered sequence of page
// images. PDFs produce one page per document page; plain images produce a
// single page after normalization to PNG.
func Rasterize(data []byte, fileName, contentType string) ([]*Page, error) {
	if isPDF(data, contentType, fileName) {
		return rasterizePDF(data, fileName)
	}

	img, err := normalizeImage(data, contentType)
	if err != nil {
		return nil, err
	}
	return []*Page{{
		ID:         uuid.New().String(),
		Image:      img,
		MIME:       "image/png",
		SourceFile: fileName,
		PageIndex:  1,
	}}, nil
}

// rasterizePDF renders every page of a PDF to PNG.
func rasterizePDF(data []byte, fileName string) ([]*Page, error) {
	// Validate the document before handing it to the renderer.
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pgs := make([]*Page, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		pgs = append(pgs, &Page{
			ID:         uuid.New().String(),
			Image:      buf.Bytes(),
			MIME:       "image/png",
			SourceFile: fileName,
			PageIndex:  i + 1,
		})
	}
	return pgs, nil
}

func isPDF(data []byte, contentType, fileName string) bool {
	if strings.EqualFold(strings.TrimSpace(contentType), "application/pdf") {
		return true
	}
	if strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
