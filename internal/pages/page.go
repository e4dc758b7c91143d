// Package pages tracks uploaded documents, their rasterized page images, and
// the subset of pages currently marked for extraction.
package pages

// Page is one image ready for extraction.
type Page struct {
	// ID uniquely identifies the page across all file groups.
	ID string `json:"id"`

	// Image is the rendered page image (always PNG after rasterization).
	Image []byte `json:"-"`

	// MIME is the image content type sent to providers.
	MIME string `json:"mime"`

	// SourceFile is the name of the uploaded file this page came from.
	SourceFile string `json:"source_file"`

	// PageIndex is 1-based within the source document. Single-image uploads
	// use index 1.
	PageIndex int `json:"page_index"`
}
