package api

import (
	"fmt"
	"io"
	"mime/multipart"
)

// multipartBuilder wraps mime/multipart for single-file uploads.
type multipartBuilder struct {
	w *multipart.Writer
}

func newMultipart(w io.Writer) *multipartBuilder {
	return &multipartBuilder{w: multipart.NewWriter(w)}
}

func (m *multipartBuilder) writeFile(field, fileName string, data []byte) error {
	fw, err := m.w.CreateFormFile(field, fileName)
	if err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	return nil
}

func (m *multipartBuilder) close() (contentType string, err error) {
	if err := m.w.Close(); err != nil {
		return "", err
	}
	return m.w.FormDataContentType(), nil
}
