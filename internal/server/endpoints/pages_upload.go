package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/internal/pages"
	"github.com/minjae-lee/settlescan/internal/svcctx"
)

// UploadResponse reports the pages produced from one uploaded file.
type UploadResponse struct {
	File  string `json:"file"`
	Pages int    `json:"pages"`
}

// UploadEndpoint handles POST /api/files/upload with a multipart document.
// PDFs fan out to one page per sheet; single images become one page.
// Re-uploading a file name replaces its previous pages.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/files/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 100 << 20 // 100MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no document uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}

	pgs, err := pages.Rasterize(data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read %s: %v", header.Filename, err))
		return
	}

	store.AddFile(header.Filename, pgs)

	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Info("file uploaded", "file", header.Filename, "pages", len(pgs))
	}

	writeJSON(w, http.StatusOK, UploadResponse{File: header.Filename, Pages: len(pgs)})
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a settlement document (PDF or image)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp UploadResponse
			if err := client.UploadFile(cmd.Context(), "/api/files/upload", "document", filepath.Base(args[0]), data, &resp); err != nil {
				return err
			}
			fmt.Printf("Uploaded %s (%d pages)\n", resp.File, resp.Pages)
			return nil
		},
	}
}
