package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/internal/pages"
	"github.com/minjae-lee/settlescan/internal/svcctx"
)

// PageInfo describes one page without its image payload.
type PageInfo struct {
	ID         string `json:"id"`
	SourceFile string `json:"sourceFile"`
	PageIndex  int    `json:"pageIndex"`
	Selected   bool   `json:"selected"`
	Preview    bool   `json:"preview"`
}

// PageListResponse lists every uploaded page grouped by file.
type PageListResponse struct {
	Files map[string][]PageInfo `json:"files"`
	Order []string              `json:"order"`
}

func pageInfo(store *pages.Store, p *pages.Page) PageInfo {
	preview := store.Preview()
	return PageInfo{
		ID:         p.ID,
		SourceFile: p.SourceFile,
		PageIndex:  p.PageIndex,
		Selected:   store.IsSelected(p.ID),
		Preview:    preview != nil && preview.ID == p.ID,
	}
}

// ListPagesEndpoint handles GET /api/pages.
type ListPagesEndpoint struct{}

var _ api.Endpoint = (*ListPagesEndpoint)(nil)

func (e *ListPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages", e.handler
}

func (e *ListPagesEndpoint) RequiresInit() bool { return true }

func (e *ListPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}

	resp := PageListResponse{Files: make(map[string][]PageInfo)}
	for _, name := range store.Files() {
		resp.Order = append(resp.Order, name)
		for _, p := range store.Group(name) {
			resp.Files[name] = append(resp.Files[name], pageInfo(store, p))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded pages and their selection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PageListResponse
			if err := client.Get(cmd.Context(), "/api/pages", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SelectPageEndpoint handles POST /api/pages/{id}/select (toggle).
type SelectPageEndpoint struct{}

var _ api.Endpoint = (*SelectPageEndpoint)(nil)

func (e *SelectPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pages/{id}/select", e.handler
}

func (e *SelectPageEndpoint) RequiresInit() bool { return true }

func (e *SelectPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}

	id := r.PathValue("id")
	selected, err := store.ToggleSelect(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	p := store.Page(id)
	writeJSON(w, http.StatusOK, pageInfoSelected(store, p, selected))
}

func pageInfoSelected(store *pages.Store, p *pages.Page, selected bool) PageInfo {
	info := pageInfo(store, p)
	info.Selected = selected
	return info
}

func (e *SelectPageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "select <page-id>",
		Short: "Toggle a page's selection for extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PageInfo
			if err := client.Post(cmd.Context(), "/api/pages/"+args[0]+"/select", nil, &resp); err != nil {
				return err
			}
			state := "deselected"
			if resp.Selected {
				state = "selected"
			}
			fmt.Printf("Page %s (%s p.%d) %s\n", resp.ID, resp.SourceFile, resp.PageIndex, state)
			return nil
		},
	}
}

// RemovePageEndpoint handles DELETE /api/pages/{id}.
type RemovePageEndpoint struct{}

var _ api.Endpoint = (*RemovePageEndpoint)(nil)

func (e *RemovePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/pages/{id}", e.handler
}

func (e *RemovePageEndpoint) RequiresInit() bool { return true }

func (e *RemovePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}

	if err := store.RemovePage(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *RemovePageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <page-id>",
		Short: "Remove a page (undoable)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/pages/"+args[0]); err != nil {
				return err
			}
			fmt.Println("Page removed")
			return nil
		},
	}
}

// UndoRemoveEndpoint handles POST /api/pages/undo.
type UndoRemoveEndpoint struct{}

var _ api.Endpoint = (*UndoRemoveEndpoint)(nil)

func (e *UndoRemoveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pages/undo", e.handler
}

func (e *UndoRemoveEndpoint) RequiresInit() bool { return true }

func (e *UndoRemoveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}

	p, err := store.UndoRemove()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pageInfo(store, p))
}

func (e *UndoRemoveEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the most recently removed page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PageInfo
			if err := client.Post(cmd.Context(), "/api/pages/undo", nil, &resp); err != nil {
				return err
			}
			fmt.Printf("Restored %s p.%d\n", resp.SourceFile, resp.PageIndex)
			return nil
		},
	}
}

// PageImageEndpoint handles GET /api/pages/{id}/image.
type PageImageEndpoint struct{}

var _ api.Endpoint = (*PageImageEndpoint)(nil)

func (e *PageImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages/{id}/image", e.handler
}

func (e *PageImageEndpoint) RequiresInit() bool { return true }

func (e *PageImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}

	p := store.Page(r.PathValue("id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	w.Header().Set("Content-Type", p.MIME)
	w.Write(p.Image)
}

func (e *PageImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "image <page-id>",
		Short: "Download a page image to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, err := client.GetRaw(cmd.Context(), "/api/pages/"+args[0]+"/image")
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// ResetPagesEndpoint handles POST /api/pages/reset.
type ResetPagesEndpoint struct{}

var _ api.Endpoint = (*ResetPagesEndpoint)(nil)

func (e *ResetPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pages/reset", e.handler
}

func (e *ResetPagesEndpoint) RequiresInit() bool { return true }

func (e *ResetPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PagesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "page store not initialized")
		return
	}
	store.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (e *ResetPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all uploaded files and selections",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Post(cmd.Context(), "/api/pages/reset", nil, nil); err != nil {
				return err
			}
			fmt.Println("Workspace cleared")
			return nil
		},
	}
}
