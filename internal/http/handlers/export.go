package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vibecoder/internal/domain"
	"vibecoder/pkg/zip"
)

// ProjectExport downloads the latest completed generation as a zip archive.
// Per-file artifacts from the file store are preferred; the assembled bundle
// from the job row is the fallback when none were persisted.
func (a *App) ProjectExport(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projectID := chi.URLParam(r, "projectID")

	job, err := a.Service.LatestCompleted(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no completed generation to export")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch generation")
		return
	}

	var assets []zip.Asset
	prefix := fmt.Sprintf("projects/%s/jobs/%s", projectID, job.ID)
	keys, _ := a.Files.List(r.Context(), prefix)
	for _, key := range keys {
		if key == "bundle.jsx" {
			continue
		}
		data, err := a.Files.Read(r.Context(), prefix+"/"+key)
		if err != nil {
			continue
		}
		assets = append(assets, zip.Asset{Filename: key, MIME: "text/javascript", Data: data})
	}
	if len(assets) == 0 && job.CodeResult != nil {
		assets = append(assets, zip.Asset{Filename: "App.jsx", MIME: "text/javascript", Data: []byte(*job.CodeResult)})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no artifacts to export")
		return
	}

	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "storefront-"+projectID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
