package handler

import (
	"io"
	"log/slog"
	"net/http"
)

// handleUploadDataset imports a dataset document sent as the dataset_file
// form field. A file already imported with the same content is skipped.
func (h *Handler) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, r, badRequest("file too large"))
		return
	}

	file, header, err := r.FormFile("dataset_file")
	if err != nil {
		writeError(w, r, badRequest("no file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.store.ImportFile(header.Filename, data)
	if err != nil {
		slog.Error("failed to import dataset", "filename", header.Filename, "error", err)
		writeError(w, r, badRequest(err.Error()))
		return
	}

	slog.Info("uploaded dataset via admin", "filename", header.Filename, "skipped", res.Skipped)
	writeJSON(w, http.StatusOK, res)
}
