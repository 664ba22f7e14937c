package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"supportchat/internal/blob"
)

// multipartOverhead is the allowance on top of the attachment cap for
// multipart boundaries and form headers when capping the request body.
const multipartOverhead = 10 << 10

// UploadRoutes returns the attachment sub-router mounted at /api/uploads.
// - POST /       stores a multipart "file" field and returns its blob ref
// - GET /{ref}   serves a stored blob
// Oversize uploads are rejected here, before anything reaches the message
// store; the client is told to share a link instead.
func UploadRoutes(blobs *blob.Store, maxBytes int64) chi.Router {
	r := chi.NewRouter()

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		// Cap the body before multipart parsing so an oversize upload is
		// cut off mid-stream instead of being spooled to disk in full.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeTooLarge(w)
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
			return
		}
		defer file.Close()

		ref, size, err := blobs.Save(file, header.Filename)
		if err != nil {
			if errors.Is(err, blob.ErrTooLarge) {
				writeTooLarge(w)
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not store file"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"name": header.Filename,
			"size": size,
			"ref":  ref,
		})
	})

	r.Get("/{ref}", func(w http.ResponseWriter, r *http.Request) {
		path, err := blobs.Path(chi.URLParam(r, "ref"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ref"})
			return
		}
		http.ServeFile(w, r, path)
	})

	return r
}

func writeTooLarge(w http.ResponseWriter) {
	writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
		"error": "file too large; upload it to a file-sharing service and send the link instead",
	})
}
