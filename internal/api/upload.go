package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/smartwinnr/chat-server/internal/files"
)

type uploadResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	FileSize string `json:"fileSize"`
	FileURL  string `json:"fileUrl"`
	MimeType string `json:"mimeType"`
}

// uploadFile accepts one multipart file and stores it on disk. The response
// reports the size in KB as a formatted string, which is what the reference
// client renders verbatim.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxSize()+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	stored, err := h.uploads.Save(file, header.Filename)
	if err != nil {
		if errors.Is(err, files.ErrTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		log.Printf("Error storing upload: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:  true,
		FileName: stored.OriginalName,
		FileSize: fmt.Sprintf("%.2f", float64(stored.Size)/1024),
		FileURL:  "/uploads/" + stored.Name,
		MimeType: header.Header.Get("Content-Type"),
	})
}
