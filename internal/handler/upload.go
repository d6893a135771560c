package handler

import (
	"net/http"

	"github.com/homevest/backoffice/internal/errHandler"
	"github.com/homevest/backoffice/internal/file"
	"github.com/homevest/backoffice/internal/response"
)

// ID documents, selfies and ticket attachments are uploaded here first;
// the returned URL is what the workflow endpoints accept as a reference.
const maxUploadSize = 10 << 20 // 10 MB

type UploadHandler struct {
	Uploader   file.Uploader
	ErrHandler *errHandler.ErrorHandler
}

func NewUploadHandler(handler *UploadHandler) *UploadHandler {
	return &UploadHandler{
		Uploader:   handler.Uploader,
		ErrHandler: handler.ErrHandler,
	}
}

func (h *UploadHandler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	uploaded, _, err := r.FormFile("file")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}
	defer uploaded.Close()

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "documents"
	}

	url, err := h.Uploader.UploadFile(uploaded, folder)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"url": url,
	}
	message := "File uploaded successfully"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
