package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// maxUploadSize covers high-resolution phone photos
const maxUploadSize = int64(50 << 20)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error         ErrorKind `json:"error"`
	Message       string    `json:"message"`
	ExtractedText string    `json:"extractedText,omitempty"`
	RawResponse   string    `json:"rawResponse,omitempty"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps err to its status code and error body. Errors that are not
// receipt errors are reported as persistence errors.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: KindPersistence, Message: "Internal server error"}

	var e *Error
	if errors.As(err, &e) {
		body = errorBody{
			Error:         e.Kind,
			Message:       e.Message,
			ExtractedText: e.ExtractedText,
			RawResponse:   e.RawResponse,
		}
	}

	status := httpStatus(body.Error)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "kind", body.Error, "error", err)
	}
	writeJSON(w, status, body)
}

// decodeBody decodes a JSON request body into v
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return newError(KindInvalidInput, "Invalid request body", err)
	}
	return nil
}

// handleParseReceipt runs an uploaded image through the extraction pipeline
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, newError(KindInvalidInput, "File is too large. Maximum size is 50MB.", err))
			return
		}
		writeError(w, newError(KindNoFileProvided, "No image file uploaded", err))
		return
	}

	f, header, err := formFile(r, "receipt", "file")
	if err != nil {
		writeError(w, newError(KindNoFileProvided, "No image file uploaded", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, newError(KindPersistence, "Error reading uploaded file", err))
		return
	}

	upload := &Upload{
		Filename:    header.Filename,
		ContentType: uploadContentType(header),
		Data:        data,
	}

	result, err := s.service.ParseReceipt(r.Context(), upload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// formFile returns the first of the named multipart file fields that is present
func formFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	var err error
	for _, field := range fields {
		var f multipart.File
		var header *multipart.FileHeader
		f, header, err = r.FormFile(field)
		if err == nil {
			return f, header, nil
		}
	}
	return nil, nil, err
}

// uploadContentType uses the part's declared type, falling back to the extension
func uploadContentType(header *multipart.FileHeader) string {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleListReceipts returns all receipts, newest first
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts()
	if err != nil {
		writeError(w, err)
		return
	}

	// Always an array, never null
	if receipts == nil {
		receipts = []*Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.GetReceipt(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleUpdateReceipt applies a whole-record update
func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var update ReceiptUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.UpdateReceipt(r.PathValue("id"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleDeleteReceipt deletes a receipt and its image
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Receipt deleted successfully"})
}

// handleGetReceiptFile returns the stored image for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleAddItem appends an item to a receipt
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.AddItem(r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleUpdateItem patches one item
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	receipt, err := s.service.UpdateItem(r.PathValue("id"), r.PathValue("itemId"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleDeleteItem removes one item
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.DeleteItem(r.PathValue("id"), r.PathValue("itemId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleMonthlySummary returns spend per month
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.MonthlySpend()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleExport streams all receipts as an XLSX workbook
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportXLSX()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	w.Write(data)
}

// handleUpload serves a stored image by its stored name
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.GetUpload(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}
