package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/factcheck/internal/models"
	"github.com/zombar/factcheck/internal/tracing"
)

const (
	uploadChunkSize   = 8 * 1024
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
)

var (
	errUnsupportedFileType = errors.New("unsupported file type")
	errFileTooLarge        = errors.New("file too large")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/jpg":  true,
}

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/avi":       true,
	"video/quicktime": true,
	"video/webm":      true,
	"video/x-msvideo": true,
}

// uploadContentType maps an allowed MIME type to the pipeline content type
func uploadContentType(mimeType string) (models.ContentType, bool) {
	switch {
	case allowedImageTypes[mimeType]:
		return models.ContentTypeImage, true
	case allowedVideoTypes[mimeType]:
		return models.ContentTypeVideo, true
	default:
		return "", false
	}
}

type uploadParams struct {
	checkSources bool
	language     string
}

// handleUpload fact-checks a single uploaded image or video
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	params, ok := h.parseUploadForm(w, r, h.opts.MaxUploadSize+multipartOverhead)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		h.respondError(w, r, "File field is required", nil, http.StatusBadRequest)
		return
	}

	resp, err := h.checkUpload(r.Context(), files[0], params)
	if err != nil {
		h.respondCheckError(w, r, err)
		return
	}
	respondJSON(w, resp, http.StatusOK)
}

// handleUploadBatch fact-checks several files one after another. A failing file
// is recorded in its item and does not stop the batch.
func (h *Handler) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.MaxUploadSize*int64(h.opts.MaxBatchFiles) + multipartOverhead
	params, ok := h.parseUploadForm(w, r, limit)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.respondError(w, r, "Files field is required", nil, http.StatusBadRequest)
		return
	}
	if len(files) > h.opts.MaxBatchFiles {
		h.respondError(w, r, fmt.Sprintf("Maximum of %d files per request", h.opts.MaxBatchFiles), nil, http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(), attribute.Int("batch.files", len(files)))

	result := models.BatchResult{
		Total:   len(files),
		Results: make([]models.BatchItem, 0, len(files)),
	}
	for _, fh := range files {
		item := models.BatchItem{Filename: fh.Filename}

		resp, err := h.checkUpload(r.Context(), fh, params)
		if err != nil {
			h.logger.Warn("batch item failed", "filename", fh.Filename, "error", err)
			item.Status = "error"
			item.Error = publicMessage(err)
			result.Failed++
		} else {
			item.Status = "success"
			item.Result = resp
			result.Processed++
		}
		result.Results = append(result.Results, item)
	}

	respondJSON(w, result, http.StatusOK)
}

// parseUploadForm reads the multipart form and the shared check_sources and language fields.
// It writes the error response itself and reports false on failure.
func (h *Handler) parseUploadForm(w http.ResponseWriter, r *http.Request, limit int64) (uploadParams, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.metrics.RecordUploadRejected("size")
			h.respondError(w, r, "Request too large", err, http.StatusRequestEntityTooLarge)
			return uploadParams{}, false
		}
		h.respondError(w, r, "Invalid multipart form", err, http.StatusBadRequest)
		return uploadParams{}, false
	}

	checkSources, err := formBool(r, "check_sources")
	if err != nil {
		r.MultipartForm.RemoveAll()
		h.respondError(w, r, err.Error(), err, http.StatusUnprocessableEntity)
		return uploadParams{}, false
	}

	language := strings.TrimSpace(r.FormValue("language"))
	if language == "" {
		language = "pt"
	}
	return uploadParams{checkSources: checkSources, language: language}, true
}

// checkUpload validates the file type, streams the file to scratch space, runs the
// check and removes the scratch copy on every path
func (h *Handler) checkUpload(ctx context.Context, fh *multipart.FileHeader, params uploadParams) (*models.FactCheckResponse, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mimeType, err := detectUploadType(fh, src)
	if err != nil {
		return nil, err
	}
	contentType, ok := uploadContentType(mimeType)
	if !ok {
		h.metrics.RecordUploadRejected("type")
		return nil, fmt.Errorf("%w: %s. Send images (JPG, PNG, GIF, WEBP) or videos (MP4, AVI, MOV, WEBM)",
			errUnsupportedFileType, mimeType)
	}

	scratch := filepath.Join(h.opts.ScratchDir, "upload_"+uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	defer func() {
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("failed to remove upload", "path", scratch, "error", err)
		}
	}()

	size, err := h.saveUpload(src, scratch)
	if err != nil {
		return nil, err
	}
	h.metrics.RecordUpload(size)

	tracing.SetSpanAttributes(ctx,
		attribute.String("upload.filename", fh.Filename),
		attribute.String("upload.mime", mimeType),
		attribute.Int64("upload.size", size),
	)
	h.logger.Info("upload saved", "filename", fh.Filename, "mime", mimeType, "bytes", size)

	return h.checker.Check(ctx, models.FactCheckRequest{
		Content:      scratch,
		ContentType:  contentType,
		CheckSources: params.checkSources,
		Language:     params.language,
	})
}

// detectUploadType trusts the declared part type and sniffs the content when none is declared
func detectUploadType(fh *multipart.FileHeader, src multipart.File) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return strings.ToLower(mediaType), nil
	}

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	mediaType, _, _ := mime.ParseMediaType(mt.String())
	return mediaType, nil
}

// saveUpload copies src to path in fixed-size chunks, failing once MaxUploadSize is exceeded
func (h *Handler) saveUpload(src io.Reader, path string) (int64, error) {
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create scratch file: %w", err)
	}
	defer dst.Close()

	buf := make([]byte, uploadChunkSize)
	var size int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > h.opts.MaxUploadSize {
				h.metrics.RecordUploadRejected("size")
				return size, fmt.Errorf("%w: maximum size is %d bytes", errFileTooLarge, h.opts.MaxUploadSize)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return size, fmt.Errorf("write scratch file: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return size, fmt.Errorf("read upload: %w", readErr)
		}
	}
	return size, nil
}
