package uploads

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/platform/httpx"
)

// Handler accepts image uploads and serves stored files.
type Handler struct {
	logger *slog.Logger
	store  *Store
	gate   access.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store *Store, gate access.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, gate: gate}
}

// MountRoutes registers POST /uploads on the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.RequireRole()).Post("/uploads", h.upload)
}

// Files serves stored uploads. Directory listings are not exposed.
func (h *Handler) Files() http.Handler {
	fs := http.FileServer(http.Dir(h.store.Dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fs.ServeHTTP(w, r)
	})
}

type uploadResponse struct {
	URLs []string `json:"urls"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFiles*h.store.MaxBytes+httpx.MaxBodyBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		httpx.RespondError(w, httpx.Invalid("files", "expected multipart/form-data"))
		return
	}
	urls, err := h.saveParts(reader)
	if err != nil {
		for _, url := range urls {
			if rmErr := h.store.Remove(url); rmErr != nil {
				h.logger.Warn("remove partial upload", slog.String("url", url), slog.Any("error", rmErr))
			}
		}
		h.respondError(w, err)
		return
	}
	if len(urls) == 0 {
		httpx.RespondError(w, httpx.Invalid("files", "at least one file is required"))
		return
	}
	httpx.JSON(w, http.StatusOK, uploadResponse{URLs: urls})
}

// saveParts stores every "files" part. On error the URLs saved so far are
// returned so the caller can clean up.
func (h *Handler) saveParts(reader *multipart.Reader) ([]string, error) {
	var urls []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return urls, err
			}
			return urls, httpx.Invalid("files", "malformed multipart body")
		}
		if part.FormName() != "files" {
			_ = part.Close()
			continue
		}
		if len(urls) == MaxFiles {
			_ = part.Close()
			return urls, httpx.Invalid("files", "at most 10 files per upload")
		}
		url, err := h.store.Save(part)
		_ = part.Close()
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.As(err, &maxErr):
		httpx.Error(w, http.StatusRequestEntityTooLarge, httpx.ErrorBody{Message: "File too large", Field: "files"})
	case errors.Is(err, ErrUnsupportedType):
		httpx.Error(w, http.StatusBadRequest, httpx.ErrorBody{Message: ErrUnsupportedType.Error(), Field: "files"})
	case errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error("upload failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
