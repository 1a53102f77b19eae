package uploads_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/apitest"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/uploads"
	"github.com/gymcore/gymcore/internal/users"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fixture struct {
	store  *uploads.Store
	client *apitest.Client
	router chi.Router
	userID int64
}

func newFixture(t *testing.T, maxBytes int64) *fixture {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir(), "/uploads/", maxBytes)
	require.NoError(t, err)
	directory := users.NewMemoryRepository()
	user := apitest.CreateUser(t, directory, "9000000001", apitest.Role(users.RoleMember))

	h := uploads.NewHandler(nil, store, access.Middleware{Users: directory})
	router := chi.NewRouter()
	router.Route("/api", h.MountRoutes)
	router.Handle("/uploads/*", http.StripPrefix("/uploads", h.Files()))
	return &fixture{store: store, client: apitest.NewClient(t, router), router: router, userID: user.ID}
}

func multipartRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadStoresImages(t *testing.T) {
	f := newFixture(t, 1024)
	rec := f.client.Send(multipartRequest(t, map[string][]byte{"logo.bin": pngHeader}), f.userID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := apitest.Decode[struct {
		URLs []string `json:"urls"`
	}](t, rec)
	require.Len(t, body.URLs, 1)
	assert.Equal(t, "/uploads", path.Dir(body.URLs[0]))
	assert.Equal(t, ".png", path.Ext(body.URLs[0]))

	get := httptest.NewRecorder()
	f.router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, body.URLs[0], nil))
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "image/png", get.Header().Get("Content-Type"))

	listing := httptest.NewRecorder()
	f.router.ServeHTTP(listing, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	assert.Equal(t, http.StatusNotFound, listing.Code)
}

func TestUploadRejectsNonImages(t *testing.T) {
	f := newFixture(t, 1024)
	rec := f.client.Send(multipartRequest(t, map[string][]byte{
		"a.png": pngHeader,
		"b.png": []byte("<html><script>alert(1)</script></html>"),
	}), f.userID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "files", apitest.Decode[httpx.ErrorBody](t, rec).Field)
	assert.Empty(t, storedFiles(t, f.store.Dir))
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	f := newFixture(t, 16)
	rec := f.client.Send(multipartRequest(t, map[string][]byte{"a.png": pngHeader}), f.userID)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, storedFiles(t, f.store.Dir))
}

func TestUploadRequiresFilesAndSession(t *testing.T) {
	f := newFixture(t, 1024)
	rec := f.client.Send(multipartRequest(t, nil), f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.client.Send(multipartRequest(t, map[string][]byte{"a.png": pngHeader}), 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.client.Do(http.MethodPost, "/api/uploads", map[string]string{"files": "x"}, f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadLimitsFileCount(t *testing.T) {
	f := newFixture(t, 1024)
	files := make(map[string][]byte, uploads.MaxFiles+1)
	for i := 0; i <= uploads.MaxFiles; i++ {
		files[string(rune('a'+i))+".png"] = pngHeader
	}
	rec := f.client.Send(multipartRequest(t, files), f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, storedFiles(t, f.store.Dir))
}

func TestSweepKeepsReferencedAndRecentFiles(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir(), "/uploads", 1024)
	require.NoError(t, err)
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	for _, name := range []string{"kept.png", "orphan.png", "fresh.png"} {
		p := filepath.Join(store.Dir, name)
		require.NoError(t, os.WriteFile(p, pngHeader, 0o644))
		if name != "fresh.png" {
			require.NoError(t, os.Chtimes(p, old, old))
		}
	}

	removed, err := store.Sweep(context.Background(), []string{"/uploads/kept.png"}, 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, []string{"kept.png", "fresh.png"}, storedFiles(t, store.Dir))
}
