package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/http/handlers"
	"storefront/internal/repos"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
)

type testEnv struct {
	App *fiber.App
	DB  *sqlx.DB
	Cfg config.Config
}

// newTestApp wires the real app against sqlite :memory: and temp directories.
func newTestApp(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	public := t.TempDir()
	cfg := config.Config{
		Port:          "0",
		DBDriver:      repos.DriverSQLite,
		DBDSN:         ":memory:",
		PublicDir:     public,
		UploadDir:     filepath.Join(public, "uploads"),
		AssetMaxBytes: 1 << 20,
		AssetSniff:    true,
		AssetCleanup:  config.CleanupRetain,
		CORSOrigins:   "*",
	}
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	deps, err := handlers.NewDeps(db, cfg)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	return &testEnv{App: handlers.NewApp(cfg, deps), DB: db, Cfg: cfg}
}

type filePart struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// multipartBody builds a form with text fields and an optional file part
// carrying its own Content-Type, as a browser would send it.
func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		h.Set("Content-Type", file.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file.Data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func pngPart(name string) *filePart {
	return &filePart{Field: "picture", Name: name, ContentType: "image/png", Data: pngBytes}
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func sendMultipart(t *testing.T, app *fiber.App, method, target string, fields map[string]string, file *filePart) (*http.Response, string) {
	t.Helper()
	body, ct := multipartBody(t, fields, file)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", ct)
	return do(t, app, req)
}

func sendJSON(t *testing.T, app *fiber.App, method, target string, v any) (*http.Response, string) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func listProducts(t *testing.T, app *fiber.App) []domain.Product {
	t.Helper()
	resp, body := do(t, app, httptest.NewRequest("GET", "/product/list", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", resp.StatusCode, body)
	}
	var out []domain.Product
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode list: %v body=%s", err, body)
	}
	return out
}

func createProduct(t *testing.T, app *fiber.App, name string, file *filePart) int64 {
	t.Helper()
	resp, body := sendMultipart(t, app, "POST", "/product/create",
		map[string]string{"name": name, "email": "seller@shop.test", "store": "Main St"}, file)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create %s: %d %s", name, resp.StatusCode, body)
	}
	var id int64
	if _, err := fmt.Sscan(resp.Header.Get("X-Product-ID"), &id); err != nil {
		t.Fatalf("X-Product-ID: %v", err)
	}
	return id
}
