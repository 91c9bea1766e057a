package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/routes"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testApp struct {
	t         *testing.T
	router    *gin.Engine
	db        *gorm.DB
	uploadDir string
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	uploadDir := t.TempDir()
	config.Set(config.AppConfig{
		App: config.AppSection{
			JWTSecret: "controllers-test-secret",
			TokenTTL:  24 * time.Hour,
		},
		Gin:    config.GinSection{Mode: "test"},
		Log:    config.LogSection{Level: "error"},
		Upload: config.UploadSection{Dir: uploadDir, MaxThumbnailBytes: 2000000, MaxAvatarBytes: 500000},
	})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := config.OpenDatabase(config.DatabaseSection{Driver: "sqlite", DatabaseURI: dsn}, "silent")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := config.Migrate(db, &models.User{}, &models.Post{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	r, err := routes.SetupRouter(db)
	if err != nil {
		t.Fatalf("setup router: %v", err)
	}
	return &testApp{t: t, router: r, db: db, uploadDir: uploadDir}
}

func (a *testApp) do(req *http.Request) (int, envelope) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		a.t.Fatalf("decode %s %s: %v (%s)", req.Method, req.URL.Path, err, w.Body.String())
	}
	return w.Code, body
}

func (a *testApp) json(method, path, token string, payload interface{}) (int, envelope) {
	a.t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		a.t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req)
}

type upload struct {
	field    string
	filename string
	content  []byte
}

func (a *testApp) multipart(method, path, token string, fields map[string]string, file *upload) (int, envelope) {
	a.t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			a.t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			a.t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			a.t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		a.t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req)
}

func (a *testApp) get(path string) (int, envelope) {
	a.t.Helper()
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// signUp registers and logs in a user, returning its id and token.
func (a *testApp) signUp(name, email string) (uint, string) {
	a.t.Helper()
	status, body := a.json(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1", "password2": "secret1",
	})
	if status != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", email, status, body.Message)
	}

	status, body = a.json(http.MethodPost, "/api/users/login", "", map[string]string{
		"email": email, "password": "secret1",
	})
	if status != http.StatusOK {
		a.t.Fatalf("login %s: %d %s", email, status, body.Message)
	}
	var login struct {
		Token string `json:"token"`
		ID    uint   `json:"id"`
	}
	decode(a.t, body.Data, &login)
	return login.ID, login.Token
}

func (a *testApp) createPost(token, title string) models.Post {
	a.t.Helper()
	status, body := a.multipart(http.MethodPost, "/api/posts", token, map[string]string{
		"title":       title,
		"category":    "Education",
		"description": "A description that is long enough.",
	}, &upload{field: "thumbnail", filename: "thumb.png", content: pngBytes})
	if status != http.StatusCreated {
		a.t.Fatalf("create post: %d %s", status, body.Message)
	}
	var post models.Post
	decode(a.t, body.Data, &post)
	return post
}

func (a *testApp) fileExists(name string) bool {
	_, err := os.Stat(filepath.Join(a.uploadDir, name))
	return err == nil
}

func (a *testApp) uploadCount() int {
	entries, err := os.ReadDir(a.uploadDir)
	if err != nil {
		a.t.Fatalf("read upload dir: %v", err)
	}
	return len(entries)
}

func (a *testApp) user(id uint) models.User {
	a.t.Helper()
	var u models.User
	if err := a.db.First(&u, id).Error; err != nil {
		a.t.Fatalf("load user %d: %v", id, err)
	}
	return u
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(raw))
	}
}
