package utils

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// fileHeader builds a multipart.FileHeader the same way gin receives one.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestSaveImageStoresUnderUniqueName(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	name, err := store.SaveImage(fileHeader(t, "pic.png", pngHeader), 1000)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if name == "pic.png" || !strings.HasSuffix(name, ".png") {
		t.Fatalf("unexpected stored name %q", name)
	}
	got, err := os.ReadFile(store.Path(name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Fatalf("stored content differs")
	}
}

func TestSaveImageRejectsOversized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	content := append(append([]byte{}, pngHeader...), make([]byte, 100)...)
	_, err = store.SaveImage(fileHeader(t, "big.png", content), 50)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected nothing stored, found %d files", len(entries))
	}
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, err = store.SaveImage(fileHeader(t, "notes.png", []byte("just some text")), 1000)
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestRemoveIgnoresMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Remove(""); err != nil {
		t.Fatalf("remove empty: %v", err)
	}
	if err := store.Remove("nope.png"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}
