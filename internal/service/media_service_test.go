package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maheshrc27/socialflow/internal/models"
)

type objectStoreStub struct {
	puts    map[string][]byte
	deleted []string
}

func (s *objectStoreStub) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if s.puts == nil {
		s.puts = map[string][]byte{}
	}
	s.puts[key] = body
	return "https://cdn.example.com/" + key, nil
}

func (s *objectStoreStub) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadAssetStoresSniffedImage(t *testing.T) {
	store := &objectStoreStub{}
	repo := &mediaRepoStub{}
	svc := NewMediaService(store, repo, nil)

	m, err := svc.UploadAsset(context.Background(), 7, pngBytes(t, 4, 4), "dir/photo.bin")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if m.Type != models.MediaTypeImage || m.FileName != "photo.bin" {
		t.Fatalf("unexpected media %+v", m)
	}
	if !strings.HasPrefix(m.StorageKey, "media/7/") || !strings.HasSuffix(m.StorageKey, ".png") {
		t.Fatalf("unexpected key %s", m.StorageKey)
	}
	if m.OriginalURL != "https://cdn.example.com/"+m.StorageKey {
		t.Fatalf("unexpected url %s", m.OriginalURL)
	}
	if _, ok := store.puts[m.StorageKey]; !ok || len(repo.created) != 1 {
		t.Fatal("expected object stored and row created")
	}
}

func TestUploadAssetRejectsUnknownContent(t *testing.T) {
	svc := NewMediaService(&objectStoreStub{}, &mediaRepoStub{}, nil)

	if _, err := svc.UploadAsset(context.Background(), 7, []byte("just some text"), "notes.txt"); !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia got %v", err)
	}
	if _, err := svc.UploadAsset(context.Background(), 7, nil, "empty.png"); err == nil {
		t.Fatal("expected empty upload rejected")
	}
}

func TestUploadAssetCleansUpOnInsertFailure(t *testing.T) {
	store := &objectStoreStub{}
	svc := NewMediaService(store, &mediaRepoStub{err: errors.New("insert failed")}, nil)

	if _, err := svc.UploadAsset(context.Background(), 7, pngBytes(t, 2, 2), "a.png"); err == nil {
		t.Fatal("expected error")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected orphan removed got %v", store.deleted)
	}
}

func TestRemoveMediaChecksOwner(t *testing.T) {
	store := &objectStoreStub{}
	repo := &mediaRepoStub{media: map[int64]*models.Media{5: {ID: 5, UserID: 7, StorageKey: "media/7/x.png"}}}
	svc := NewMediaService(store, repo, nil)

	if err := svc.Remove(context.Background(), 8, 5); err == nil {
		t.Fatal("expected foreign media to be rejected")
	}
	if err := svc.Remove(context.Background(), 7, 5); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "media/7/x.png" {
		t.Fatalf("expected stored object deleted got %v", store.deleted)
	}
}

func TestStoryCompositeURL(t *testing.T) {
	img := pngBytes(t, 300, 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer srv.Close()

	store := &objectStoreStub{}
	svc := NewMediaService(store, &mediaRepoStub{}, srv.Client())

	u, err := svc.StoryCompositeURL(context.Background(), srv.URL+"/photo.png", "Grand opening this Saturday, everyone welcome")
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if !strings.HasPrefix(u, "https://cdn.example.com/stories/") || !strings.HasSuffix(u, ".jpg") {
		t.Fatalf("unexpected url %s", u)
	}

	var out []byte
	for _, v := range store.puts {
		out = v
	}
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != storyWidth || b.Dy() != storyHeight {
		t.Fatalf("expected %dx%d got %v", storyWidth, storyHeight, b)
	}

	if _, err := svc.StoryCompositeURL(context.Background(), srv.URL+"/missing.png", "x"); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestFitRect(t *testing.T) {
	canvas := image.Rect(0, 0, storyWidth, storyHeight)

	got := fitRect(image.Rect(0, 0, 2000, 1000), canvas)
	if got.Dx() != storyWidth || got.Dy() != 540 || got.Min.Y != (storyHeight-540)/2 {
		t.Fatalf("landscape: unexpected rect %v", got)
	}

	got = fitRect(image.Rect(0, 0, 500, 2000), canvas)
	if got.Dy() != storyHeight || got.Dx() != 480 {
		t.Fatalf("portrait: unexpected rect %v", got)
	}

	if got := fitRect(image.Rectangle{}, canvas); !got.Empty() {
		t.Fatalf("expected empty rect got %v", got)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v got %v", want, got)
	}

	got = wrapText("abcdefghij", 4)
	if strings.Join(got, "|") != "abcd|efgh|ij" {
		t.Fatalf("expected hard split got %v", got)
	}

	got = wrapText("first\nsecond", 20)
	if len(got) != 2 {
		t.Fatalf("expected paragraph break kept got %v", got)
	}

	if wrapText("   ", 10) != nil {
		t.Fatal("expected blank text to produce no lines")
	}
}
