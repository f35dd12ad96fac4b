package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/youruser/birdcard/internal/bgremove"
	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
	imagepkg "github.com/youruser/birdcard/internal/image"
	"github.com/youruser/birdcard/internal/session"
	"github.com/youruser/birdcard/internal/share"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRasterizer struct {
	err  error
	hold chan struct{}
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ cards.FormState, _ compositor.Transform, _ compositor.Source) (image.Image, error) {
	if f.hold != nil {
		<-f.hold
	}
	if f.err != nil {
		return nil, f.err
	}
	return image.NewNRGBA(image.Rect(0, 0, 4, 6)), nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	if strings.Contains(ref, "private") {
		return nil, fmt.Errorf("%w: status 403", imagepkg.ErrCrossOrigin)
	}
	return []byte("img"), nil
}

func newTestHandlers(remover bgremove.Remover) *Handlers {
	initFn := func(context.Context) (bgremove.Remover, error) { return remover, nil }
	if remover == nil {
		initFn = func(context.Context) (bgremove.Remover, error) { return nil, errors.New("no model") }
	}
	return &Handlers{
		Sessions:   session.NewStore(0),
		Removal:    bgremove.NewService(bgremove.NewHandle(initFn), fakeFetcher{}, nil),
		Rasterizer: &fakeRasterizer{},
		Presets: func() ([]cards.Preset, error) {
			return []cards.Preset{
				{ID: "a", Form: cards.FormState{Name: "Barn Owl", Habitats: []string{"grassland"}}},
				{ID: "b", Form: cards.FormState{Name: "Mallard", Habitats: []string{"wetland"}}},
			}, nil
		},
		PublicURL: "http://cards.test/",
	}
}

func newTestEngine(h *Handlers) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, h, RouteOptions{Editor: true})
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, r http.Handler) sessionView {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session = %d, want %d", w.Code, http.StatusCreated)
	}
	return decode[sessionView](t, w)
}

func TestHealth(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	w := do(t, r, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode[map[string]any](t, w)
	if body["remover"] != "uninitialized" {
		t.Errorf("remover = %v, want uninitialized", body["remover"])
	}
}

func TestPreview(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	form := cards.FormState{
		Name:       "Kea <3",
		Food:       map[string]int{"seed": 2},
		PowerColor: "brown",
		PowerText:  "gain [seed].",
	}
	w := do(t, r, http.MethodPost, "/api/preview", form)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	p := decode[map[string]any](t, w)
	if p["name"] != "Kea &lt;3" {
		t.Errorf("name = %v, want escaped", p["name"])
	}
	if !strings.Contains(p["food"].(string), "+") {
		t.Errorf("food = %v, want two seeds joined with +", p["food"])
	}
	if !strings.Contains(p["power_text"].(string), "seed-dark-glow.webp") {
		t.Errorf("power_text = %v, want dark glow seed", p["power_text"])
	}
	if p["power_class"] != "brown" {
		t.Errorf("power_class = %v, want brown", p["power_class"])
	}
}

func TestPreviewRejectsBadJSON(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPresetsFilter(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	w := do(t, r, http.MethodGet, "/api/presets?habitat=wetland", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode[struct {
		Count   int            `json:"count"`
		Presets []cards.Preset `json:"presets"`
	}](t, w)
	if body.Count != 1 || body.Presets[0].ID != "b" {
		t.Errorf("presets = %+v, want only b", body.Presets)
	}
}

func TestSessionTransforms(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	s := createSession(t, r)
	if s.PositionLabel != "0, 0" || s.SizeLabel != "85%" {
		t.Fatalf("initial labels = %q %q", s.PositionLabel, s.SizeLabel)
	}
	if s.Style.Image != compositor.DefaultSilhouette {
		t.Errorf("image = %q, want default silhouette", s.Style.Image)
	}

	base := "/api/sessions/" + s.ID + "/background/"
	do(t, r, http.MethodPost, base+"nudge", gin.H{"dx": -5, "dy": 10})
	do(t, r, http.MethodPost, base+"zoom", gin.H{"delta": -100})
	w := do(t, r, http.MethodPost, base+"flip", nil)
	got := decode[sessionView](t, w)

	want := compositor.Transform{OffsetX: -5, OffsetY: 10, ScalePercent: compositor.MinScalePercent, Flipped: true}
	if got.Transform != want {
		t.Errorf("transform = %+v, want %+v", got.Transform, want)
	}
	if got.Style.Position != "calc(50% + -5px) calc(50% + 10px)" {
		t.Errorf("position = %q", got.Style.Position)
	}
	if got.Style.Transform != "scaleX(-1)" {
		t.Errorf("transform css = %q, want scaleX(-1)", got.Style.Transform)
	}

	w = do(t, r, http.MethodPost, base+"reset", nil)
	got = decode[sessionView](t, w)
	if got.Transform != compositor.Default() || got.PositionLabel != "0, 0" {
		t.Errorf("after reset = %+v %q", got.Transform, got.PositionLabel)
	}
}

func TestUnknownSession(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	w := do(t, r, http.MethodGet, "/api/sessions/nope/background", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSilhouetteSourceLastWriteWins(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	s := createSession(t, r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "bird.png")
	fw.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/silhouette/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d: %s", w.Code, w.Body.String())
	}
	up := decode[struct {
		Session sessionView `json:"session"`
	}](t, w)
	if !up.Session.HasUpload || !strings.HasPrefix(up.Session.Style.Image, "data:image/png;base64,") {
		t.Errorf("after upload image = %.40q", up.Session.Style.Image)
	}

	w = do(t, r, http.MethodPut, "/api/sessions/"+s.ID+"/silhouette/url", gin.H{"url": " https://example.com/owl.png "})
	got := decode[sessionView](t, w)
	if got.HasUpload || got.Style.Image != "https://example.com/owl.png" {
		t.Errorf("after url = %+v", got)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	s := createSession(t, r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	fw.Write([]byte("hello"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/silhouette/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnsupportedMediaType)
	}
}

func TestRemoveBackgroundWithoutSource(t *testing.T) {
	h := newTestHandlers(nil)
	r := newTestEngine(h)
	s := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/silhouette/remove-background", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if st := h.Removal.Handle().State(); st != bgremove.Uninitialized {
		t.Errorf("remover state = %v, want no work started", st)
	}
}

func TestRemoveBackgroundSuccess(t *testing.T) {
	remover := bgremove.RemoverFunc(func(_ context.Context, img []byte) ([]byte, error) {
		return append([]byte("cut:"), img...), nil
	})
	h := newTestHandlers(remover)
	r := newTestEngine(h)
	s := createSession(t, r)
	do(t, r, http.MethodPut, "/api/sessions/"+s.ID+"/silhouette/url", gin.H{"url": "https://example.com/owl.png"})

	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/silhouette/remove-background", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decode[sessionView](t, w)
	if !got.HasUpload || got.SilhouetteURL != "" {
		t.Errorf("result should replace the URL with an upload: %+v", got)
	}
	if got.Removal.Busy || got.Removal.Label != bgremove.LabelIdle {
		t.Errorf("removal trigger = %+v, want idle", got.Removal)
	}
}

func TestRemoveBackgroundCrossOrigin(t *testing.T) {
	remover := bgremove.RemoverFunc(func(_ context.Context, img []byte) ([]byte, error) { return img, nil })
	h := newTestHandlers(remover)
	r := newTestEngine(h)
	s := createSession(t, r)
	do(t, r, http.MethodPut, "/api/sessions/"+s.ID+"/silhouette/url", gin.H{"url": "https://example.com/private.png"})

	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/silhouette/remove-background", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	body := decode[map[string]any](t, w)
	if body["cross_origin"] != true {
		t.Errorf("cross_origin = %v, want true", body["cross_origin"])
	}
	if msg := body["error"].(string); !strings.HasPrefix(msg, "Could not remove background.") || !strings.Contains(msg, "cross-origin") {
		t.Errorf("error = %q", msg)
	}

	st := do(t, r, http.MethodGet, "/api/sessions/"+s.ID+"/silhouette/remove-background/status", nil)
	status := decode[struct {
		Removal   session.Trigger `json:"removal"`
		LastError string          `json:"last_error"`
	}](t, st)
	if status.Removal.Busy || status.Removal.Label != bgremove.LabelIdle {
		t.Errorf("removal trigger = %+v, want restored", status.Removal)
	}
	if status.LastError == "" {
		t.Error("last_error should be recorded")
	}
}

func TestRemoveBackgroundModelFailure(t *testing.T) {
	h := newTestHandlers(nil)
	r := newTestEngine(h)
	s := createSession(t, r)
	do(t, r, http.MethodPut, "/api/sessions/"+s.ID+"/silhouette/url", gin.H{"url": "https://example.com/owl.png"})

	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/silhouette/remove-background", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestExport(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	s := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/export", cards.FormState{Name: "  Great Blue  Heron "})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="great-blue-heron.png"` {
		t.Errorf("content disposition = %q", cd)
	}

	w = do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/export?format=webp", cards.FormState{})
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="bird-card.webp"` {
		t.Errorf("content disposition = %q", cd)
	}

	w = do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/export?format=gif", cards.FormState{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("gif status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestExportFailureRestoresTrigger(t *testing.T) {
	h := newTestHandlers(nil)
	h.Rasterizer = &fakeRasterizer{err: errors.New("boom")}
	r := newTestEngine(h)
	s := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/export", cards.FormState{})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	got, err := h.Sessions.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Export.Busy || got.Export.Label != session.ExportIdle {
		t.Errorf("export trigger = %+v, want idle", got.Export)
	}
}

func TestConcurrentExportIsRefused(t *testing.T) {
	h := newTestHandlers(nil)
	hold := make(chan struct{})
	h.Rasterizer = &fakeRasterizer{hold: hold}
	r := newTestEngine(h)
	s := createSession(t, r)

	var wg sync.WaitGroup
	wg.Add(1)
	var first *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		first = do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/export", cards.FormState{})
	}()

	for {
		got, _ := h.Sessions.Get(s.ID)
		if got.Export.Busy {
			if got.Export.Label != session.ExportActive {
				t.Errorf("busy label = %q, want %q", got.Export.Label, session.ExportActive)
			}
			break
		}
	}
	w := do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/export", cards.FormState{})
	if w.Code != http.StatusConflict {
		t.Errorf("second export = %d, want %d", w.Code, http.StatusConflict)
	}
	close(hold)
	wg.Wait()
	if first.Code != http.StatusOK {
		t.Errorf("first export = %d, want %d", first.Code, http.StatusOK)
	}
}

func TestShareRoundTrip(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	s := createSession(t, r)
	do(t, r, http.MethodPost, "/api/sessions/"+s.ID+"/background/nudge", gin.H{"dx": 5, "dy": 0})

	w := do(t, r, http.MethodPost, "/api/share", gin.H{
		"form":       cards.FormState{Name: "Kea", PowerText: "tuck [fish]"},
		"session_id": s.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	created := decode[map[string]string](t, w)
	if !strings.HasPrefix(created["link"], "http://cards.test/?share=") {
		t.Errorf("link = %q", created["link"])
	}

	w = do(t, r, http.MethodGet, "/api/share/"+created["token"], nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get share = %d", w.Code)
	}
	got := decode[struct {
		Card struct {
			Form      cards.FormState      `json:"form"`
			Transform compositor.Transform `json:"transform"`
		} `json:"card"`
	}](t, w)
	if got.Card.Form.Name != "Kea" || got.Card.Transform.OffsetX != 5 {
		t.Errorf("shared card = %+v", got.Card)
	}

	w = do(t, r, http.MethodGet, "/api/share/qr?token="+created["token"], nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("qr = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	w = do(t, r, http.MethodGet, "/api/share/qr?format=webp&size=128&token="+created["token"], nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/webp" {
		t.Errorf("webp qr = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestShareInvalidToken(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	for _, path := range []string{"/api/share/!!!", "/api/share/qr?token="} {
		w := do(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want %d", path, w.Code, http.StatusBadRequest)
		}
	}
}

func TestEditorPage(t *testing.T) {
	h := newTestHandlers(nil)
	h.Breakpoint = 900
	r := newTestEngine(h)
	w := do(t, r, http.MethodGet, "/?share=garbage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`data-breakpoint="900"`, `data-share=""`, `value="bonus"`, `value="an"`, "Remove background"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	w = do(t, r, http.MethodGet, "/static/editor.js", nil)
	if w.Code != http.StatusOK {
		t.Errorf("static = %d", w.Code)
	}
}

func TestOversizedQuantitiesAreRejected(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	s := createSession(t, r)
	for _, tc := range []struct {
		name string
		form gin.H
	}{
		{"eggs", gin.H{"eggs": 1_000_000_000}},
		{"food", gin.H{"food": gin.H{"seed": 2_000_000}}},
	} {
		for _, path := range []string{"/api/preview", "/api/sessions/" + s.ID + "/export"} {
			w := do(t, r, http.MethodPost, path, tc.form)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s %s = %d, want %d", tc.name, path, w.Code, http.StatusBadRequest)
			}
		}
	}

	w := do(t, r, http.MethodPost, "/api/preview", gin.H{"eggs": cards.MaxEggs, "food": gin.H{"seed": cards.MaxFood}})
	if w.Code != http.StatusOK {
		t.Errorf("preview at the limits = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSharedQuantitiesAreClamped(t *testing.T) {
	r := newTestEngine(newTestHandlers(nil))
	token, err := share.Encode(share.Card{Form: cards.FormState{
		Name: "Greedy",
		Eggs: 2_000_000,
		Food: map[string]int{"seed": 2_000_000},
	}})
	if err != nil {
		t.Fatal(err)
	}
	w := do(t, r, http.MethodGet, "/api/share/"+token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[struct {
		Card struct {
			Form cards.FormState `json:"form"`
		} `json:"card"`
		Preview struct {
			Eggs string `json:"eggs"`
			Food string `json:"food"`
		} `json:"preview"`
	}](t, w)
	if got.Card.Form.Eggs != cards.MaxEggs {
		t.Errorf("eggs = %d, want %d", got.Card.Form.Eggs, cards.MaxEggs)
	}
	if n := strings.Count(got.Preview.Eggs, "<picture"); n != cards.MaxEggs {
		t.Errorf("egg pictures = %d, want %d", n, cards.MaxEggs)
	}
	if n := strings.Count(got.Preview.Food, "<picture"); n != cards.MaxFood {
		t.Errorf("food pictures = %d, want %d", n, cards.MaxFood)
	}
}
