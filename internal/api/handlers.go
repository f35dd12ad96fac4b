package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/youruser/birdcard/internal/bgremove"
	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/compositor"
	"github.com/youruser/birdcard/internal/export"
	imagepkg "github.com/youruser/birdcard/internal/image"
	"github.com/youruser/birdcard/internal/render"
	"github.com/youruser/birdcard/internal/session"
	"github.com/youruser/birdcard/internal/share"
)

const defaultMaxUpload = 10 << 20

// Handlers carries the dependencies of every route.
type Handlers struct {
	Sessions   *session.Store
	Removal    *bgremove.Service
	Rasterizer export.Rasterizer
	// Presets loads the preset list; it is called per request so edits to the
	// data directory show up without a restart.
	Presets        func() ([]cards.Preset, error)
	PublicURL      string
	MaxUploadBytes int64
	Breakpoint     int
	Logger         hclog.Logger
}

func (h *Handlers) logger() hclog.Logger {
	if h.Logger == nil {
		return hclog.NewNullLogger()
	}
	return h.Logger
}

func (h *Handlers) maxUpload() int64 {
	if h.MaxUploadBytes <= 0 {
		return defaultMaxUpload
	}
	return h.MaxUploadBytes
}

// sessionView is the JSON shape of a session after any background change.
type sessionView struct {
	ID            string               `json:"id"`
	Transform     compositor.Transform `json:"transform"`
	Style         compositor.Style     `json:"style"`
	CSS           string               `json:"css"`
	PositionLabel string               `json:"position_label"`
	SizeLabel     string               `json:"size_label"`
	SilhouetteURL string               `json:"silhouette_url"`
	HasUpload     bool                 `json:"has_upload"`
	Removal       session.Trigger      `json:"removal"`
	Export        session.Trigger      `json:"export"`
}

func viewOf(s session.Session) sessionView {
	st := s.Style()
	return sessionView{
		ID:            s.ID,
		Transform:     s.Transform,
		Style:         st,
		CSS:           st.CSS(),
		PositionLabel: s.Transform.PositionLabel(),
		SizeLabel:     s.Transform.SizeLabel(),
		SilhouetteURL: s.Source.URL,
		HasUpload:     s.Source.DataURL != "",
		Removal:       s.Removal,
		Export:        s.Export,
	}
}

// writeError maps package errors to status codes.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, share.ErrInvalidToken), errors.Is(err, bgremove.ErrNoSource):
		status = http.StatusBadRequest
	case errors.Is(err, bgremove.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, imagepkg.ErrCrossOrigin):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		h.logger().Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) health(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"sessions": h.Sessions.Len(),
	}
	if h.Removal != nil {
		body["remover"] = h.Removal.Handle().State().String()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handlers) preview(c *gin.Context) {
	var form cards.FormState
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, render.Render(form))
}

func (h *Handlers) presets(c *gin.Context) {
	var opt cards.FilterOptions
	if err := c.ShouldBindQuery(&opt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Presets == nil {
		c.JSON(http.StatusOK, gin.H{"count": 0, "presets": []cards.Preset{}})
		return
	}
	all, err := h.Presets()
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := cards.Filter(all, opt)
	if out == nil {
		out = []cards.Preset{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "presets": out})
}

/* ── sessions and background ── */

func (h *Handlers) createSession(c *gin.Context) {
	c.JSON(http.StatusCreated, viewOf(h.Sessions.Create()))
}

func (h *Handlers) background(c *gin.Context) {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

func (h *Handlers) applyTransform(c *gin.Context, op func(compositor.Transform) compositor.Transform) {
	s, err := h.Sessions.Transform(c.Param("id"), op)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

func (h *Handlers) nudge(c *gin.Context) {
	var req struct {
		DX int `json:"dx"`
		DY int `json:"dy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.applyTransform(c, func(t compositor.Transform) compositor.Transform {
		return compositor.Nudge(t, req.DX, req.DY)
	})
}

func (h *Handlers) zoom(c *gin.Context) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.applyTransform(c, func(t compositor.Transform) compositor.Transform {
		return compositor.Zoom(t, req.Delta)
	})
}

func (h *Handlers) flip(c *gin.Context) {
	h.applyTransform(c, compositor.Flip)
}

func (h *Handlers) reset(c *gin.Context) {
	h.applyTransform(c, func(compositor.Transform) compositor.Transform {
		return compositor.Reset()
	})
}

/* ── silhouette source ── */

func (h *Handlers) silhouetteURL(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.Sessions.Update(c.Param("id"), func(s *session.Session) {
		s.Source = s.Source.WithURL(req.URL)
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

func (h *Handlers) silhouetteUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if fh.Size > h.maxUpload() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxUpload())})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload()))
	if err != nil {
		h.writeError(c, err)
		return
	}
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "text/xml") || strings.HasPrefix(mime, "text/plain") {
		if strings.HasSuffix(strings.ToLower(fh.Filename), ".svg") {
			mime = "image/svg+xml"
		}
	}
	if !strings.HasPrefix(mime, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not an image: " + mime})
		return
	}

	dataURL := imagepkg.EncodeDataURL(mime, data)
	s, err := h.Sessions.Update(c.Param("id"), func(s *session.Session) {
		s.Source = s.Source.WithUpload(dataURL)
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	v := viewOf(s)
	c.JSON(http.StatusOK, gin.H{"filename": fh.Filename, "session": v})
}

func (h *Handlers) removeBackground(c *gin.Context) {
	id := c.Param("id")
	s, err := h.Sessions.Get(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ref := s.Source.Ref()
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": bgremove.UserMessage(bgremove.ErrNoSource)})
		return
	}
	if h.Removal == nil {
		h.writeError(c, bgremove.ErrUnavailable)
		return
	}

	if _, err := h.Sessions.Begin(id, session.RemovalTrigger, bgremove.LabelLoading); err != nil {
		h.writeError(c, err)
		return
	}
	defer h.Sessions.End(id, session.RemovalTrigger, bgremove.LabelIdle)

	dataURL, err := h.Removal.Run(c.Request.Context(), ref, func(label string) {
		h.Sessions.SetLabel(id, session.RemovalTrigger, label)
	})
	if err != nil {
		msg := bgremove.UserMessage(err)
		h.Sessions.Update(id, func(s *session.Session) { s.LastError = msg })
		status := http.StatusBadGateway
		if errors.Is(err, bgremove.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": msg, "cross_origin": errors.Is(err, imagepkg.ErrCrossOrigin)})
		return
	}

	s, err = h.Sessions.Update(id, func(s *session.Session) {
		s.Source = s.Source.WithUpload(dataURL)
		s.LastError = ""
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	v := viewOf(s)
	v.Removal = session.Trigger{Label: bgremove.LabelIdle}
	c.JSON(http.StatusOK, v)
}

func (h *Handlers) removalStatus(c *gin.Context) {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	body := gin.H{"removal": s.Removal}
	if s.LastError != "" {
		body["last_error"] = s.LastError
	}
	if h.Removal != nil {
		body["remover"] = h.Removal.Handle().State().String()
	}
	c.JSON(http.StatusOK, body)
}

/* ── export ── */

func (h *Handlers) exportCard(c *gin.Context) {
	id := c.Param("id")
	var form cards.FormState
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := imagepkg.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.Sessions.Begin(id, session.ExportTrigger, session.ExportActive)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer h.Sessions.End(id, session.ExportTrigger, session.ExportIdle)

	res, err := export.Export(c.Request.Context(), h.Rasterizer, form, s.Transform, s.Source, format)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, res.Filename))
	c.Header("Content-Length", strconv.Itoa(len(res.Data)))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

/* ── share ── */

func (h *Handlers) shareLink(token string) string {
	return strings.TrimRight(h.PublicURL, "/") + "/?share=" + token
}

func (h *Handlers) createShare(c *gin.Context) {
	var req struct {
		Form      cards.FormState `json:"form"`
		SessionID string          `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, src := compositor.Default(), compositor.Source{}
	if req.SessionID != "" {
		s, err := h.Sessions.Get(req.SessionID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		t, src = s.Transform, s.Source
	}
	token, err := share.Encode(share.FromSession(req.Form, t, src))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"link":  h.shareLink(token),
		"qr":    "/api/share/qr?token=" + token,
	})
}

func (h *Handlers) getShare(c *gin.Context) {
	card, err := share.Decode(c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"card":    card,
		"preview": render.Render(card.Form),
		"style":   compositor.Recompute(card.Transform, compositor.Source{URL: card.Image}),
		"summary": share.Summary(card.Form),
	})
}

func (h *Handlers) shareQR(c *gin.Context) {
	token := c.Query("token")
	if _, err := share.Decode(token); err != nil {
		h.writeError(c, err)
		return
	}
	size := 400
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = v
	}
	format, err := imagepkg.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if format == imagepkg.FormatPNG {
		b, err := imagepkg.GenerateQRPNG(h.shareLink(token), size)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", b)
		return
	}
	img, err := imagepkg.GenerateQRImage(h.shareLink(token), size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	b, err := imagepkg.EncodeBytes(img, format)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, imagepkg.ContentType(format), b)
}
