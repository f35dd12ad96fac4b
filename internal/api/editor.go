package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youruser/birdcard/internal/cards"
	"github.com/youruser/birdcard/internal/share"
	"github.com/youruser/birdcard/internal/web"
)

const defaultBreakpoint = 768

type editorPage struct {
	Breakpoint  int
	Share       string
	Habitats    []string
	Foods       []string
	Nests       []string
	PowerColors []string
	PowerIcons  []struct {
		Key   string
		Asset string
	}
	Continents []cards.Continent
	Expansions []string
}

func registerEditor(r *gin.Engine, h *Handlers) {
	tmpl, err := web.Templates()
	if err != nil {
		panic(err)
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/", h.editor)
}

func (h *Handlers) editor(c *gin.Context) {
	bp := h.Breakpoint
	if bp <= 0 {
		bp = defaultBreakpoint
	}
	page := editorPage{
		Breakpoint:  bp,
		Habitats:    cards.Habitats,
		Foods:       cards.FoodTypes,
		Nests:       cards.NestTypes,
		PowerColors: cards.PowerColors,
		PowerIcons:  cards.PowerIcons,
		Continents:  cards.Continents,
		Expansions:  cards.Expansions,
	}
	// A bad token just opens an empty editor.
	if token := c.Query("share"); token != "" {
		if _, err := share.Decode(token); err == nil {
			page.Share = token
		} else {
			h.logger().Debug("ignoring share token", "error", err)
		}
	}
	c.HTML(http.StatusOK, "editor.html.tmpl", page)
}
