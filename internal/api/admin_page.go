package api

import (
	_ "embed"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed assets/admin.html
var embeddedAdminPage []byte

// AdminPage serves the moderation UI shell.
// A page on disk takes precedence over the embedded one.
type AdminPage struct {
	path string
	log  zerolog.Logger
}

// NewAdminPage creates the /admin handler; path may be empty
func NewAdminPage(path string, log zerolog.Logger) *AdminPage {
	return &AdminPage{
		path: path,
		log:  log.With().Str("handler", "admin_page").Logger(),
	}
}

// Serve handles GET /admin
func (p *AdminPage) Serve(c *gin.Context) {
	if p.path != "" {
		body, err := os.ReadFile(p.path)
		if err == nil {
			c.Data(http.StatusOK, "text/html; charset=utf-8", body)
			return
		}
		p.log.Warn().Err(err).Str("path", p.path).Msg("Admin page not readable, serving embedded shell")
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", embeddedAdminPage)
}
