package http

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, health *HealthHandler, streams *StreamHandler) {
	api := router.Group("/api")
	{
		api.GET("/health", health.Health)
		api.GET("/config", health.ViewerConfig)
		api.GET("/streams", streams.ListStreams)
		api.GET("/status", streams.Status)
	}
}

// publicFS hides dotfiles (.env, .git) and refuses directories that have no
// index.html, so nothing is ever listed.
type publicFS struct {
	root http.FileSystem
}

func (p publicFS) Open(name string) (http.File, error) {
	for _, segment := range strings.Split(name, "/") {
		if strings.HasPrefix(segment, ".") {
			return nil, fs.ErrNotExist
		}
	}

	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		index, err := p.root.Open(path.Join(name, "index.html"))
		if err != nil {
			f.Close()
			return nil, fs.ErrNotExist
		}
		index.Close()
	}
	return f, nil
}

// ServeStatic serves the browser front-end from dir for every path that no
// route matched. Unknown /api paths keep answering with a JSON 404.
func ServeStatic(router *gin.Engine, dir string) bool {
	if dir == "" {
		return false
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return false
	}

	files := http.FileServer(publicFS{root: http.Dir(dir)})
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Route non trouvée",
			})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
	return true
}
