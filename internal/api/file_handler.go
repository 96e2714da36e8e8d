package api

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/apierrors"
)

// Texture formats the mime package does not know.
var gridTypes = map[string]string{
	".tga": "image/x-targa",
	".j2c": "image/x-j2c",
	".jp2": "image/jp2",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := gridTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// mountStatic serves every configured ServePath directory.
func (s *Server) mountStatic(r gin.IRouter) {
	for _, sp := range s.static {
		prefix := "/" + strings.Trim(sp.URLPath, "/")
		if prefix == "/" {
			s.logger.Warn("serve path at the root ignored", "name", sp.Name)
			continue
		}
		r.GET(prefix+"/*path", staticFiles(sp.Dir))
		s.logger.Info("serving static files", "name", sp.Name, "path", prefix, "dir", sp.Dir)
	}
}

// staticFiles serves regular files below dir. The request path is cleaned
// against "/" before it is joined, so ".." cannot climb out of dir.
func staticFiles(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rel := path.Clean("/" + c.Param("path"))
		if rel == "/" {
			rel = "/index.html"
		}
		name := filepath.Join(dir, filepath.FromSlash(rel))

		f, err := os.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			apierrors.Error(c, apierrors.CodeNotFound)
			return
		}
		if err != nil {
			apierrors.Error(c, apierrors.CodeInternalError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		switch {
		case err != nil:
			apierrors.Error(c, apierrors.CodeInternalError)
		case info.IsDir():
			apierrors.Error(c, apierrors.CodeNotFound)
		default:
			c.Header("Content-Type", contentType(name))
			c.Header("Cache-Control", "public, max-age=3600")
			http.ServeContent(c.Writer, c.Request, "", info.ModTime(), f)
		}
	}
}
