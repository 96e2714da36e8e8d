package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/imaging"
)

// handleImage serves an image asset re-encoded per ?format= and ?w=.
func (s *Server) handleImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}
	opts := imaging.Options{Format: strings.ToLower(c.Query("format"))}
	switch opts.Format {
	case "", "jpg", "jpeg", "png":
	default:
		apierrors.ErrorWithMessage(c, apierrors.CodeInvalidRequest, "format must be jpeg or png")
		return
	}
	if w, err := strconv.Atoi(c.Query("w")); err == nil && w > 0 {
		opts.Width = w
	}
	if q, err := strconv.Atoi(c.Query("q")); err == nil && q > 0 && q <= 100 {
		opts.Quality = q
	}

	data, contentType, err := s.images.Image(c.Request.Context(), id, opts)
	switch {
	case errors.Is(err, grid.ErrNotFound):
		apierrors.Error(c, apierrors.CodeNotFound)
		return
	case errors.Is(err, imaging.ErrUnsupported):
		apierrors.ErrorWithMessage(c, apierrors.CodeInvalidRequest, "asset is not an image")
		return
	case errors.Is(err, imaging.ErrTooLarge):
		apierrors.ErrorWithMessage(c, apierrors.CodeInvalidRequest, "image is too large")
		return
	case err != nil:
		s.logger.Error("image conversion failed", "asset", id, "error", err)
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

// handleTOSCheck answers whether ?uid= must accept the terms before
// entering a region.
func (s *Server) handleTOSCheck(c *gin.Context) {
	uid := c.Query("uid")
	if _, err := uuid.Parse(uid); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}
	decision, err := s.svc.CheckTOS(c.Request.Context(), uid)
	if err != nil {
		s.logger.Error("terms check failed", "user", uid, "error", err)
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, decision)
}
