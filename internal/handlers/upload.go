package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UploadHandler stores uploaded images on local disk and hands back a
// stable URL; stores and products reference images by URL only.
type UploadHandler struct {
	MediaDir string
	BaseURL  string
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func (h *UploadHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported file type")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read file")
	}
	defer src.Close()

	if err := os.MkdirAll(h.MediaDir, 0o755); err != nil {
		return httpError(err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.MediaDir, name))
	if err != nil {
		return httpError(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"url": fmt.Sprintf("%s/media/%s", h.BaseURL, name),
	})
}
