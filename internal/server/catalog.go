package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scanprice/internal/catalog"
)

const maxQRSize = 2048

func (s *Server) GetPublicProduct(c *gin.Context) {
	view, err := s.catalogSvc.Public(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GetProductQRCode(c *gin.Context) {
	size, err := parseQRSize(c.Query("size"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	img, err := s.catalogSvc.QR(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) DownloadQRArchive(c *gin.Context) {
	size, err := parseQRSize(c.Query("size"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.catalogSvc.WriteArchive(c.Request.Context(), &buf, size); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(s.cfg.AppName+"-qr-codes.zip"))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) DownloadLabels(c *gin.Context) {
	pdf, err := s.catalogSvc.Labels(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(s.cfg.AppName+"-labels.pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func parseQRSize(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return catalog.DefaultQRSize, nil
	}
	size, err := strconv.Atoi(trimmed)
	if err != nil || size < catalog.MinQRSize || size > maxQRSize {
		return 0, newValidationError("size", "invalid_size", fmt.Sprintf("size must be between %d and %d", catalog.MinQRSize, maxQRSize))
	}
	return size, nil
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
