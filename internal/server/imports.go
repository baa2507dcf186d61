package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

func (s *Server) ImportProducts(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}

	summary, err := s.importSvc.ImportProducts(c.Request.Context(), filename, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) ImportSales(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}

	summary, err := s.importSvc.ImportSales(c.Request.Context(), filename, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func readUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "the file could not be read"))
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "the file could not be read"))
		return "", nil, false
	}
	return header.Filename, data, true
}
