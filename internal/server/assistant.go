package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scanprice/internal/assistant"
)

type describeRequest struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
}

type videoRequest struct {
	Subject     string `json:"subject"`
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
	AspectRatio string `json:"aspectRatio"`
}

func (s *Server) GenerateDescription(c *gin.Context) {
	var req describeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	task, err := s.assistantTasks.Describe(c.Request.Context(), subjectOrDefault(req.Subject), req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": task})
}

func (s *Server) GenerateVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	task, err := s.assistantTasks.Video(c.Request.Context(), subjectOrDefault(req.Subject), assistant.VideoRequest{
		Prompt:      strings.TrimSpace(req.Prompt),
		ImageBase64: req.ImageBase64,
		MimeType:    strings.TrimSpace(req.MimeType),
		AspectRatio: strings.TrimSpace(req.AspectRatio),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": task})
}

func (s *Server) GetAssistantTask(c *gin.Context) {
	task, err := s.assistantTasks.Get(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (s *Server) GetLatestAssistantTask(c *gin.Context) {
	task, err := s.assistantTasks.Latest(strings.TrimSpace(c.Param("subject")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

// subjectOrDefault groups unnamed requests under one form.
func subjectOrDefault(subject string) string {
	if trimmed := strings.TrimSpace(subject); trimmed != "" {
		return trimmed
	}
	return "default"
}
