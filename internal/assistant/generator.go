package assistant

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("assistant_not_configured")
	ErrEmptyResponse = errors.New("assistant_empty_response")
	ErrTaskNotFound  = errors.New("task_not_found")
	ErrInvalidInput  = errors.New("invalid_input")
)

// VideoRequest describes an image-to-video generation.
type VideoRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
	AspectRatio string `json:"aspectRatio"`
}

// Operation is a long-running generation as reported by the provider.
type Operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	VideoURI string `json:"videoUri,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Generator produces text and media. Results only ever feed an editing form;
// nothing here writes to the product store.
type Generator interface {
	Describe(ctx context.Context, productName string) (string, error)
	StartVideo(ctx context.Context, req VideoRequest) (Operation, error)
	PollVideo(ctx context.Context, op Operation) (Operation, error)
}
