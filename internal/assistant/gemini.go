package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/scanprice/internal/config"
)

type geminiClient struct {
	apiKey     string
	baseURL    string
	textModel  string
	videoModel string
	client     *http.Client
}

func NewGeminiClient(cfg config.AssistantConfig) Generator {
	return &geminiClient{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		textModel:  cfg.TextModel,
		videoModel: cfg.VideoModel,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type videoInstance struct {
	Prompt string       `json:"prompt"`
	Image  *videoSource `json:"image,omitempty"`
}

type videoSource struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	SampleCount int    `json:"sampleCount"`
}

type predictRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func DescriptionPrompt(productName string) string {
	return fmt.Sprintf("Generate a short, compelling product description for: %q. Keep it under 30 words.", productName)
}

func (c *geminiClient) Describe(ctx context.Context, productName string) (string, error) {
	body := generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: DescriptionPrompt(productName)}}}},
	}
	var resp generateContentResponse
	if err := c.do(ctx, http.MethodPost, "/models/"+c.textModel+":generateContent", body, &resp); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (c *geminiClient) StartVideo(ctx context.Context, req VideoRequest) (Operation, error) {
	instance := videoInstance{Prompt: req.Prompt}
	if req.ImageBase64 != "" {
		instance.Image = &videoSource{BytesBase64Encoded: req.ImageBase64, MimeType: req.MimeType}
	}
	body := predictRequest{
		Instances: []videoInstance{instance},
		Parameters: videoParameters{
			AspectRatio: req.AspectRatio,
			Resolution:  "720p",
			SampleCount: 1,
		},
	}
	var resp operationResponse
	if err := c.do(ctx, http.MethodPost, "/models/"+c.videoModel+":predictLongRunning", body, &resp); err != nil {
		return Operation{}, err
	}
	return toOperation(resp)
}

func (c *geminiClient) PollVideo(ctx context.Context, op Operation) (Operation, error) {
	if op.Name == "" {
		return Operation{}, ErrInvalidInput
	}
	var resp operationResponse
	if err := c.do(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), nil, &resp); err != nil {
		return Operation{}, err
	}
	return toOperation(resp)
}

func toOperation(resp operationResponse) (Operation, error) {
	op := Operation{Name: resp.Name, Done: resp.Done}
	if resp.Error != nil {
		op.Error = resp.Error.Message
		return op, nil
	}
	if samples := resp.Response.GenerateVideoResponse.GeneratedSamples; len(samples) > 0 {
		op.VideoURI = samples[0].Video.URI
	}
	if op.Done && op.VideoURI == "" {
		return op, errors.New("video generation finished without a download link")
	}
	return op, nil
}

func (c *geminiClient) do(ctx context.Context, method, path string, in, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || strings.TrimSpace(apiErr.Error.Message) == "" {
			return fmt.Errorf("gemini request failed: status %d", resp.StatusCode)
		}
		return fmt.Errorf("gemini request failed: %s", strings.TrimSpace(apiErr.Error.Message))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
