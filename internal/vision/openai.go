package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"boletin-iglesia/internal/model"
)

const (
	defaultAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultModel  = "gpt-4o"
)

const bulletinPrompt = `Extract the weekly church bulletin from this image.
Return a single JSON object with these fields (omit any field that is not present):
- week_of: the week's date in YYYY-MM-DD format
- service_time: the main service day and time, as written (e.g. "Domingo 9:00 - Culto Principal")
- sermon_leader: who preaches
- worship_leader: who leads worship
- sunday_school: object with adults, youth, pre, children, the teacher of each class
- announcements: array of {title, body}, in the order they appear

Keep names and text in the original language.
Return ONLY the JSON object, no other text.`

// Client is an OpenAI chat-completions vision client.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the chat completions endpoint.
func WithAPIURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new OpenAI Vision client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractBulletin sends a photo or scan of a printed bulletin to the vision
// API and parses the bulletin it describes.
func (c *Client) ExtractBulletin(ctx context.Context, imageData []byte) (model.Bulletin, error) {
	if c.apiKey == "" {
		return model.Bulletin{}, fmt.Errorf("OpenAI API key not configured")
	}

	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": bulletinPrompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": dataURL(imageData),
						},
					},
				},
			},
		},
		"max_tokens": 4096,
	}

	content, err := c.complete(ctx, reqBody)
	if err != nil {
		return model.Bulletin{}, err
	}

	var b model.Bulletin
	if err := json.Unmarshal([]byte(content), &b); err != nil {
		return model.Bulletin{}, fmt.Errorf("parsing bulletin: %w (content: %s)", err, content)
	}
	return b, nil
}

func (c *Client) complete(ctx context.Context, reqBody map[string]interface{}) (string, error) {
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return stripCodeFence(apiResp.Choices[0].Message.Content), nil
}

// stripCodeFence removes the markdown fence models like to wrap JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func dataURL(imageData []byte) string {
	mediaType := "image/jpeg"
	if len(imageData) > 8 && string(imageData[0:8]) == "\x89PNG\r\n\x1a\n" {
		mediaType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(imageData))
}
