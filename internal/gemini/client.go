package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Google Generative Language REST API: image editing
// via generateContent, video synthesis via predictLongRunning plus
// operation polling, and authenticated artifact download.
type Client struct {
	baseURL    string
	apiKey     string
	imageModel string
	videoModel string
	httpClient *http.Client
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type predictLongRunningRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	SampleCount int    `json:"sampleCount,omitempty"`
}

// Operation is the state of a long-running video generation job.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Response json.RawMessage `json:"response,omitempty"`
}

type videoOperationResponse struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}

func NewClient(baseURL, apiKey, imageModel, videoModel string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		imageModel: imageModel,
		videoModel: videoModel,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// EditImage submits the image plus an edit instruction and returns the
// single edited image the model produces. A response without image data is
// an error.
func (c *Client) EditImage(ctx context.Context, imageData []byte, mimeType, instruction string) ([]byte, error) {
	reqBody := generateContentRequest{
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{InlineData: &inlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(imageData),
					}},
					{Text: instruction},
				},
			},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	url := c.baseURL + "/models/" + c.imageModel + ":generateContent"
	var result generateContentResponse
	if err := c.postJSON(ctx, url, reqBody, &result); err != nil {
		return nil, fmt.Errorf("failed to edit image: %w", err)
	}

	for _, candidate := range result.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode edited image data: %w", err)
			}
			return data, nil
		}
	}

	return nil, fmt.Errorf("no image data in generation response")
}

// StartVideo submits a video synthesis job seeded with the given image and
// returns the name of the long-running operation to poll.
func (c *Client) StartVideo(ctx context.Context, imageData []byte, mimeType, prompt string) (string, error) {
	reqBody := predictLongRunningRequest{
		Instances: []videoInstance{
			{
				Prompt: prompt,
				Image: &videoImage{
					BytesBase64Encoded: base64.StdEncoding.EncodeToString(imageData),
					MimeType:           mimeType,
				},
			},
		},
		Parameters: videoParameters{
			AspectRatio: "16:9",
			SampleCount: 1,
		},
	}

	url := c.baseURL + "/models/" + c.videoModel + ":predictLongRunning"
	var op Operation
	if err := c.postJSON(ctx, url, reqBody, &op); err != nil {
		return "", fmt.Errorf("failed to start video generation: %w", err)
	}

	if op.Name == "" {
		return "", fmt.Errorf("no operation name in video generation response")
	}

	return op.Name, nil
}

// PollOperation fetches the current state of a video generation operation.
func (c *Client) PollOperation(ctx context.Context, operationName string) (*Operation, error) {
	url := c.baseURL + "/" + strings.TrimPrefix(operationName, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to poll operation: status %d, body: %s", resp.StatusCode, string(body))
	}

	var op Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to decode operation: %w", err)
	}

	return &op, nil
}

// VideoURI extracts the single generated video reference from a completed
// operation. Missing samples or an empty URI are errors.
func (op *Operation) VideoURI() (string, error) {
	if len(op.Response) == 0 {
		return "", fmt.Errorf("operation has no response payload")
	}

	var resp videoOperationResponse
	if err := json.Unmarshal(op.Response, &resp); err != nil {
		return "", fmt.Errorf("failed to decode operation response: %w", err)
	}

	samples := resp.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || samples[0].Video.URI == "" {
		return "", fmt.Errorf("no video URI in operation response")
	}

	return samples[0].Video.URI, nil
}

// Download fetches the bytes of a generated artifact by URI.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download artifact: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (c *Client) postJSON(ctx context.Context, url string, reqBody, result any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return nil
}
