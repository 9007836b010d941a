// Package heygen talks to the avatar/video provider. Avatars are first-class
// provider identities: a video job can only reference an avatar that was
// created beforehand, so the create-then-generate sequence cannot collapse
// into one call.
package heygen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider job statuses as reported by the status endpoint.
const (
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
	TestMode   bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	testMode   bool
	now        func() time.Time
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.heygen.com/v2"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
		testMode:   opts.TestMode,
		now:        time.Now,
	}
}

// Dimension is the output video size.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// JobStatus is one parsed status-check response.
type JobStatus struct {
	Status       string
	VideoURL     string
	ErrorMessage string
}

type avatarRequest struct {
	Base64 string `json:"base64"`
	Name   string `json:"name"`
}

type avatarResponse struct {
	Data struct {
		AvatarID string `json:"avatar_id"`
	} `json:"data"`
}

type characterSpec struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type voiceSpec struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type videoInput struct {
	Character characterSpec `json:"character"`
	Voice     voiceSpec     `json:"voice"`
}

type videoRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Test        bool         `json:"test"`
	Dimension   Dimension    `json:"dimension"`
}

type videoResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type statusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

// CreateAvatar registers the host portrait as a provider avatar identity and
// returns its id. Every call uses a fresh time-derived name so repeated
// submissions never collide provider-side.
func (c *Client) CreateAvatar(ctx context.Context, image []byte) (string, error) {
	if c.token == "" {
		return "", errors.New("heygen: API key is missing")
	}
	if len(image) == 0 {
		return "", errors.New("heygen: image bytes required")
	}
	payload := avatarRequest{
		Base64: base64.StdEncoding.EncodeToString(image),
		Name:   fmt.Sprintf("host_%d", c.now().UnixNano()),
	}
	var out avatarResponse
	if err := c.post(ctx, "/avatar/from_image", payload, &out); err != nil {
		return "", err
	}
	if out.Data.AvatarID == "" {
		return "", errors.New("heygen: response missing avatar_id")
	}
	return out.Data.AvatarID, nil
}

// SubmitVideo submits one video-input descriptor pairing the avatar with the
// publicly fetchable audio URL and returns the provider's job id.
func (c *Client) SubmitVideo(ctx context.Context, avatarID, audioURL string, dim Dimension) (string, error) {
	if c.token == "" {
		return "", errors.New("heygen: API key is missing")
	}
	payload := videoRequest{
		VideoInputs: []videoInput{{
			Character: characterSpec{Type: "avatar", AvatarID: avatarID, AvatarStyle: "normal"},
			Voice:     voiceSpec{Type: "audio", AudioURL: audioURL},
		}},
		Test:      c.testMode,
		Dimension: dim,
	}
	var out videoResponse
	if err := c.post(ctx, "/video/generate", payload, &out); err != nil {
		return "", err
	}
	if out.Data.VideoID == "" {
		return "", errors.New("heygen: response missing video_id")
	}
	return out.Data.VideoID, nil
}

// VideoStatus fetches the job's current state. A transport or HTTP failure is
// an error here; success of the HTTP call says nothing about the job itself,
// which must be read from the parsed status field.
func (c *Client) VideoStatus(ctx context.Context, videoID string) (*JobStatus, error) {
	endpoint := c.baseURL + "/video_status.get?video_id=" + videoID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("heygen: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("heygen: decode status: %w", err)
	}
	st := &JobStatus{
		Status:   out.Data.Status,
		VideoURL: out.Data.VideoURL,
	}
	if out.Data.Error != nil {
		st.ErrorMessage = out.Data.Error.Message
	}
	return st, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		// Surface the provider's raw error text untouched.
		return fmt.Errorf("heygen: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("heygen: decode response: %w", err)
	}
	return nil
}
