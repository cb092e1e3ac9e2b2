// Package client drives the vision endpoints from the user's side: it calls
// the server, keeps the session state and exports the result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civic_horizon/domain"
	"civic_horizon/mailer"
)

const maxResponseBytes = 32 << 20

// VisionRequest is the body of /api/generateManifesto.
type VisionRequest struct {
	Answers        map[string]string `json:"answers"`
	Themes         []string          `json:"themes,omitempty"`
	ExtraInfo      string            `json:"extraInfo,omitempty"`
	Mode           string            `json:"mode,omitempty"`
	PreviousVision string            `json:"previousVision,omitempty"`
}

// VisionResponse is the vision contract: Vision is Markdown with headings.
type VisionResponse struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Vision  string `json:"vision"`
}

type ImageRequest struct {
	Prompt     string `json:"prompt,omitempty"`
	VisionText string `json:"visionText,omitempty"`
}

type ImageResponse struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type SummaryResponse struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// API is a JSON client for the vision server. Responses are checked against
// their expected shape before use.
type API struct {
	base string
	http *http.Client
}

// NewAPI creates a client for the server at baseURL. A nil client gets a
// plain http.Client with a generous timeout; image generation is slow.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 150 * time.Second}
	}
	return &API{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *API) Vision(ctx context.Context, req VisionRequest) (VisionResponse, error) {
	var out VisionResponse
	if err := a.post(ctx, "/api/generateManifesto", req, &out); err != nil {
		return VisionResponse{}, err
	}
	if strings.TrimSpace(out.Vision) == "" {
		return VisionResponse{}, domain.ParseError("/api/generateManifesto returned no vision text", nil)
	}
	return out, nil
}

func (a *API) Image(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	var out ImageResponse
	if err := a.post(ctx, "/api/generateImage", req, &out); err != nil {
		return ImageResponse{}, err
	}
	if strings.TrimSpace(out.URL) == "" {
		return ImageResponse{}, domain.ParseError("/api/generateImage returned no url", nil)
	}
	return out, nil
}

// FollowUpQuestions rejects a reply whose questions field is not an array.
func (a *API) FollowUpQuestions(ctx context.Context, answers map[string]string) ([]string, error) {
	var out struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := a.post(ctx, "/api/getFollowUpQuestions", map[string]any{"answers": answers}, &out); err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(out.Questions)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, domain.ParseError("invalid response format from follow-up API", nil)
	}
	var qs []string
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, domain.ParseError("invalid response format from follow-up API", err)
	}
	return qs, nil
}

func (a *API) Summarize(ctx context.Context, vision string) (SummaryResponse, error) {
	var out SummaryResponse
	if err := a.post(ctx, "/api/summarizeVision", map[string]string{"vision": vision}, &out); err != nil {
		return SummaryResponse{}, err
	}
	return out, nil
}

func (a *API) SendEmail(ctx context.Context, msg mailer.Message) error {
	var out struct {
		Success bool `json:"success"`
	}
	if err := a.post(ctx, "/api/sendEmail", msg, &out); err != nil {
		return err
	}
	if !out.Success {
		return domain.ParseError("email endpoint did not confirm success", nil)
	}
	return nil
}

// post sends in as JSON and decodes a 2xx object reply into out. Non-2xx
// replies become collaborator errors carrying the server's payload.
func (a *API) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return domain.CollaboratorError(path+" request failed", nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.CollaboratorError(path+" read failed", nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.CollaboratorError(
			fmt.Sprintf("%s returned status %d", path, resp.StatusCode),
			errorPayload(data),
			fmt.Errorf("http status %d", resp.StatusCode),
		)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.ParseError(path+" returned a non-object body", nil)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return domain.ParseError(path+" returned a malformed body", err)
	}
	return nil
}

// errorPayload keeps the server's JSON error object, or the raw text.
func errorPayload(data []byte) any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		return m
	}
	return strings.TrimSpace(string(data))
}
