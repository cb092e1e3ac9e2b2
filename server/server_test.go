package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic_horizon/domain"
	"civic_horizon/generator"
	"civic_horizon/mailer"
)

type fakeGen struct {
	vision    generator.Vision
	questions []string
	summary   generator.Summary
	image     generator.Image
	err       error

	visionReqs []generator.VisionRequest
	imageReqs  []generator.ImageRequest
}

func (f *fakeGen) GenerateVision(_ context.Context, req generator.VisionRequest) (generator.Vision, error) {
	f.visionReqs = append(f.visionReqs, req)
	return f.vision, f.err
}

func (f *fakeGen) FollowUpQuestions(context.Context, generator.Answers) ([]string, error) {
	return f.questions, f.err
}

func (f *fakeGen) Summarize(context.Context, string) (generator.Summary, error) {
	return f.summary, f.err
}

func (f *fakeGen) GenerateImage(_ context.Context, req generator.ImageRequest) (generator.Image, error) {
	f.imageReqs = append(f.imageReqs, req)
	return f.image, f.err
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func newTestServer(t *testing.T, gen *fakeGen, mail *fakeMailer) http.Handler {
	t.Helper()
	srv, err := New(gen, mail, zerolog.Nop(), Options{MaxBodyBytes: 4 << 10})
	require.NoError(t, err)
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, &fakeMailer{}, zerolog.Nop(), Options{})
	assert.Error(t, err)
	_, err = New(&fakeGen{}, nil, zerolog.Nop(), Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	rec, out := do(t, newTestServer(t, &fakeGen{}, &fakeMailer{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &fakeGen{}, &fakeMailer{})
	for _, path := range []string{"/api/generateManifesto", "/api/generateImage", "/api/getFollowUpQuestions", "/api/sendEmail", "/api/summarizeVision"} {
		rec, out := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.Equal(t, "Method not allowed", out["error"])
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestGenerateVision(t *testing.T) {
	gen := &fakeGen{vision: generator.Vision{Title: "T", Summary: "S", Markdown: "## H\nB"}}
	h := newTestServer(t, gen, &fakeMailer{})

	for _, path := range []string{"/api/generateManifesto", "/api/generateVision"} {
		rec, out := do(t, h, http.MethodPost, path, `{"answers":{"q":"a"},"themes":["economy"]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"title": "T", "summary": "S", "vision": "## H\nB"}, out)
	}
	require.Len(t, gen.visionReqs, 2)
	assert.Equal(t, []string{"economy"}, gen.visionReqs[0].Themes)
}

func TestGenerateVision_Refine(t *testing.T) {
	gen := &fakeGen{vision: generator.Vision{Markdown: "x"}}
	rec, _ := do(t, newTestServer(t, gen, &fakeMailer{}), http.MethodPost, "/api/generateManifesto",
		`{"answers":{"q":"a"},"extraInfo":"trams","mode":"refine","previousVision":"## Old"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	req := gen.visionReqs[0]
	assert.True(t, req.Refining())
	assert.Equal(t, "trams", req.ExtraInfo)
	assert.Equal(t, "## Old", req.PreviousVision)
}

func TestGenerateVision_BadInput(t *testing.T) {
	gen := &fakeGen{}
	h := newTestServer(t, gen, &fakeMailer{})
	cases := map[string]string{
		"not json":       `{`,
		"no answers":     `{}`,
		"answers string": `{"answers":"yes"}`,
		"bad mode":       `{"answers":{"q":"a"},"mode":"rewrite"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, out := do(t, h, http.MethodPost, "/api/generateManifesto", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
	assert.Empty(t, gen.visionReqs)
}

func TestGenerateVision_BodyTooLarge(t *testing.T) {
	body := `{"answers":{"q":"` + strings.Repeat("a", 8<<10) + `"}}`
	rec, _ := do(t, newTestServer(t, &fakeGen{}, &fakeMailer{}), http.MethodPost, "/api/generateManifesto", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGenerateVision_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		details any
	}{
		{"validation", domain.ValidationError("answers are required"), http.StatusBadRequest, nil},
		{"collaborator", domain.CollaboratorError("vision generation failed", map[string]any{"status": float64(429)}, errors.New("quota")), http.StatusInternalServerError, map[string]any{"status": float64(429)}},
		{"parse", domain.ParseError("vision output is empty", errors.New("empty")), http.StatusInternalServerError, "empty"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, &fakeGen{err: tc.err}, &fakeMailer{})
			rec, out := do(t, h, http.MethodPost, "/api/generateManifesto", `{"answers":{"q":"a"}}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, out["error"])
			assert.Equal(t, tc.details, out["details"])
		})
	}
}

func TestGenerateImage(t *testing.T) {
	gen := &fakeGen{image: generator.Image{URL: "https://img.example/1.png", Caption: "c"}}
	h := newTestServer(t, gen, &fakeMailer{})

	rec, out := do(t, h, http.MethodPost, "/api/generateImage", `{"visionText":"Rivers are clean"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://img.example/1.png", out["url"])
	assert.Equal(t, "c", out["caption"])
	assert.Equal(t, "Rivers are clean", gen.imageReqs[0].VisionText)

	rec, _ = do(t, h, http.MethodPost, "/api/generateImage", `{"prompt":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, gen.imageReqs, 1)
}

func TestFollowUpQuestions(t *testing.T) {
	h := newTestServer(t, &fakeGen{}, &fakeMailer{})
	rec, out := do(t, h, http.MethodPost, "/api/getFollowUpQuestions", `{"answers":{"q":"a"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, out["questions"])

	rec, _ = do(t, h, http.MethodPost, "/api/getFollowUpQuestions", `{"answers":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = newTestServer(t, &fakeGen{questions: []string{"Who decides?"}}, &fakeMailer{})
	_, out = do(t, h, http.MethodPost, "/api/getFollowUpQuestions", `{"answers":{"q":"a"}}`)
	assert.Equal(t, []any{"Who decides?"}, out["questions"])
}

func TestSummarizeVision(t *testing.T) {
	h := newTestServer(t, &fakeGen{summary: generator.Summary{Title: "X", Summary: "Y"}}, &fakeMailer{})
	rec, out := do(t, h, http.MethodPost, "/api/summarizeVision", `{"vision":"## H\nB"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"title": "X", "summary": "Y"}, out)

	rec, _ = do(t, h, http.MethodPost, "/api/summarizeVision", `{"vision":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEmail(t *testing.T) {
	mail := &fakeMailer{}
	h := newTestServer(t, &fakeGen{}, mail)

	body, err := json.Marshal(map[string]any{
		"to":          "ada@example.com",
		"subject":     "My vision",
		"visionTitle": "T",
		"summary":     "S",
		"headings":    []string{"H1", "H2"},
		"paragraphs":  []string{"P1", "P2"},
		"imageUrl":    "",
	})
	require.NoError(t, err)

	rec, out := do(t, h, http.MethodPost, "/api/sendEmail", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	require.Len(t, mail.sent, 1)
	assert.Equal(t, mailer.Recipients{"ada@example.com"}, mail.sent[0].To)
}

func TestSendEmail_Failures(t *testing.T) {
	mail := &fakeMailer{}
	h := newTestServer(t, &fakeGen{}, mail)

	rec, _ := do(t, h, http.MethodPost, "/api/sendEmail", `{"subject":"s","headings":[],"paragraphs":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/sendEmail", `{"to":"a@example.com","subject":"s","headings":["a","b"],"paragraphs":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, mail.sent)

	mail.err = domain.CollaboratorError("failed to send email", "rate limited", errors.New("rate limited"))
	rec, out := do(t, h, http.MethodPost, "/api/sendEmail", `{"to":"a@example.com","subject":"s","headings":["a"],"paragraphs":["x"]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to send email", out["error"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t, &fakeGen{}, &fakeMailer{})
	req := httptest.NewRequest(http.MethodGet, "/health", bytes.NewReader(nil))
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}
