package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"

	"civic_horizon/domain"
)

type fakeLLM struct {
	out     string
	err     error
	prompts []Prompt
}

func (f *fakeLLM) Complete(_ context.Context, p Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return f.out, f.err
}

type fakeImages struct {
	img     Image
	err     error
	prompts []string
}

func (f *fakeImages) Generate(_ context.Context, prompt string) (Image, error) {
	f.prompts = append(f.prompts, prompt)
	return f.img, f.err
}

func newTestAgent(t *testing.T, llm LLMClient, images ImageClient) *Agent {
	t.Helper()
	a, err := NewAgent(llm, images)
	require.NoError(t, err)
	return a
}

func TestNewAgent_RequiresLLM(t *testing.T) {
	_, err := NewAgent(nil, nil)
	assert.Error(t, err)
}

func TestGenerateVision(t *testing.T) {
	llm := &fakeLLM{out: `{"title":"T","summary":"S","vision":"## H\nB"}`}
	a := newTestAgent(t, llm, nil)

	v, err := a.GenerateVision(context.Background(), VisionRequest{Answers: Answers{"q": "a"}})
	require.NoError(t, err)
	assert.Equal(t, Vision{Title: "T", Summary: "S", Markdown: "## H\nB"}, v)
	require.Len(t, llm.prompts, 1)
	assert.Empty(t, llm.prompts[0].History)
}

func TestGenerateVision_RefineUsesPreviousVision(t *testing.T) {
	llm := &fakeLLM{out: `{"title":"T2","summary":"S2","vision":"## H\nNew"}`}
	a := newTestAgent(t, llm, nil)

	_, err := a.GenerateVision(context.Background(), VisionRequest{
		Answers:        Answers{"q": "a"},
		ExtraInfo:      "trams",
		Mode:           ModeRefine,
		PreviousVision: "## H\nOld",
	})
	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].User, "trams")
	assert.Len(t, llm.prompts[0].History, 1)
}

func TestGenerateVision_NoAnswersIsValidation(t *testing.T) {
	llm := &fakeLLM{}
	_, err := newTestAgent(t, llm, nil).GenerateVision(context.Background(), VisionRequest{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Empty(t, llm.prompts)
}

func TestGenerateVision_ProviderFailureIsCollaborator(t *testing.T) {
	cause := errors.New("quota exceeded")
	_, err := newTestAgent(t, &fakeLLM{err: cause}, nil).
		GenerateVision(context.Background(), VisionRequest{Answers: Answers{"q": "a"}})
	require.Error(t, err)
	assert.Equal(t, domain.KindCollaborator, domain.KindOf(err))
	assert.True(t, errors.Is(err, cause))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "quota exceeded", de.Details)
}

func TestFollowUpQuestions(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{out: "1. Who runs the new assemblies?\n2. How are they funded?"}, nil)
	qs, err := a.FollowUpQuestions(context.Background(), Answers{"q": "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Who runs the new assemblies?", "How are they funded?"}, qs)

	qs, err = newTestAgent(t, &fakeLLM{out: "none"}, nil).FollowUpQuestions(context.Background(), Answers{"q": "a"})
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)

	_, err = a.FollowUpQuestions(context.Background(), nil)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestSummarize(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{out: "Title: X\nSummary: Y"}, nil)
	s, err := a.Summarize(context.Background(), "## H\nB")
	require.NoError(t, err)
	assert.Equal(t, Summary{Title: "X", Summary: "Y"}, s)

	_, err = a.Summarize(context.Background(), " ")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestGenerateImage(t *testing.T) {
	images := &fakeImages{img: Image{URL: "https://img.example/1.png", Caption: "c"}}
	a := newTestAgent(t, &fakeLLM{}, images)

	img, err := a.GenerateImage(context.Background(), ImageRequest{Prompt: "ready prompt", VisionText: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", img.URL)
	assert.Equal(t, "ready prompt", images.prompts[0])

	_, err = a.GenerateImage(context.Background(), ImageRequest{VisionText: "Rivers are clean"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(images.prompts[1], "Rivers are clean"))
}

func TestGenerateImage_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := newTestAgent(t, &fakeLLM{}, &fakeImages{}).GenerateImage(ctx, ImageRequest{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = newTestAgent(t, &fakeLLM{}, nil).GenerateImage(ctx, ImageRequest{Prompt: "p"})
	assert.Equal(t, domain.KindCollaborator, domain.KindOf(err))

	_, err = newTestAgent(t, &fakeLLM{}, &fakeImages{}).GenerateImage(ctx, ImageRequest{Prompt: "p"})
	assert.Equal(t, domain.KindCollaborator, domain.KindOf(err))
	assert.True(t, errors.Is(err, ErrMissingURL))

	_, err = newTestAgent(t, &fakeLLM{}, &fakeImages{err: errors.New("boom")}).GenerateImage(ctx, ImageRequest{Prompt: "p"})
	assert.Equal(t, domain.KindCollaborator, domain.KindOf(err))
}

func TestMockProviders(t *testing.T) {
	a := newTestAgent(t, MockLLM{}, MockImages{})
	ctx := context.Background()

	v, err := a.GenerateVision(ctx, VisionRequest{Answers: Answers{"q": "a"}})
	require.NoError(t, err)
	assert.Equal(t, "A Shared 2050", v.Title)
	assert.Contains(t, v.Markdown, "## Democracy")

	qs, err := a.FollowUpQuestions(ctx, Answers{"q": "a"})
	require.NoError(t, err)
	assert.Len(t, qs, 3)

	s, err := a.Summarize(ctx, v.Markdown)
	require.NoError(t, err)
	assert.Equal(t, "A Shared 2050", s.Title)

	img, err := a.GenerateImage(ctx, ImageRequest{VisionText: v.Markdown})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img.URL, "data:image/png;base64,"))
}

func TestImageFromResponse(t *testing.T) {
	res := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "A bright street"},
				{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("fake")}},
			}},
		}},
	}
	img, err := imageFromResponse(res)
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,ZmFrZQ==", img.URL)
	assert.Equal(t, "A bright street", img.Caption)

	_, err = imageFromResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "just text"}}}}},
	})
	assert.True(t, errors.Is(err, ErrMissingURL))

	_, err = imageFromResponse(nil)
	assert.Error(t, err)
}
