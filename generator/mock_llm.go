package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
)

// MockLLM is an offline stand-in for local runs; it never calls a model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch {
	case strings.Contains(prompt.System, "clarifying questions"):
		return "1. Which change would you most like your grandchildren to notice first?\n" +
			"2. Who should be responsible for making that change happen?\n" +
			"3. What would you be willing to give up to get there?", nil
	case strings.Contains(prompt.System, "summarizes"):
		return "Title: A Shared 2050\nSummary: A country that kept its promises to the next generation.", nil
	}

	title := "A Shared 2050"
	if len(prompt.History) > 0 {
		title = "A Shared 2050, Revisited"
	}
	var sb strings.Builder
	sb.WriteString("## Democracy\n")
	sb.WriteString("Citizens assemblies sit alongside parliament and every town runs a participatory budget.\n\n")
	sb.WriteString("## Economy\n")
	sb.WriteString("Work is shorter and better shared, and the gains of automation fund public services.\n\n")
	sb.WriteString("## Environment\n")
	sb.WriteString("Rivers are clean again and every roof that can carry solar panels does.\n\n")
	sb.WriteString("## From your answers\n")
	sb.WriteString(strings.Join(strings.Fields(prompt.User), " "))

	out, err := json.Marshal(Vision{
		Title:    title,
		Summary:  "An optimistic sketch of the UK in 2050 drawn from your answers.",
		Markdown: sb.String(),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// MockImages returns a small generated PNG as a data URL.
type MockImages struct{}

func (MockImages) Generate(_ context.Context, prompt string) (Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(40 + x), G: uint8(120 + y*2), B: 90, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return Image{}, fmt.Errorf("encode mock image: %w", err)
	}
	return Image{
		URL:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Caption: truncateRunes(prompt, 80),
	}, nil
}
