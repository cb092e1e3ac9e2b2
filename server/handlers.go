package server

import (
	"net/http"
	"strings"

	"civic_horizon/generator"
	"civic_horizon/mailer"
)

type visionReq struct {
	Answers        generator.Answers `json:"answers"`
	Themes         []string          `json:"themes"`
	ExtraInfo      string            `json:"extraInfo"`
	Mode           string            `json:"mode"`
	PreviousVision string            `json:"previousVision"`
}

type imageReq struct {
	Prompt     string `json:"prompt"`
	VisionText string `json:"visionText"`
}

type followUpReq struct {
	Answers generator.Answers `json:"answers"`
}

type followUpResp struct {
	Questions []string `json:"questions"`
}

type summarizeReq struct {
	Vision string `json:"vision"`
}

type successResp struct {
	Success bool `json:"success"`
}

func (s *Server) handleGenerateVision(w http.ResponseWriter, r *http.Request) {
	var req visionReq
	if !s.decode(w, r, &req) {
		return
	}
	if req.Answers == nil {
		writeError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	if req.Mode != "" && req.Mode != generator.ModeRefine {
		writeError(w, http.StatusBadRequest, "Invalid mode", req.Mode)
		return
	}

	ctx, cancel := s.callContext(r)
	defer cancel()
	vision, err := s.gen.GenerateVision(ctx, generator.VisionRequest{
		Answers:        req.Answers,
		Themes:         req.Themes,
		ExtraInfo:      req.ExtraInfo,
		Mode:           req.Mode,
		PreviousVision: req.PreviousVision,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vision)
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageReq
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" && strings.TrimSpace(req.VisionText) == "" {
		writeError(w, http.StatusBadRequest, "Missing visionText", nil)
		return
	}

	ctx, cancel := s.callContext(r)
	defer cancel()
	img, err := s.gen.GenerateImage(ctx, generator.ImageRequest{Prompt: req.Prompt, VisionText: req.VisionText})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (s *Server) handleFollowUpQuestions(w http.ResponseWriter, r *http.Request) {
	var req followUpReq
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "Missing or invalid answers", nil)
		return
	}

	ctx, cancel := s.callContext(r)
	defer cancel()
	qs, err := s.gen.FollowUpQuestions(ctx, req.Answers)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if qs == nil {
		qs = []string{}
	}
	writeJSON(w, http.StatusOK, followUpResp{Questions: qs})
}

func (s *Server) handleSummarizeVision(w http.ResponseWriter, r *http.Request) {
	var req summarizeReq
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Vision) == "" {
		writeError(w, http.StatusBadRequest, "Missing vision text", nil)
		return
	}

	ctx, cancel := s.callContext(r)
	defer cancel()
	sum, err := s.gen.Summarize(ctx, req.Vision)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var msg mailer.Message
	if !s.decode(w, r, &msg) {
		return
	}
	if err := msg.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	ctx, cancel := s.callContext(r)
	defer cancel()
	if err := s.mail.Send(ctx, msg); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResp{Success: true})
}
