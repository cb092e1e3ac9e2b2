package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"civic_horizon/client"
	"civic_horizon/document"
	"civic_horizon/raster"
)

type generateFlags struct {
	answersPath string
	themes      []string
	followUp    string
	out         string
	author      string
	email       []string
	subject     string
	save        string
}

func generateCmd(a *app) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a vision from answers and export it as PDF",
		Long: "Generate a vision from a YAML file of question: answer pairs using a running server.\n" +
			"With --follow-up the command asks clarifying questions on stdin and then refines\n" +
			"the vision or regenerates its image.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, a, f)
		},
	}
	cmd.Flags().StringVarP(&f.answersPath, "answers", "a", "", "YAML file mapping questions to answers (required)")
	cmd.Flags().StringSliceVar(&f.themes, "themes", nil, "themes the answers cover, e.g. economy,environment")
	cmd.Flags().StringVar(&f.followUp, "follow-up", "", "after generating, answer clarifying questions and then: refine|image")
	cmd.Flags().StringVarP(&f.out, "out", "o", document.FileName, "PDF output path; empty skips the export")
	cmd.Flags().StringVar(&f.author, "author", "", "author name printed on the last page")
	cmd.Flags().StringSliceVar(&f.email, "email", nil, "email the vision to these addresses")
	cmd.Flags().StringVar(&f.subject, "subject", "My vision for 2050", "email subject")
	cmd.Flags().StringVar(&f.save, "save", "", "write the session state as JSON to this path")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, f *generateFlags) error {
	answers, err := readAnswers(f.answersPath)
	if err != nil {
		return err
	}
	var action client.FollowUpAction
	switch f.followUp {
	case "":
	case string(client.ActionRefine), string(client.ActionImage):
		action = client.FollowUpAction(f.followUp)
	default:
		return fmt.Errorf("--follow-up must be refine or image, got %q", f.followUp)
	}

	ctx := cmd.Context()
	o := newOrchestrator(a)

	st, err := o.Generate(ctx, answers, f.themes)
	if err != nil {
		return err
	}
	if !st.HasVision() {
		return fmt.Errorf("%s %s", client.ErrorTitle, st.LastError)
	}
	if st.ImageURL == "" {
		a.log.Warn().Str("reason", st.LastError).Msg("no image for this vision")
	}

	if action != "" {
		st, err = runFollowUp(ctx, cmd, o, action)
		if err != nil {
			return err
		}
	}

	printVision(cmd.OutOrStdout(), st)

	if f.out != "" {
		res, err := o.ExportFile(ctx, f.author, f.out)
		if err != nil {
			return err
		}
		a.log.Info().Str("path", f.out).Int("pages", res.Pages).Bool("image_skipped", res.ImageSkipped).Msg("pdf exported")
	}
	if len(f.email) > 0 {
		if err := o.SendEmail(ctx, f.email, f.subject); err != nil {
			return err
		}
		a.log.Info().Strs("to", f.email).Msg("vision emailed")
	}
	if f.save != "" {
		if err := saveState(f.save, o.State()); err != nil {
			return err
		}
	}
	return nil
}

func newOrchestrator(a *app) *client.Orchestrator {
	httpClient := &http.Client{Timeout: a.cfg.Client.RequestTimeout}
	api := client.NewAPI(a.cfg.Client.ServerURL, httpClient)
	return client.New(api, raster.New(nil), nil, client.Options{
		ImageWait: a.cfg.Client.ImageWait,
		Log:       a.log,
	})
}

func runFollowUp(ctx context.Context, cmd *cobra.Command, o *client.Orchestrator, action client.FollowUpAction) (client.State, error) {
	qs, err := o.StartFollowUp(ctx, action)
	if err != nil {
		return o.State(), err
	}
	in := bufio.NewScanner(cmd.InOrStdin())
	for _, q := range qs {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n> ", q)
		if !in.Scan() {
			break
		}
		if err := o.AnswerFollowUp(q, in.Text()); err != nil {
			return o.State(), err
		}
	}
	if err := in.Err(); err != nil {
		return o.State(), fmt.Errorf("read answers: %w", err)
	}
	return o.ProceedFollowUp(ctx)
}

func readAnswers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var answers map[string]string
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	for q, ans := range answers {
		if strings.TrimSpace(ans) == "" {
			delete(answers, q)
		}
	}
	if len(answers) == 0 {
		return nil, client.ErrNoAnswers
	}
	return answers, nil
}

func printVision(w io.Writer, st client.State) {
	doc := st.Document
	fmt.Fprintf(w, "# %s\n\n", doc.DisplayTitle())
	if doc.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", doc.Summary)
	}
	for _, s := range doc.Sections {
		if s.Heading != "" {
			fmt.Fprintf(w, "## %s\n", s.Heading)
		}
		fmt.Fprintf(w, "%s\n\n", s.Body)
	}
}

func saveState(path string, st client.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
