package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"civic_horizon/client"
)

func followupCmd(a *app) *cobra.Command {
	var action, out, author string
	cmd := &cobra.Command{
		Use:   "followup <session.json>",
		Short: "Answer clarifying questions on a saved session, then refine it or redo its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch client.FollowUpAction(action) {
			case client.ActionRefine, client.ActionImage:
			default:
				return fmt.Errorf("--action must be refine or image, got %q", action)
			}
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			var saved client.State
			if err := json.Unmarshal(data, &saved); err != nil {
				return fmt.Errorf("parse session: %w", err)
			}

			ctx := cmd.Context()
			o := newOrchestrator(a)
			o.Resume(saved)

			st, err := runFollowUp(ctx, cmd, o, client.FollowUpAction(action))
			if err != nil {
				return err
			}
			printVision(cmd.OutOrStdout(), st)

			if out != "" {
				res, err := o.ExportFile(ctx, author, out)
				if err != nil {
					return err
				}
				a.log.Info().Str("path", out).Int("pages", res.Pages).Msg("pdf exported")
			}
			return saveState(path, o.State())
		},
	}
	cmd.Flags().StringVar(&action, "action", string(client.ActionRefine), "what to do with the answers: refine|image")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also export the result as PDF to this path")
	cmd.Flags().StringVar(&author, "author", "", "author name printed on the last page")
	return cmd
}
