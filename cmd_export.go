package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"civic_horizon/client"
	"civic_horizon/document"
	"civic_horizon/generator"
	"civic_horizon/raster"
)

func exportCmd(a *app) *cobra.Command {
	var out, author, imageURL string
	cmd := &cobra.Command{
		Use:   "export <session.json>",
		Short: "Export a saved session as PDF without contacting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			var st client.State
			if err := json.Unmarshal(data, &st); err != nil {
				return fmt.Errorf("parse session: %w", err)
			}
			if imageURL != "" {
				st.ImageURL = imageURL
			}

			o := client.New(nil, raster.New(nil), nil, client.Options{ImageWait: a.cfg.Client.ImageWait, Log: a.log})
			o.Load(st.Document, st.VisionText, st.ImageURL)
			res, err := o.ExportFile(cmd.Context(), author, out)
			if err != nil {
				return err
			}
			a.log.Info().Str("path", out).Int("pages", res.Pages).Bool("image_skipped", res.ImageSkipped).Msg("pdf exported")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", document.FileName, "PDF output path")
	cmd.Flags().StringVar(&author, "author", "", "author name printed on the last page")
	cmd.Flags().StringVar(&imageURL, "image", "", "image URL or data URL (overrides the saved one)")
	return cmd
}

func questionsCmd() *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List the themes and their questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, t := range generator.Themes() {
				if len(only) > 0 && !slices.Contains(only, t.Key) {
					continue
				}
				fmt.Fprintf(w, "%s (%s)\n", t.Key, t.Description)
				for _, q := range t.Questions {
					fmt.Fprintf(w, "  %s\n", q)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&only, "themes", nil, "only list these themes")
	return cmd
}
