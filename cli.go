package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/report"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Load the cases once and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			asJSON, _ := cmd.Flags().GetBool("json")
			if !validKind(kind) {
				return fmt.Errorf("unknown kind %q", kind)
			}

			cfg, logs, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logs.Close()

			_, _, _, reportLoader := newPipeline(cfg)
			rep, _, err := reportLoader.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printReportJSON(cmd.OutOrStdout(), rep, kind)
			}
			return printReport(cmd.OutOrStdout(), rep, kind)
		},
	}
	cmd.Flags().String("kind", report.KindSymptoms, "Group to print: symptoms, categories, indigenous-terms or timeline")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a written or recorded report",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			audioPath, _ := cmd.Flags().GetString("audio")
			if (text == "") == (audioPath == "") {
				return errors.New("exactly one of --text or --audio is required")
			}

			cfg, logs, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logs.Close()

			client, _, validator, _ := newPipeline(cfg)
			created, err := submit(cmd.Context(), client, validator, text, audioPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "case %d: %s\n", created.CaseID, created.Message)
			return nil
		},
	}
	cmd.Flags().String("text", "", "Report text")
	cmd.Flags().String("audio", "", "Path to an MP3, WAV or M4A recording")
	return cmd
}

// submit validates the input before any upstream request is made.
func submit(ctx context.Context, api interfaces.CasesAPI, validator interfaces.DataValidator, text, audioPath string) (*entities.CaseCreated, error) {
	if text != "" {
		if err := validator.ValidateReportText(text); err != nil {
			return nil, err
		}
		return api.SubmitText(ctx, text)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio: %w", err)
	}

	filename := filepath.Base(audioPath)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if err := validator.ValidateAudio(filename, contentType, info.Size()); err != nil {
		return nil, err
	}
	return api.SubmitAudio(ctx, filename, contentType, f)
}

func validKind(kind string) bool {
	switch kind {
	case report.KindSymptoms, report.KindCategories, report.KindIndigenousTerms, report.KindTimeline:
		return true
	}
	return false
}

func printReportJSON(w io.Writer, rep *entities.Report, kind string) error {
	var groups any
	switch kind {
	case report.KindSymptoms:
		groups = rep.Symptoms
	case report.KindCategories:
		groups = rep.Categories
	case report.KindIndigenousTerms:
		groups = rep.IndigenousTerms
	case report.KindTimeline:
		groups = rep.Timeline
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"summary": report.Summarize(rep),
		"kind":    kind,
		"groups":  groups,
	})
}

func printReport(w io.Writer, rep *entities.Report, kind string) error {
	s := report.Summarize(rep)
	fmt.Fprintf(w, "%d cases, %d symptoms, %d categories, %d indigenous terms\n\n",
		s.AnalyzedCases, s.UniqueSymptoms, s.Categories, s.IndigenousTerms)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch kind {
	case report.KindSymptoms:
		fmt.Fprintln(tw, "SYMPTOM\tCASES")
		for _, g := range rep.Symptoms {
			fmt.Fprintf(tw, "%s\t%d\n", g.Symptom, g.Count)
		}
	case report.KindCategories:
		fmt.Fprintln(tw, "CATEGORY\tCASES")
		for _, g := range rep.Categories {
			fmt.Fprintf(tw, "%s\t%d\n", g.Category, g.Count)
		}
	case report.KindIndigenousTerms:
		fmt.Fprintln(tw, "TERM\tMEANING\tCASES")
		for _, g := range rep.IndigenousTerms {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", g.Term, g.Meaning, g.Count)
		}
	case report.KindTimeline:
		fmt.Fprintln(tw, "DATE\tCASES\tPERCENT")
		for _, p := range rep.Timeline {
			fmt.Fprintf(tw, "%s\t%d\t%.1f\n", p.Date, p.Count, p.Percent)
		}
	}
	return tw.Flush()
}
