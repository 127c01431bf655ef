package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/claimassess/internal/analysis"
	"github.com/sprite-ai/claimassess/internal/highlight"
	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

var assessCmd = &cobra.Command{
	Use:   "assess [photos...]",
	Short: "Run the claim wizard non-interactively and print the assessment",
	Long: `Fill in the claim number, upload the photos, wait for the damage
assessment, apply detail edits and print the result. Useful for scripting
and piping into other tools.

Edits use the detail number as listed in the report:
  claimassess assess front.jpg --set 3.estimated_cost=650 --set 1.notes="bumper replaced"

Exit codes:
  0  assessment produced
  1  a photo was rejected, or no assessment was produced`,
	Args: cobra.ArbitraryArgs,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringP("claim-number", "n", "", "claim number")
	assessCmd.Flags().StringArray("set", nil, "detail edit as N.field=value (repeatable)")
	assessCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	assessCmd.Flags().Bool("submit", false, "submit the claim after the edits")
}

var (
	errNoAnalysis = errors.New("no analysis was produced")
	errBadEdit    = errors.New("edit must look like N.field=value")
)

// detailEdit is one --set flag. Index is zero-based.
type detailEdit struct {
	Index int
	Field wizard.Field
	Value string
}

func parseEdit(s string) (detailEdit, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return detailEdit{}, fmt.Errorf("%q: %w", s, errBadEdit)
	}
	num, field, ok := strings.Cut(key, ".")
	if !ok {
		return detailEdit{}, fmt.Errorf("%q: %w", s, errBadEdit)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n < 1 {
		return detailEdit{}, fmt.Errorf("%q: detail number must be 1 or more", s)
	}
	f := wizard.Field(strings.TrimSpace(field))
	if !slices.Contains(wizard.EditableFields, f) {
		return detailEdit{}, fmt.Errorf("%q: %w", s, wizard.ErrUnknownField)
	}
	return detailEdit{Index: n - 1, Field: f, Value: value}, nil
}

// assessReport is everything a headless run produced.
type assessReport struct {
	ClaimNumber  string                `json:"claim_number"`
	Photos       []model.Photo         `json:"photos"`
	Rejected     string                `json:"rejected,omitempty"`
	Summary      string                `json:"summary"`
	Analysis     *model.AnalysisResult `json:"analysis"`
	Confirmation string                `json:"confirmation,omitempty"`
}

func runAssess(cmd *cobra.Command, args []string) error {
	claimNumber, _ := cmd.Flags().GetString("claim-number")
	rawEdits, _ := cmd.Flags().GetStringArray("set")
	format, _ := cmd.Flags().GetString("format")
	submit, _ := cmd.Flags().GetBool("submit")

	switch format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q: want text, json or markdown", format)
	}

	edits := make([]detailEdit, 0, len(rawEdits))
	for _, s := range rawEdits {
		e, err := parseEdit(s)
		if err != nil {
			return err
		}
		edits = append(edits, e)
	}

	files := make([]upload.File, 0, len(args))
	for _, path := range args {
		f, err := upload.FromPath(path, cfg.Upload.MaxBytes)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	report, err := assess(cmd.Context(), claimNumber, files, edits, submit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = outputJSON(out, report)
	case "markdown":
		err = outputMarkdown(out, report)
	default:
		err = outputText(out, report)
	}
	if err != nil {
		return err
	}

	if report.Rejected != "" {
		return fmt.Errorf("photo rejected: %s", report.Rejected)
	}
	if report.Analysis == nil {
		return errNoAnalysis
	}
	return nil
}

// assess drives a wizard through all three steps on its own loop.
func assess(ctx context.Context, claimNumber string, files []upload.File, edits []detailEdit, submit bool) (*assessReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	loop := wizard.NewLoop()
	go func() { _ = loop.Run(ctx) }()
	defer func() {
		cancel()
		<-loop.Stopped()
	}()

	analyzed := make(chan struct{})
	submitted := make(chan struct{})

	opts := cfg.WizardOptions()
	opts.Scheduler = loop
	opts.OnEvent = func(e wizard.Event) {
		logger.Debug("wizard event", zap.Stringer("event", e.Type), zap.String("message", e.Message))
		switch e.Type {
		case wizard.EventAnalysisCompleted:
			close(analyzed)
		case wizard.EventSubmitted:
			close(submitted)
		}
	}

	var (
		wiz       *wizard.Wizard
		report    assessReport
		analyzing bool
		stepErr   error
	)
	err := loop.Call(ctx, func() {
		wiz = wizard.New(opts)
		if stepErr = wiz.ClaimInfo().Change("policy_number", claimNumber); stepErr != nil {
			return
		}
		wiz.Advance()
		if len(files) > 0 {
			wiz.Photos().AddFiles(files)
		}
		report.Rejected = wiz.Photos().UploadError()
		analyzing = wiz.Analyzing()
	})
	if err != nil {
		return nil, err
	}
	if stepErr != nil {
		return nil, stepErr
	}

	if analyzing {
		logger.Info("waiting for damage analysis", zap.Int("photos", len(files)))
		if err := wait(ctx, analyzed); err != nil {
			return nil, err
		}
	}

	var submitting bool
	err = loop.Call(ctx, func() {
		if wiz.Claim().AIAnalysis == nil {
			return
		}
		wiz.Advance()
		review := wiz.Review()
		for _, e := range edits {
			if stepErr = applyEdit(review, e); stepErr != nil {
				return
			}
		}
		if submit {
			submitting = wiz.Submit()
		}
	})
	if err != nil {
		return nil, err
	}
	if stepErr != nil {
		return nil, stepErr
	}

	if submitting {
		if err := wait(ctx, submitted); err != nil {
			return nil, err
		}
	}

	err = loop.Call(ctx, func() {
		claim := wiz.Claim()
		report.ClaimNumber = claim.PolicyNumber
		report.Photos = claim.Photos
		report.Analysis = claim.AIAnalysis
		report.Summary = analysis.Summary(claim.AIAnalysis)
		report.Confirmation = wiz.Confirmation()
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func applyEdit(review *wizard.ReviewStep, e detailEdit) error {
	if err := review.BeginEdit(e.Index); err != nil {
		return fmt.Errorf("--set %d.%s: %w", e.Index+1, e.Field, err)
	}
	if err := review.SetField(e.Field, e.Value); err != nil {
		review.CancelEdit()
		return fmt.Errorf("--set %d.%s: %w", e.Index+1, e.Field, err)
	}
	if err := review.Save(); err != nil {
		return fmt.Errorf("--set %d.%s: %w", e.Index+1, e.Field, err)
	}
	return nil
}

func wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func outputText(w io.Writer, r *assessReport) error {
	claim := r.ClaimNumber
	if claim == "" {
		claim = "(none)"
	}
	fmt.Fprintf(w, "Claim: %s\n", claim)
	fmt.Fprintf(w, "Photos: %d uploaded\n", len(r.Photos))
	if r.Rejected != "" {
		fmt.Fprintf(w, "Rejected: %s\n", r.Rejected)
	}
	fmt.Fprintf(w, "Analysis: %s\n", r.Summary)

	if r.Analysis == nil || len(r.Analysis.DamageDetails) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-3s %-16s %-18s %-9s %10s  %s\n", "#", "Location", "Type", "Severity", "Cost", "Confidence")
	for i, d := range r.Analysis.DamageDetails {
		fmt.Fprintf(w, "  %-3d %-16s %-18s %-9s %10s  %s\n",
			i+1, d.Location, d.DamageType, d.Severity,
			model.FormatCost(d.EstimatedCost), model.FormatPercent(d.ConfidenceScore))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Worst damage: %s\n", analysis.MaxSeverity(r.Analysis.DamageDetails))
	fmt.Fprintf(w, "Repair estimate: %s\n", model.FormatCost(r.Analysis.RepairEstimate))
	fmt.Fprintf(w, "Repair time: %d days\n", r.Analysis.EstimatedRepairTime)
	fmt.Fprintf(w, "Recommended action: %s\n", r.Analysis.RecommendedAction)

	if r.Confirmation != "" {
		fmt.Fprintf(w, "\n%s\n", r.Confirmation)
	}
	return nil
}

func outputJSON(w io.Writer, r *assessReport) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}

	if isTerminal(w) {
		_, err := io.WriteString(w, highlight.Render("json", buf.String()))
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func outputMarkdown(w io.Writer, r *assessReport) error {
	fmt.Fprintf(w, "## Claim %s\n\n", r.ClaimNumber)
	fmt.Fprintf(w, "**Photos:** %d | **Assessment:** %s\n\n", len(r.Photos), r.Summary)
	if r.Rejected != "" {
		fmt.Fprintf(w, "> %s\n\n", r.Rejected)
	}

	if r.Analysis == nil || len(r.Analysis.DamageDetails) == 0 {
		return nil
	}

	fmt.Fprintln(w, "| # | Location | Type | Severity | Cost | Notes |")
	fmt.Fprintln(w, "|---|----------|------|----------|------|-------|")
	for i, d := range r.Analysis.DamageDetails {
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, d.Location, d.DamageType, d.Severity, model.FormatCost(d.EstimatedCost), d.Notes)
	}
	fmt.Fprintf(w, "\n**Repair estimate:** %s\n", model.FormatCost(r.Analysis.RepairEstimate))

	if r.Confirmation != "" {
		fmt.Fprintf(w, "\n%s\n", r.Confirmation)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
