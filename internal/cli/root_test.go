package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sprite-ai/claimassess/internal/analysis"
	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"wizard", "assess", "serve", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	for _, cmd := range []string{"claim-number", "photo"} {
		if rootCmd.Flags().Lookup(cmd) == nil || wizardCmd.Flags().Lookup(cmd) == nil {
			t.Errorf("--%s must be accepted by the root and wizard commands", cmd)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}
}

func TestParseEdit(t *testing.T) {
	tests := []struct {
		in      string
		want    detailEdit
		wantErr bool
	}{
		{"3.estimated_cost=650", detailEdit{Index: 2, Field: wizard.FieldEstimatedCost, Value: "650"}, false},
		{"1.notes=a=b", detailEdit{Index: 0, Field: wizard.FieldNotes, Value: "a=b"}, false},
		{"2.severity=", detailEdit{Index: 1, Field: wizard.FieldSeverity, Value: ""}, false},
		{"estimated_cost=650", detailEdit{}, true},
		{"3.estimated_cost", detailEdit{}, true},
		{"0.notes=x", detailEdit{}, true},
		{"x.notes=x", detailEdit{}, true},
		{"1.confidence_score=1", detailEdit{}, true},
	}

	for _, tt := range tests {
		got, err := parseEdit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseEdit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseEdit(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if _, err := parseEdit("1.confidence_score=1"); !errors.Is(err, wizard.ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

// writeFixtures writes a fast config file and returns its path.
func writeFixtures(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	conf := "analysis:\n  delay: 5ms\nsubmit:\n  delay: 5ms\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, cfgPath
}

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48)), nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAssessJSON(t *testing.T) {
	dir, cfgPath := writeFixtures(t)
	photo := writeJPEG(t, dir, "front.jpg")

	out, err := execute(t, "--config", cfgPath, "assess",
		"--claim-number", "CLM-1042",
		"--format", "json",
		"--set", "3.estimated_cost=650",
		"--submit",
		photo)
	if err != nil {
		t.Fatalf("assess: %v\n%s", err, out)
	}

	var report assessReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("json decode: %v\n%s", err, out)
	}
	if report.ClaimNumber != "CLM-1042" {
		t.Errorf("expected claim CLM-1042, got %q", report.ClaimNumber)
	}
	if len(report.Photos) != 1 || report.Photos[0].Name != "front.jpg" {
		t.Errorf("unexpected photos %+v", report.Photos)
	}
	if report.Analysis == nil {
		t.Fatal("expected an analysis")
	}
	if got := report.Analysis.DamageDetails[2].EstimatedCost; got != 650 {
		t.Errorf("expected edited cost 650, got %v", got)
	}
	if report.Analysis.RepairEstimate != 2250 {
		t.Errorf("expected estimate 2250, got %v", report.Analysis.RepairEstimate)
	}
	if report.Confirmation != wizard.SubmittedMessage {
		t.Errorf("expected confirmation, got %q", report.Confirmation)
	}
}

func TestAssessRejectedPhoto(t *testing.T) {
	dir, cfgPath := writeFixtures(t)
	gif := filepath.Join(dir, "clip.gif")
	if err := os.WriteFile(gif, []byte("GIF89a"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath, "assess", "--format", "text", gif)
	if err == nil {
		t.Fatal("expected an error for a rejected photo")
	}
	if !strings.Contains(err.Error(), upload.MsgUnsupportedType) {
		t.Errorf("unexpected error %v", err)
	}
	if !strings.Contains(out, "Rejected: "+upload.MsgUnsupportedType) {
		t.Errorf("expected the rejection in the report:\n%s", out)
	}
	if !strings.Contains(out, "No analysis available") {
		t.Errorf("expected the analysis placeholder:\n%s", out)
	}
}

func TestAssessBadFormat(t *testing.T) {
	_, cfgPath := writeFixtures(t)
	if _, err := execute(t, "--config", cfgPath, "assess", "--format", "html"); err == nil {
		t.Error("expected an error for an unknown format")
	}
	// Reset for later tests sharing the command.
	_ = assessCmd.Flags().Set("format", "text")
}

func TestAssessMissingFile(t *testing.T) {
	_, cfgPath := writeFixtures(t)
	_, err := execute(t, "--config", cfgPath, "assess", filepath.Join(t.TempDir(), "nope.jpg"))
	if err == nil || !strings.Contains(err.Error(), "nope.jpg") {
		t.Errorf("expected a stat error naming the file, got %v", err)
	}
}

func TestOutputText(t *testing.T) {
	res := wizardResult(t)
	var buf bytes.Buffer
	if err := outputText(&buf, &assessReport{ClaimNumber: "CLM-9", Analysis: res, Summary: "ok"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Claim: CLM-9", "Front Bumper", "$800", "92.0%", "Worst damage: severe", "Repair estimate: $2,000", "Recommended action: repair"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestOutputMarkdown(t *testing.T) {
	res := wizardResult(t)
	var buf bytes.Buffer
	if err := outputMarkdown(&buf, &assessReport{ClaimNumber: "CLM-9", Analysis: res, Summary: "ok"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "## Claim CLM-9") {
		t.Errorf("missing heading:\n%s", out)
	}
	if !strings.Contains(out, "| 3 | Left Headlight | Broken | severe | $400 |") {
		t.Errorf("missing detail row:\n%s", out)
	}
}

func TestOutputJSONNotColoredForBuffers(t *testing.T) {
	var buf bytes.Buffer
	if err := outputJSON(&buf, &assessReport{ClaimNumber: "CLM-9"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected plain JSON when not writing to a terminal")
	}
}

func wizardResult(t *testing.T) *model.AnalysisResult {
	t.Helper()
	res := analysis.NewMock(nil).Assess(nil)
	return &res
}
