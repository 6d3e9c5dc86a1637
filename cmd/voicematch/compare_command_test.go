package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"voicematch/internal/api"
	"voicematch/internal/compare"
	"voicematch/internal/testsupport"
)

func TestCompareIdenticalRecordings(t *testing.T) {
	env := setupCLITestEnv(t)
	first := env.voice(t, "a.wav", 140)
	second := env.voice(t, "b.wav", 140)

	out, _, err := runCLI(t, []string{"compare", first, second}, env.configPath)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	requireContains(t, out, "Verdict:")
	requireContains(t, out, "Same speaker")
	requireContains(t, out, "Similarity:  1.0000")
	requireContains(t, out, "a.wav")
}

func TestCompareJSONAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	first := env.voice(t, "a.wav", 140)
	second := env.voice(t, "b.wav", 140)

	out, _, err := runCLI(t, []string{"compare", "--json", first, second}, env.configPath)
	if err != nil {
		t.Fatalf("compare --json: %v", err)
	}
	var detail api.ComparisonDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode compare output: %v\n%s", err, out)
	}
	if !detail.SameSpeaker || detail.Outcome != "same" || detail.ID == "" {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, detail.ID)
	requireContains(t, out, "Same")
	requireContains(t, out, "1 shown of 1")

	out, _, err = runCLI(t, []string{"history", "show", detail.ID}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Same speaker:  yes")
	requireContains(t, out, "Backend:       builtin")
}

func TestCompareThresholdOverride(t *testing.T) {
	env := setupCLITestEnv(t)
	first := env.voice(t, "a.wav", 140)
	second := env.voice(t, "b.wav", 140)

	out, _, err := runCLI(t, []string{"compare", "--threshold", "1", first, second}, env.configPath)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	requireContains(t, out, "Different speakers")
	requireContains(t, out, "Threshold:   1")

	if _, _, err := runCLI(t, []string{"compare", "--threshold", "1.5", first, second}, env.configPath); err == nil {
		t.Fatal("expected out-of-range threshold to fail")
	}
}

func TestCompareNoHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	first := env.voice(t, "a.wav", 140)
	second := env.voice(t, "b.wav", 180)

	if _, _, err := runCLI(t, []string{"compare", "--no-history", first, second}, env.configPath); err != nil {
		t.Fatalf("compare: %v", err)
	}
	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No comparisons recorded")
}

func TestCompareFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		env := setupCLITestEnv(t)
		first := env.voice(t, "a.wav", 140)
		_, _, err := runCLI(t, []string{"compare", first, filepath.Join(env.baseDir, "nope.wav")}, env.configPath)
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		requireContains(t, err.Error(), "nope.wav")
	})

	t.Run("conversion failure is recorded", func(t *testing.T) {
		env := setupCLITestEnv(t, testsupport.WithFailingFFmpeg("Invalid data found when processing input"))
		first := env.voice(t, "a.wav", 140)
		second := env.voice(t, "b.wav", 140)
		_, _, err := runCLI(t, []string{"compare", first, second}, env.configPath)
		if err == nil {
			t.Fatal("expected conversion failure")
		}
		requireContains(t, err.Error(), "compare failed")

		out, _, err := runCLI(t, []string{"history", "list", "--outcome", "failed", "--json"}, env.configPath)
		if err != nil {
			t.Fatalf("history list: %v", err)
		}
		var listing api.HistoryListResponse
		if err := json.Unmarshal([]byte(out), &listing); err != nil {
			t.Fatalf("decode history: %v", err)
		}
		if len(listing.Items) != 1 || listing.Items[0].Error == "" {
			t.Fatalf("expected one failed record with an error, got %+v", listing.Items)
		}
	})

	t.Run("wrong arg count", func(t *testing.T) {
		env := setupCLITestEnv(t)
		if _, _, err := runCLI(t, []string{"compare", "only-one.wav"}, env.configPath); err == nil {
			t.Fatal("expected argument error")
		}
	})
}

func TestRenderVerdictColor(t *testing.T) {
	var buf strings.Builder
	renderVerdict(&buf, compare.Result{ID: "x", Score: 0.8, SameSpeaker: true, Threshold: 0.75, Backend: "builtin"}, 4, true)
	requireContains(t, buf.String(), ansiGreen)
	requireContains(t, buf.String(), "0.8000")

	buf.Reset()
	renderVerdict(&buf, compare.Result{ID: "x", Score: 0.2, Threshold: 0.75}, 2, false)
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected plain output, got %q", buf.String())
	}
	requireContains(t, buf.String(), "Different speakers")
	requireContains(t, buf.String(), "0.20")
}
