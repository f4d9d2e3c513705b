package report

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/peter-kozarec/solstice/pkg/risk"
	"github.com/peter-kozarec/solstice/pkg/stats"
)

func TestNarrativePrint(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	n := Narrative{
		Series:    "close",
		Frequency: "daily",
		Summary:   stats.Summary{Count: 120, Mean: 104.2, Std: 3.1, Min: 98, Median: 104, Max: 112},
		ADF:       &stats.ADFResult{Statistic: -1.2, PValue: 0.67, IsStationary: false},
		BestModel: "drift",
		Metric:    "mase",
		BestScore: 0.82,
		Risk:      &risk.Report{Method: "bootstrap", Horizon: 21, VaR95: -6.4, CVaR95: -8.1, ProbLoss: 0.31},
	}
	n.Print(logger)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(entries))
	}
	if entries[0].Message != "series overview" {
		t.Errorf("unexpected first section %q", entries[0].Message)
	}

	fields := entries[0].ContextMap()
	if fields["series"] != "close" {
		t.Errorf("unexpected series field %v", fields["series"])
	}
	if fields["observations"] != int64(120) {
		t.Errorf("unexpected observations field %v", fields["observations"])
	}

	selection := entries[2].ContextMap()
	if selection["best_model"] != "drift" || selection["metric"] != "mase" {
		t.Errorf("unexpected model selection fields %v", selection)
	}

	outlook := entries[3].ContextMap()
	if outlook["prob_loss"] != "31.0%" {
		t.Errorf("unexpected prob_loss %v", outlook["prob_loss"])
	}
}

func TestNarrativePrintSkipsEmptySections(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	Narrative{Series: "close", Frequency: "daily", Summary: stats.Summary{Count: 10}}.Print(logger)

	if logs.Len() != 1 {
		t.Errorf("expected only the overview section, got %d", logs.Len())
	}
}
