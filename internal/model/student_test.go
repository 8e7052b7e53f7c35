package model

import (
	"math"
	"testing"
	"time"
)

func TestBaselineObserve(t *testing.T) {
	var b BaselineProfile

	samples := []float64{0.2, -0.4, 0.6, 0.0}
	for i, s := range samples {
		b.Observe(s, 10, 0, i%2 == 0, time.Now())
	}

	if b.SessionCount != 4 {
		t.Fatalf("expected 4 sessions, got %d", b.SessionCount)
	}
	if math.Abs(b.SentimentMean-0.1) > 1e-9 {
		t.Fatalf("expected mean 0.1, got %v", b.SentimentMean)
	}
	// Sample variance of {0.2, -0.4, 0.6, 0.0}.
	want := (0.01 + 0.25 + 0.25 + 0.01) / 3
	if math.Abs(b.SentimentVariance()-want) > 1e-9 {
		t.Fatalf("expected variance %v, got %v", want, b.SentimentVariance())
	}
	if math.Abs(b.LateNightRatio-0.5) > 1e-9 {
		t.Fatalf("expected late night ratio 0.5, got %v", b.LateNightRatio)
	}
}

func TestBaselineVarianceNeedsTwoSessions(t *testing.T) {
	var b BaselineProfile
	b.Observe(0.5, 10, 0, false, time.Now())
	if b.SentimentVariance() != 0 {
		t.Fatalf("single observation must yield zero variance, got %v", b.SentimentVariance())
	}
}
