package service

import (
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/pkg/logger"
	"campuswell_backend/pkg/monitoring"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// Checkpoint names, in pipeline order.
const (
	CheckpointExtractSignals = "extract_signals"
	CheckpointUpdateBaseline = "update_baseline"
	CheckpointCrisisKeywords = "crisis_keywords"
	CheckpointScreenTrigger  = "screen_trigger"
	CheckpointRiskCalc       = "risk_calculation"
)

// crisisPhrases are matched case-insensitively against the raw text.
// Matching is local and never depends on the extractor being up.
var crisisPhrases = []string{
	"kill myself",
	"end my life",
	"want to die",
	"suicide",
	"hurt myself",
	"self harm",
	"self-harm",
	"no reason to live",
	"better off dead",
	"end it all",
}

var negativeEmoji = map[rune]bool{
	'😢': true, '😭': true, '😞': true, '😔': true, '💔': true,
	'😰': true, '😨': true, '😩': true, '😫': true, '🥀': true,
}

var positiveEmoji = map[rune]bool{
	'😀': true, '😄': true, '😊': true, '🙂': true, '😁': true,
	'❤': true, '👍': true, '🎉': true, '✨': true, '😍': true,
}

// ProcessResult is the output of one trip through the pipeline.
type ProcessResult struct {
	Analysis        *model.MessageAnalysis
	Profile         *model.RiskProfile
	CrisisTriggered bool
	ScreenTriggered bool
}

// SequentialProcessor runs each incoming message through a fixed-order
// checkpoint pipeline. A checkpoint failure is recorded in the trace
// and the pipeline continues best-effort; a crisis signal is never
// dropped because a later stage errored.
type SequentialProcessor struct {
	Extractor    SignalExtractor
	StudentRepo  *repository.StudentRepository
	AnalysisRepo *repository.AnalysisRepository
	Calculator   *RiskCalculator

	mu     sync.RWMutex
	config config.RiskConfig
}

func NewSequentialProcessor(
	extractor SignalExtractor,
	studentRepo *repository.StudentRepository,
	analysisRepo *repository.AnalysisRepository,
	calculator *RiskCalculator,
	cfg config.RiskConfig,
) *SequentialProcessor {
	return &SequentialProcessor{
		Extractor:    extractor,
		StudentRepo:  studentRepo,
		AnalysisRepo: analysisRepo,
		Calculator:   calculator,
		config:       cfg,
	}
}

func (p *SequentialProcessor) SetTuning(cfg config.RiskConfig) {
	p.mu.Lock()
	p.config = cfg
	p.mu.Unlock()
}

func (p *SequentialProcessor) tuning() config.RiskConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// pipelineState is threaded through the checkpoints.
type pipelineState struct {
	student   *model.Student
	text      string
	timestamp time.Time

	signals   *model.MessageSignals
	degraded  bool
	crisis    bool
	screen    bool
	deviation float64
	profile   *model.RiskProfile

	trace model.CheckpointTrace
}

type checkpoint struct {
	name string
	run  func(context.Context, *pipelineState) error
}

// Process runs the full pipeline for one message and persists the
// resulting analysis row. The raw text is hashed, never stored.
func (p *SequentialProcessor) Process(ctx context.Context, studentID uint, text string, timestamp time.Time) (*ProcessResult, error) {
	student, err := p.StudentRepo.FindByID(studentID)
	if err != nil {
		return nil, err
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	state := &pipelineState{
		student:   student,
		text:      text,
		timestamp: timestamp,
	}

	checkpoints := []checkpoint{
		{CheckpointExtractSignals, p.extractSignals},
		{CheckpointUpdateBaseline, p.updateBaseline},
		{CheckpointCrisisKeywords, p.evaluateCrisisKeywords},
		{CheckpointScreenTrigger, p.evaluateScreenTrigger},
		{CheckpointRiskCalc, p.computeRisk},
	}

	for _, cp := range checkpoints {
		if cp.name == CheckpointScreenTrigger && state.crisis {
			// Crisis short-circuits the screen tier but risk is
			// still computed for context.
			continue
		}
		if err := cp.run(ctx, state); err != nil {
			logger.Log.Warn("Checkpoint failed, continuing pipeline",
				zap.String("checkpoint", cp.name),
				zap.Uint("student_id", studentID),
				zap.Error(err))
			if state.trace.FailedAt == "" {
				state.trace.FailedAt = cp.name
				state.trace.Error = err.Error()
			}
			continue
		}
		state.trace.Completed = append(state.trace.Completed, cp.name)
	}

	// The append-only row keeps the text itself for counselor review
	// and crisis snapshots; the hash supports dedup and audit checks.
	hash := sha256.Sum256([]byte(text))
	analysis := &model.MessageAnalysis{
		StudentID:        studentID,
		MessageTimestamp: timestamp,
		MessageText:      text,
		ContentHash:      hex.EncodeToString(hash[:]),
		Trace:            state.trace,
		CrisisDetected:   state.crisis,
		ScreenTriggered:  state.screen,
		DeviationScore:   state.deviation,
	}
	if state.signals != nil {
		analysis.Signals = *state.signals
	}
	if err := p.AnalysisRepo.Create(analysis); err != nil {
		return nil, err
	}

	if state.profile != nil {
		state.profile.SourceAnalysisID = &analysis.ID
		// Best effort back-link, the profile row already exists.
		if err := p.Calculator.RiskRepo.SetSourceAnalysis(state.profile.ID, analysis.ID); err != nil {
			logger.Log.Warn("Failed to back-link risk profile to analysis",
				zap.Uint("profile_id", state.profile.ID),
				zap.Uint("analysis_id", analysis.ID),
				zap.Error(err))
		}
	}

	outcome := "ok"
	if state.crisis {
		outcome = "crisis"
	} else if state.degraded {
		outcome = "degraded"
	}
	monitoring.MessagesProcessed.WithLabelValues(outcome).Inc()

	return &ProcessResult{
		Analysis:        analysis,
		Profile:         state.profile,
		CrisisTriggered: state.crisis,
		ScreenTriggered: state.screen,
	}, nil
}

func (p *SequentialProcessor) extractSignals(ctx context.Context, state *pipelineState) error {
	local := localSignals(state.text)

	extracted, err := p.Extractor.ExtractSignals(ctx, state.text)
	if err != nil {
		// Degrade to local heuristics rather than dropping the message.
		state.signals = local
		state.degraded = true
		return err
	}

	extracted.EmojiCount = local.EmojiCount
	extracted.EmojiSentiment = local.EmojiSentiment
	extracted.WordCount = local.WordCount
	state.signals = extracted
	return nil
}

func (p *SequentialProcessor) updateBaseline(_ context.Context, state *pipelineState) error {
	if state.signals == nil {
		return nil
	}

	emojiRate := 0.0
	if state.signals.WordCount > 0 {
		emojiRate = float64(state.signals.EmojiCount) / float64(state.signals.WordCount)
	}
	hour := state.timestamp.Hour()
	lateNight := hour >= 23 || hour < 5

	baseline := state.student.Baseline
	if baseline.Established {
		sigma := math.Sqrt(baseline.SentimentVariance())
		if sigma < 0.1 {
			sigma = 0.1
		}
		state.deviation = (baseline.SentimentMean - state.signals.Sentiment) / sigma
	}

	baseline.Observe(state.signals.Sentiment, float64(state.signals.WordCount), emojiRate, lateNight, state.timestamp)
	if !baseline.Established && baseline.SessionCount >= p.tuning().BaselineMinSessions {
		baseline.Established = true
		logger.Log.Info("Baseline established",
			zap.Uint("student_id", state.student.ID),
			zap.Int("sessions", baseline.SessionCount))
	}
	state.student.Baseline = baseline

	return p.StudentRepo.UpdateBaseline(state.student.ID, baseline)
}

func (p *SequentialProcessor) evaluateCrisisKeywords(_ context.Context, state *pipelineState) error {
	lower := strings.ToLower(state.text)
	var matched []string
	for _, phrase := range crisisPhrases {
		if strings.Contains(lower, phrase) {
			matched = append(matched, phrase)
		}
	}
	// Extractor safety flags naming intent count as triggers too, so
	// the protocol does not depend on the local phrase list alone.
	extractorFlagged := state.signals != nil && flagsNameSuicidalIntent(state.signals.SafetyFlags)
	if len(matched) == 0 && !extractorFlagged {
		return nil
	}

	state.crisis = true
	if state.signals != nil {
		state.signals.SafetyFlags = append(state.signals.SafetyFlags, matched...)
	}
	monitoring.CrisisProtocolTriggers.Inc()
	logger.Log.Warn("Crisis protocol triggered",
		zap.Uint("student_id", state.student.ID),
		zap.Int("phrases_matched", len(matched)))
	return nil
}

func (p *SequentialProcessor) evaluateScreenTrigger(_ context.Context, state *pipelineState) error {
	if state.signals == nil {
		return nil
	}

	severe := state.signals.HopelessnessScore > 0.6 ||
		state.signals.Sentiment < -0.6 ||
		state.deviation > 2.0
	if !severe {
		return nil
	}

	// Cooldown keeps the system from re-asking the same screener
	// within a short window.
	if state.student.LastScreenedAt != nil {
		cooldown := time.Duration(p.tuning().ScreenCooldownDays) * 24 * time.Hour
		if time.Since(*state.student.LastScreenedAt) < cooldown {
			return nil
		}
	}

	state.screen = true
	now := time.Now()
	state.student.LastScreenedAt = &now
	return p.StudentRepo.UpdateLastScreenedAt(state.student.ID, now)
}

func (p *SequentialProcessor) computeRisk(_ context.Context, state *pipelineState) error {
	profile, err := p.Calculator.Compute(state.student.ID, state.signals, state.crisis, nil)
	if err != nil {
		return err
	}
	state.profile = profile
	return nil
}

// localSignals computes the signal fields that never need the external
// extractor: emoji counts, word count, and a crude emoji sentiment.
func localSignals(text string) *model.MessageSignals {
	signals := &model.MessageSignals{
		WordCount: len(strings.Fields(text)),
	}

	var emojiSum float64
	for _, r := range text {
		if unicode.In(r, unicode.So, unicode.Sk) || r == '❤' {
			signals.EmojiCount++
			switch {
			case negativeEmoji[r]:
				emojiSum -= 1
			case positiveEmoji[r]:
				emojiSum += 1
			}
		}
	}
	if signals.EmojiCount > 0 {
		signals.EmojiSentiment = emojiSum / float64(signals.EmojiCount)
	}
	return signals
}
