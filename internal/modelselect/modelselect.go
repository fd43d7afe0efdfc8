// Package modelselect picks an inference model for a user message. The
// selection is a deterministic two-axis heuristic over the message text
// and never needs a live inference call, so it can be unit tested
// exhaustively.
package modelselect

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/chatrouter/chatrouter/internal/store"
)

// TaskType buckets what the user is asking for.
type TaskType string

const (
	TaskTechnical TaskType = "technical"
	TaskCreative  TaskType = "creative"
	TaskAnalysis  TaskType = "analysis"
	TaskGeneral   TaskType = "general"
)

// Complexity buckets how involved the request looks.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

const DefaultModel = "anthropic.claude-3-5-haiku-20241022-v2:0"

// Keyword sets are bilingual (English and Japanese) to match the user
// base; Japanese hits come in via the substring rule since the text is
// not space-delimited.
var taskKeywords = map[TaskType][]string{
	TaskTechnical: {
		"bug", "error", "エラー", "バグ", "exception", "issue", "problem",
		"debug", "デバッグ", "fix", "修正", "troubleshoot", "トラブル",
		"code", "コード", "function", "関数", "method", "メソッド",
		"api", "database", "sql", "query", "server", "サーバー",
		"deploy", "デプロイ", "config", "設定", "performance", "パフォーマンス",
	},
	TaskCreative: {
		"create", "作成", "write", "書い", "generate", "生成", "design", "デザイン",
		"story", "物語", "article", "記事", "blog", "ブログ", "content", "コンテンツ",
		"creative", "創造", "imagine", "想像", "brainstorm", "アイデア",
		"novel", "小説", "poem", "詩", "script", "脚本", "marketing", "マーケティング",
	},
	TaskAnalysis: {
		"analyze", "分析", "compare", "比較", "evaluate", "評価", "review", "レビュー",
		"explain", "説明", "summarize", "要約", "research", "研究", "調査",
		"report", "レポート", "data", "データ", "statistics", "統計",
		"trend", "トレンド", "insight", "洞察", "conclusion", "結論",
		"recommendation", "推奨", "strategy", "戦略", "planning", "計画",
	},
	TaskGeneral: {
		"hello", "こんにちは", "help", "ヘルプ", "question", "質問",
		"what", "how", "why", "when", "where", "who",
		"なに", "どう", "なぜ", "いつ", "どこ", "だれ",
		"please", "お願い", "thanks", "ありがとう", "sorry", "すみません",
	},
}

var complexityIndicators = map[Complexity][]string{
	ComplexityHigh: {
		"complex", "複雑", "detailed", "詳細", "comprehensive", "包括的",
		"thorough", "徹底的", "deep", "深い", "advanced", "高度",
		"multi-step", "多段階", "integration", "統合", "architecture", "アーキテクチャ",
	},
	ComplexityMedium: {
		"moderate", "中程度", "standard", "標準", "typical", "一般的",
		"normal", "通常", "regular", "定期的", "basic", "基本的",
	},
	ComplexityLow: {
		"simple", "シンプル", "easy", "簡単", "quick", "素早い",
		"brief", "簡潔", "basic", "基本", "straightforward", "単純",
	},
}

// classifyOrder fixes iteration order so scoring stays deterministic.
var classifyOrder = []TaskType{TaskTechnical, TaskCreative, TaskAnalysis, TaskGeneral}

// Params are generation parameters recommended for a model.
type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Selector picks models and parameters for AI jobs.
type Selector struct {
	logger *slog.Logger
}

func New(log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{logger: log.With(slog.String("service", "modelselect"))}
}

// Select returns the model to run userMessage against, based on the
// bot's task mapping plus the task/complexity heuristic.
func (s *Selector) Select(userMessage string, cfg *store.AIConfig) string {
	defaultModel := DefaultModel
	var mapping map[string]string
	if cfg != nil {
		if cfg.DefaultModel != "" {
			defaultModel = cfg.DefaultModel
		}
		mapping = cfg.TaskModelMapping
	}

	normalized := strings.ToLower(strings.TrimSpace(userMessage))
	taskType := Classify(normalized)
	complexity := AssessComplexity(normalized)
	selected := determineModel(taskType, complexity, mapping, defaultModel)

	s.logger.Info("model selected",
		slog.String("task_type", string(taskType)),
		slog.String("complexity", string(complexity)),
		slog.String("model", selected))
	return selected
}

// Classify scores the message against each keyword set. An exact token
// match scores 2, a keyword appearing inside a token scores 1. A zero
// or tied top score falls back to general.
func Classify(message string) TaskType {
	message = strings.ToLower(strings.TrimSpace(message))
	tokens := strings.Fields(message)

	best := TaskGeneral
	bestScore := 0
	tied := false
	for _, taskType := range classifyOrder {
		score := 0
		for _, keyword := range taskKeywords[taskType] {
			score += keywordScore(keyword, tokens)
		}
		if score > bestScore {
			best = taskType
			bestScore = score
			tied = false
		} else if score == bestScore && score > 0 {
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return TaskGeneral
	}
	return best
}

func keywordScore(keyword string, tokens []string) int {
	substring := false
	for _, token := range tokens {
		if token == keyword {
			return 2
		}
		if strings.Contains(token, keyword) {
			substring = true
		}
	}
	if substring {
		return 1
	}
	return 0
}

// AssessComplexity combines length buckets with indicator keywords,
// weighted 3/2/1 for high/medium/low hits. Totals of 4 and up are high,
// 2 and up medium.
func AssessComplexity(message string) Complexity {
	message = strings.ToLower(strings.TrimSpace(message))

	total := 0
	switch length := utf8.RuneCountInString(message); {
	case length > 200:
		total += 2
	case length > 100:
		total += 1
	}

	weights := map[Complexity]int{ComplexityHigh: 3, ComplexityMedium: 2, ComplexityLow: 1}
	for level, keywords := range complexityIndicators {
		hits := 0
		for _, keyword := range keywords {
			if strings.Contains(message, keyword) {
				hits++
			}
		}
		total += hits * weights[level]
	}

	switch {
	case total >= 4:
		return ComplexityHigh
	case total >= 2:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// determineModel applies the task mapping, then swaps tiers within the
// same model family: hard tasks climb from the fast tier, easy general
// chatter drops to it.
func determineModel(taskType TaskType, complexity Complexity, mapping map[string]string, defaultModel string) string {
	base := defaultModel
	if m, ok := mapping[string(taskType)]; ok && m != "" {
		base = m
	}

	switch {
	case complexity == ComplexityHigh && strings.Contains(strings.ToLower(base), "haiku"):
		base = strings.ReplaceAll(base, "haiku", "sonnet")
	case complexity == ComplexityLow && taskType == TaskGeneral && strings.Contains(strings.ToLower(base), "sonnet"):
		base = strings.ReplaceAll(base, "sonnet", "haiku")
	}
	return base
}

// RecommendedConfig returns generation parameters tuned per tier.
func RecommendedConfig(modelID string) Params {
	lower := strings.ToLower(modelID)
	switch {
	case strings.Contains(lower, "sonnet"):
		return Params{MaxTokens: 8192, Temperature: 0.8, TopP: 0.95}
	case strings.Contains(lower, "haiku"):
		return Params{MaxTokens: 4096, Temperature: 0.6, TopP: 0.9}
	default:
		return Params{MaxTokens: 4096, Temperature: 0.7, TopP: 0.9}
	}
}

// ValidateSelection guards against blowing a model's context window.
// Tokens are estimated at one per four characters.
func (s *Selector) ValidateSelection(modelID string, messageLength, contextLength int) bool {
	estimated := (messageLength + contextLength) / 4
	lower := strings.ToLower(modelID)

	switch {
	case strings.Contains(lower, "haiku") && estimated > 100_000:
		s.logger.Warn("context too large for fast tier", slog.Int("estimated_tokens", estimated))
		return false
	case strings.Contains(lower, "sonnet") && estimated > 180_000:
		s.logger.Warn("context too large for capable tier", slog.Int("estimated_tokens", estimated))
		return false
	}
	return true
}
