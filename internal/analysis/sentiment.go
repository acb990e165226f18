package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"indisense/sentiment-gateway/models"
)

const (
	msgParseSentiment = "Failed to parse sentiment analysis"
	msgInvalidShape   = "Invalid analysis result structure"
)

// SentimentResult is the validated reply of the sentiment sub-step.
type SentimentResult struct {
	Emotions  models.EmotionScores
	KeyThemes []string
}

type sentimentPayload struct {
	Emotions  json.RawMessage `json:"emotions"`
	KeyThemes json.RawMessage `json:"keyThemes"`
}

// parseSentiment extracts and validates the sentiment reply. Scores are
// clamped to [0,100] but never rescaled; missing labels score 0.
func parseSentiment(raw string) (*SentimentResult, error) {
	object, err := extractJSONObject(raw)
	if errors.Is(err, errAmbiguousJSON) {
		return nil, newError(KindAmbiguousModelResponse, "Sentiment analysis response was ambiguous", err)
	}
	if err != nil {
		return nil, newError(KindMalformedModelResponse, msgParseSentiment, err)
	}

	var payload sentimentPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return nil, newError(KindMalformedModelResponse, msgParseSentiment, err)
	}
	if isNullOrMissing(payload.Emotions) {
		return nil, newError(KindInvalidResultShape, msgInvalidShape, errors.New("emotions field missing"))
	}

	emotions, err := decodeEmotions(payload.Emotions)
	if err != nil {
		return nil, newError(KindInvalidResultShape, msgInvalidShape, err)
	}
	return &SentimentResult{
		Emotions:  emotions,
		KeyThemes: decodeThemes(payload.KeyThemes),
	}, nil
}

func isNullOrMissing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeEmotions(raw json.RawMessage) (models.EmotionScores, error) {
	var scores models.EmotionScores
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return scores, fmt.Errorf("emotions is not an object: %w", err)
	}
	for key, value := range fields {
		label, ok := canonicalLabel(key)
		if !ok {
			continue
		}
		score, err := decodeScore(value)
		if err != nil {
			return scores, fmt.Errorf("emotion %s: %w", label, err)
		}
		scores.Set(label, models.ClampScore(score))
	}
	return scores, nil
}

func canonicalLabel(key string) (models.Emotion, bool) {
	key = strings.TrimSpace(key)
	for _, e := range models.CanonicalEmotions {
		if strings.EqualFold(key, string(e)) {
			return e, true
		}
	}
	return "", false
}

// decodeScore accepts a JSON number or a numeric string such as "40" or "40%".
func decodeScore(raw json.RawMessage) (float64, error) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("score %s is not a number", string(raw))
	}
	number, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(text), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", text)
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, fmt.Errorf("score %q is not finite", text)
	}
	return number, nil
}

// decodeThemes keeps the non-blank string entries of keyThemes. Anything
// other than an array yields no themes.
func decodeThemes(raw json.RawMessage) []string {
	themes := []string{}
	if isNullOrMissing(raw) {
		return themes
	}
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return themes
	}
	for _, entry := range entries {
		theme, ok := entry.(string)
		if !ok {
			continue
		}
		if theme = strings.TrimSpace(theme); theme != "" {
			themes = append(themes, theme)
		}
	}
	return themes
}
