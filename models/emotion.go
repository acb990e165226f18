package models

import "math"

// Emotion is one of the six canonical emotion labels.
type Emotion string

const (
	Happy    Emotion = "Happy"
	Sad      Emotion = "Sad"
	Anger    Emotion = "Anger"
	Fear     Emotion = "Fear"
	Surprise Emotion = "Surprise"
	Neutral  Emotion = "Neutral"
)

// CanonicalEmotions lists the labels in display order. Ties in Dominant are
// broken by this order.
var CanonicalEmotions = []Emotion{Happy, Sad, Anger, Fear, Surprise, Neutral}

// Sentiment is the overall polarity derived from a set of emotion scores.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// overallThreshold is the score above which an emotion decides the overall sentiment.
const overallThreshold = 40

// EmotionScores maps every canonical label to a score in [0,100].
// The scores are expected to sum to roughly 100 but this is not enforced.
type EmotionScores struct {
	Happy    float64 `json:"Happy"`
	Sad      float64 `json:"Sad"`
	Anger    float64 `json:"Anger"`
	Fear     float64 `json:"Fear"`
	Surprise float64 `json:"Surprise"`
	Neutral  float64 `json:"Neutral"`
}

// Get returns the score for a label, or 0 for an unknown label.
func (s EmotionScores) Get(e Emotion) float64 {
	switch e {
	case Happy:
		return s.Happy
	case Sad:
		return s.Sad
	case Anger:
		return s.Anger
	case Fear:
		return s.Fear
	case Surprise:
		return s.Surprise
	case Neutral:
		return s.Neutral
	}
	return 0
}

// Set stores a score for a label. Unknown labels are ignored.
func (s *EmotionScores) Set(e Emotion, v float64) {
	switch e {
	case Happy:
		s.Happy = v
	case Sad:
		s.Sad = v
	case Anger:
		s.Anger = v
	case Fear:
		s.Fear = v
	case Surprise:
		s.Surprise = v
	case Neutral:
		s.Neutral = v
	}
}

// Sum adds up all six scores.
func (s EmotionScores) Sum() float64 {
	var total float64
	for _, e := range CanonicalEmotions {
		total += s.Get(e)
	}
	return total
}

// Dominant returns the label with the highest score.
func (s EmotionScores) Dominant() Emotion {
	best := CanonicalEmotions[0]
	for _, e := range CanonicalEmotions[1:] {
		if s.Get(e) > s.Get(best) {
			best = e
		}
	}
	return best
}

// Confidence is the dominant score rounded to a whole percentage.
func (s EmotionScores) Confidence() int {
	return int(math.Round(s.Get(s.Dominant())))
}

// Overall classifies the scores: any positive emotion above the threshold wins,
// then any negative emotion above it, otherwise the result is neutral.
func (s EmotionScores) Overall() Sentiment {
	if s.Happy > overallThreshold || s.Surprise > overallThreshold {
		return SentimentPositive
	}
	if s.Sad > overallThreshold || s.Anger > overallThreshold || s.Fear > overallThreshold {
		return SentimentNegative
	}
	return SentimentNeutral
}

// ClampScore limits a score to the [0,100] range.
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
