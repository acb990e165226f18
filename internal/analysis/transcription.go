package analysis

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// minTranscriptWords is the number of words longer than one character a
// transcript needs before it is worth analyzing. Silence, noise and single
// word utterances fall below it.
const minTranscriptWords = 2

type transcriptionPayload struct {
	Transcription *string `json:"transcription"`
}

// parseTranscription turns the raw transcription reply into plain text. When
// the reply holds no JSON object the whole trimmed reply is the transcript.
func parseTranscription(raw string) (string, error) {
	object, err := extractJSONObject(raw)
	if errors.Is(err, errAmbiguousJSON) {
		return "", newError(KindAmbiguousModelResponse, "Transcription response was ambiguous", err)
	}
	if err != nil {
		return strings.TrimSpace(raw), nil
	}
	var payload transcriptionPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return strings.TrimSpace(raw), nil
	}
	if payload.Transcription == nil {
		return "", nil
	}
	return strings.TrimSpace(*payload.Transcription), nil
}

// meaningfulWords returns the whitespace separated tokens longer than one character.
func meaningfulWords(transcript string) []string {
	var words []string
	for _, token := range strings.Fields(transcript) {
		if utf8.RuneCountInString(token) > 1 {
			words = append(words, token)
		}
	}
	return words
}

func hasEnoughSpeech(transcript string) bool {
	return transcript != "" && len(meaningfulWords(transcript)) >= minTranscriptWords
}
