package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"indisense/sentiment-gateway/models"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"

	labelWidth = 14
	barWidth   = 20
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func sentimentColor(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return ansiGreen
	case models.SentimentNegative:
		return ansiRed
	}
	return ansiYellow
}

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

// scoreBar draws a score in [0,100] as a fixed-width bar.
func scoreBar(score float64) string {
	filled := int(models.ClampScore(score)/100*barWidth + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
}

func renderResult(res *models.AnalysisResult, colorize bool) string {
	scores := res.Emotions
	dominant := scores.Dominant()

	rows := make([][]string, 0, len(models.CanonicalEmotions))
	for _, e := range models.CanonicalEmotions {
		label := string(e)
		if e == dominant {
			label = paint(label, ansiBlue, colorize)
		}
		rows = append(rows, []string{label, fmt.Sprintf("%.0f%%", scores.Get(e)), scoreBar(scores.Get(e))})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"Emotion", "Score", ""}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	b.WriteString("\n")

	overall := scores.Overall()
	writeField(&b, "Dominant", fmt.Sprintf("%s (%d%% confidence)", dominant, scores.Confidence()))
	writeField(&b, "Overall", paint(string(overall), sentimentColor(overall), colorize))
	if len(res.KeyThemes) > 0 {
		writeField(&b, "Key themes", strings.Join(res.KeyThemes, ", "))
	}
	if res.Transcription != "" {
		writeField(&b, "Transcription", res.Transcription)
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-*s %s\n", labelWidth, label+":", value)
}

func renderUploads(uploads []models.MediaUpload, now time.Time) string {
	if len(uploads) == 0 {
		return "No archived media\n"
	}
	rows := make([][]string, 0, len(uploads))
	for _, u := range uploads {
		uploaded := "-"
		if !u.CreatedAt.IsZero() {
			uploaded = humanize.RelTime(u.CreatedAt, now, "ago", "from now")
		}
		rows = append(rows, []string{u.FileName, u.MimeType, humanize.Bytes(uint64(max(u.SizeBytes, 0))), uploaded, u.StoragePath})
	}
	return renderTable(
		[]string{"File", "Type", "Size", "Uploaded", "Path"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	) + "\n"
}
