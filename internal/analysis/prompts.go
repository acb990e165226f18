package analysis

import "fmt"

// MediaKind selects the prompt variant used for a media submission.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

const transcriptionShape = `Return ONLY a JSON object with this structure:
{
  "transcription": "the exact words spoken in the %s"
}

If there is no speech or the audio is unclear, return:
{
  "transcription": ""
}`

const audioTranscriptionPrompt = `You are a speech-to-text transcription expert. Listen to the audio and transcribe it accurately.
`

const videoTranscriptionPrompt = `You are a speech-to-text transcription expert. Listen to the audio track of this video and transcribe all spoken words accurately.

IMPORTANT:
- Only transcribe the spoken words
- Do NOT describe what you see in the video
- Do NOT analyze facial expressions or body language
- Only return what was actually SAID

`

const emotionShape = `Respond with ONLY this JSON structure, no other text:
{
  "emotions": {
    "Happy": <0-100>,
    "Sad": <0-100>,
    "Anger": <0-100>,
    "Fear": <0-100>,
    "Surprise": <0-100>,
    "Neutral": <0-100>
  },
  "keyThemes": ["theme1", "theme2", "theme3"]
}

The emotion scores must sum to approximately 100. Provide at most three short key themes.`

const emojiGuide = `Consider emojis as strong sentiment indicators:
- 😊 😄 😃 🎉 ❤️ = Happy
- 😢 😭 💔 = Sad
- 😠 😡 🤬 = Anger
- 😨 😰 😱 = Fear
- 😮 😲 🤯 = Surprise
- 😐 🤷 = Neutral

`

const textSentimentPrompt = `You are a sentiment analysis expert. Analyze the given text and return ONLY a valid JSON object with emotion scores.

` + emojiGuide + emotionShape

const mediaSentimentPrompt = `You are a sentiment analysis expert. Analyze ONLY the given TEXT and return emotion scores.

CRITICAL: Base your analysis ONLY on the words provided. Do NOT consider tone of voice, facial expressions, or any visual elements.

` + emotionShape

func transcriptionPrompt(kind MediaKind) string {
	if kind == MediaVideo {
		return videoTranscriptionPrompt + fmt.Sprintf(transcriptionShape, "video")
	}
	return audioTranscriptionPrompt + fmt.Sprintf(transcriptionShape, "audio")
}

func transcriptionInstruction(kind MediaKind) string {
	if kind == MediaVideo {
		return "Please transcribe ONLY the speech in this video (ignore visual elements):"
	}
	return "Please transcribe the speech in this audio:"
}

func textSentimentInstruction(text string) string {
	return fmt.Sprintf("Analyze the sentiment of this text: %q", text)
}

func mediaSentimentInstruction(kind MediaKind, transcription string) string {
	if kind == MediaVideo {
		return fmt.Sprintf("Analyze the sentiment of this transcribed speech (text only, ignore any context about video): %q", transcription)
	}
	return fmt.Sprintf("Analyze the sentiment of this transcribed speech: %q", transcription)
}
