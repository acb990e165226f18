package models

// StatusAnalyzed is the status value of every successful analysis response.
const StatusAnalyzed = "analyzed"

// AnalysisResult is the outcome of one successful analysis request.
type AnalysisResult struct {
	Emotions      EmotionScores `json:"emotions"`
	Transcription string        `json:"transcription,omitempty"` // Media requests only
	KeyThemes     []string      `json:"keyThemes"`
}

// AnalysisResponse is the success envelope returned by the analysis endpoints.
type AnalysisResponse struct {
	Status        string        `json:"status"`
	Emotions      EmotionScores `json:"emotions"`
	KeyThemes     []string      `json:"keyThemes"`
	Transcription *string       `json:"transcription,omitempty"`
}

// NewAnalysisResponse wraps a result in the success envelope. keyThemes is
// never null on the wire.
func NewAnalysisResponse(r *AnalysisResult, media bool) AnalysisResponse {
	themes := r.KeyThemes
	if themes == nil {
		themes = []string{}
	}
	resp := AnalysisResponse{
		Status:    StatusAnalyzed,
		Emotions:  r.Emotions,
		KeyThemes: themes,
	}
	if media {
		transcription := r.Transcription
		resp.Transcription = &transcription
	}
	return resp
}

// Result converts a decoded success envelope back into an AnalysisResult.
func (r AnalysisResponse) Result() *AnalysisResult {
	out := &AnalysisResult{
		Emotions:  r.Emotions,
		KeyThemes: r.KeyThemes,
	}
	if r.Transcription != nil {
		out.Transcription = *r.Transcription
	}
	return out
}

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TextAnalysisRequest is the body of a text analysis request.
type TextAnalysisRequest struct {
	Text string `json:"text" validate:"required"`
}

// MediaAnalysisRequest is the body of an audio or video analysis request.
// Video submissions carry the video's audio track in AudioData.
type MediaAnalysisRequest struct {
	AudioData string `json:"audioData" validate:"required"` // Base64, optionally as a data URL
	MimeType  string `json:"mimeType"`
	FileName  string `json:"fileName"`
}
