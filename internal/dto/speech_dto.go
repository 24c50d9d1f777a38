package dto

import "github.com/vocalis-dev/vocalis-api/pkg/ai"

// SynthesizeRequest is the payload for text-to-speech.
type SynthesizeRequest struct {
	Text   string `json:"text" validate:"required,min=1,max=4096"`
	Voice  string `json:"voice" validate:"omitempty,max=64"`
	Format string `json:"format" validate:"omitempty,oneof=mp3 wav flac opus aac pcm"`
}

// SynthesizeResponse carries the synthesized audio, base64-encoded.
type SynthesizeResponse struct {
	AudioBase64 string  `json:"audio_base64"`
	MimeType    string  `json:"mime_type"`
	Cached      bool    `json:"cached"`
	Meta        ai.Meta `json:"meta"`
}

// TranscribeResponse carries the transcript of an uploaded recording.
type TranscribeResponse struct {
	Text     string  `json:"text"`
	MimeType string  `json:"mime_type"`
	Meta     ai.Meta `json:"meta"`
}
