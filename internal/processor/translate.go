package processor

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

const translatePrompt = `You are a master translator and literary stylist specializing in texts with high cultural and religious specificity. Your primary goal is to produce a polished, high-register %[1]s translation that prioritizes natural flow, contextual dignity, and cultural resonance for the specified audience, moving far beyond literal or word-for-word rendering.

Translate the following source document into simple yet professional, highly fluent %[1]s. CRITICAL OUTPUT RULE: The final response MUST consist SOLELY of the translated text. Do not include any introductory phrases, file headers, AI-generated headings, metadata, commentary, or extraneous text whatsoever.

Preprocessing: The source text may contain scanning errors (OCR mistakes). Look past these technical flaws to discern the author's true, intended words and meaning. Do not "correct" the style, only reconstruct the text to make it intelligible for translation.

Before generating the first word, internally identify the document's stylistic register and genre, and select the elevated %[1]s style that corresponds to it. Optimize tone and lexicon for an educated Indian %[1]s-speaking audience; avoid colloquial or casual Western phrasing.

CRITICAL: DO NOT TRANSLATE core Jain religious, philosophical, or technical terms (e.g., Anekantavada, Samyak Charitra, Kevala Jnana, Tirthankara). Preserve them as transliterated in the source. Text within <brackets> is usually Sanskrit and must be kept as is.

Text:
%[2]s

Response format:
[Provide the complete translated text maintaining structure and formatting.]`

var sanskritMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\*sanskrit\*(.*?)\*/sanskrit\*`),
	regexp.MustCompile(`(?is)\*\*sanskrit\*\*(.*?)\*\*/sanskrit\*\*`),
	regexp.MustCompile(`(?is)\[sanskrit\](.*?)\[/sanskrit\]`),
	regexp.MustCompile(`(?is)<sanskrit>(.*?)</sanskrit>`),
}

type translateConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int64  `json:"timeout_seconds"`
}

type translateProcessor struct {
	gemini *geminiClient
}

func init() {
	Register("translate", createTranslateProcessor)
}

func createTranslateProcessor(args interface{}) (Processor, error) {
	cfg := &translateConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	gemini, err := newGeminiClient(cfg.APIKey, cfg.Model, time.Duration(cfg.Timeout)*time.Second)
	if err != nil {
		return nil, err
	}
	return &translateProcessor{gemini: gemini}, nil
}

func (p *translateProcessor) Name() string {
	return "translate"
}

func (p *translateProcessor) Process(ctx context.Context, unit Unit) (string, error) {
	target := unit.TargetLanguage
	if target == "" {
		target = "English"
	}
	prompt := fmt.Sprintf(translatePrompt, target, normalizeSanskritMarkers(unit.Text))
	return p.gemini.generate(ctx, prompt)
}

// normalizeSanskritMarkers rewrites the assorted sanskrit tagging styles
// found in scanned sources into the single <...> form the prompt documents.
func normalizeSanskritMarkers(text string) string {
	for _, marker := range sanskritMarkers {
		text = marker.ReplaceAllString(text, "<$1>")
	}
	return text
}
