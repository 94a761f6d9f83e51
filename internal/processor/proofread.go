package processor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const proofreadPrompt = `ROLE & CORE DIRECTIVE: You are a meticulous digital text restorer. Your sole function is to correct technical errors from an OCR scan while perfectly preserving the original author's voice, style, and intent.

GUIDING PRINCIPLES:
 * The Rule of Minimum Intervention: Only change what is absolutely necessary to fix a clear technical OCR error.
 * The Rule of Stylistic Invisibility: Your corrections must be so perfectly matched to the original style that a reader would never know an OCR error ever existed.

YOUR TASKS (In Order of Priority):
LEVEL 1: PURELY TECHNICAL CORRECTIONS
 * Character Recognition: Fix misidentified characters
 * Vowel Marks & Conjuncts (%s): Correct any missing, extra, or broken matras, bindis/anusvaras, and repair broken conjunct characters
 * Spacing: Eliminate incorrect spaces inside words and add missing spaces between words
 * Punctuation: Correct OCR-mangled punctuation
 * Line Breaks & Hyphenation: Join words incorrectly split by end-of-line hyphenation
 * Formatting & Structure: Reconstruct paragraph breaks, preserve headings
%s
LEVEL 2: CONTEXT-AWARE CORRECTIONS
 * Nonsensical Words: Replace words that are gibberish due to OCR errors
 * Style-Matched Replacement: Replacements MUST match the exact same formality and tone

ABSOLUTE PROHIBITIONS:
 * DO NOT TRANSLATE THE CONTENT
 * DO NOT "IMPROVE" THE TEXT
 * DO NOT MODERNIZE OR SANITIZE
 * DO NOT ALTER THE TONE
 * DO NOT CHANGE VOCABULARY LEVEL
 * DO NOT REPHRASE FOR CLARITY

Text to process:
%s

Response format:
CORRECTED_TEXT:
[Provide the corrected version with ONLY OCR errors fixed, maintaining the exact original style and tone.]`

const gujaratiInstructions = ` - Check for proper Gujarati matras and verify correct use of Gujarati conjuncts and half letters
 - Check Gujarati punctuation marks and ensure proper spacing in Gujarati text
 - Fix common OCR confusions between similar Gujarati letters`

const hindiInstructions = ` - Check for proper Hindi matras and verify correct use of Hindi conjuncts and half letters
 - Check Hindi punctuation marks and ensure proper spacing in Hindi text
 - Fix common OCR confusions between similar Devanagari letters`

type proofreadConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int64  `json:"timeout_seconds"`
}

type proofreadProcessor struct {
	gemini *geminiClient
}

func init() {
	Register("proofread", createProofreadProcessor)
}

func createProofreadProcessor(args interface{}) (Processor, error) {
	cfg := &proofreadConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	gemini, err := newGeminiClient(cfg.APIKey, cfg.Model, time.Duration(cfg.Timeout)*time.Second)
	if err != nil {
		return nil, err
	}
	return &proofreadProcessor{gemini: gemini}, nil
}

func (p *proofreadProcessor) Name() string {
	return "proofread"
}

func (p *proofreadProcessor) Process(ctx context.Context, unit Unit) (string, error) {
	language := unit.Language
	if language == "" {
		language = "Hindi"
	}
	instructions := hindiInstructions
	if strings.EqualFold(language, "gujarati") {
		instructions = gujaratiInstructions
	}
	prompt := fmt.Sprintf(proofreadPrompt, language, instructions, unit.Text)
	raw, err := p.gemini.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	corrected := extractCorrectedText(raw)
	if corrected == "" {
		// Nothing usable in the response; the page stands as submitted.
		return unit.Text, nil
	}
	return corrected, nil
}

// extractCorrectedText pulls the corrected body out of the model's
// structured response, tolerating the trailing sections and preambles the
// model sometimes adds despite the prompt.
func extractCorrectedText(response string) string {
	if idx := strings.Index(response, "CORRECTED_TEXT:"); idx >= 0 {
		body := response[idx+len("CORRECTED_TEXT:"):]
		for _, section := range []string{"CHANGES_MADE:", "FORMATTING_APPLIED:"} {
			if cut := strings.Index(body, section); cut >= 0 {
				body = body[:cut]
			}
		}
		if trimmed := strings.TrimSpace(body); trimmed != "" {
			return trimmed
		}
	}
	cleaned := strings.TrimSpace(response)
	for _, prefix := range []string{
		"TECHNICAL ERRORS FOUND:",
		"CHANGES_MADE:",
		"FORMATTING_APPLIED:",
		"No technical corrections needed",
		"No obvious technical errors found",
	} {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
	}
	if len(cleaned) > 50 {
		return cleaned
	}
	return ""
}
