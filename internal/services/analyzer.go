package services

import (
	"context"
	"fmt"

	"github.com/poke-max/job-analyzer/internal/models"
	"github.com/poke-max/job-analyzer/internal/ollama"
)

// ChatCompleter is the single remote procedure the analyzer needs from the
// inference backend. Retry policy lives entirely behind this boundary.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string, image []byte) (string, error)
}

// Analyzer turns raw content into a typed ExtractionRecord by prompting the
// model and parsing its loosely structured reply.
type Analyzer struct {
	chat ChatCompleter
}

// NewAnalyzer creates an Analyzer backed by the given chat client.
func NewAnalyzer(chat ChatCompleter) *Analyzer {
	return &Analyzer{chat: chat}
}

// ClassifyImage classifies an image, optionally merging supplementary text
// into the prompt body verbatim.
func (a *Analyzer) ClassifyImage(ctx context.Context, image []byte, supplementaryText string) (*models.ExtractionRecord, error) {
	prompt := imageJobPrompt
	if supplementaryText != "" {
		prompt = fmt.Sprintf("%s\n\nAdditional text provided:\n%s", prompt, supplementaryText)
	}

	content, err := a.chat.Complete(ctx, prompt, image)
	if err != nil {
		return nil, err
	}
	return recordFromMap(ollama.ExtractJSON(content)), nil
}

// ClassifyText classifies plain text content.
func (a *Analyzer) ClassifyText(ctx context.Context, text string) (*models.ExtractionRecord, error) {
	prompt := fmt.Sprintf("%s\n\nText to analyze:\n%s", textJobPrompt, text)

	content, err := a.chat.Complete(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	return recordFromMap(ollama.ExtractJSON(content)), nil
}

// recordFromMap converts the parser output into the tagged record form.
// The discriminant is read first; no other field is trusted until then.
// The unparsable sentinel becomes a non-ad record that keeps the raw text.
func recordFromMap(m map[string]any) *models.ExtractionRecord {
	if raw, ok := ollama.Unparsable(m); ok {
		return &models.ExtractionRecord{
			IsJobAd:    false,
			Unparsable: true,
			Raw:        raw,
			Reason:     "model response could not be parsed as JSON",
		}
	}

	isJobAd, _ := m["isJobAd"].(bool)
	if !isJobAd {
		reason, _ := m["reason"].(string)
		return &models.ExtractionRecord{IsJobAd: false, Reason: reason}
	}

	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}

	rec := &models.ExtractionRecord{
		Source:       str("source"),
		IsJobAd:      true,
		Position:     str("position"),
		Title:        str("title"),
		Description:  str("description"),
		City:         str("city"),
		Address:      str("address"),
		Company:      str("company"),
		VacancyCount: str("vacancyCount"),
		Requirements: str("requirements"),
		SalaryRange:  str("salaryRange"),
		Phone:        str("phone"),
		Email:        str("email"),
		Website:      str("website"),
		WorkingHours: str("workingHours"),
	}
	if rec.Source == "" {
		rec.Source = models.RecordSource
	}
	return rec
}
