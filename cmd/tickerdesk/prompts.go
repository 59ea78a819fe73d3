package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"

	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/views"
)

// promptTranscript asks for every importer field interactively.
func promptTranscript() (views.TranscriptForm, error) {
	var form views.TranscriptForm

	questions := []*survey.Question{
		{
			Name: "SourceName",
			Prompt: &survey.Input{
				Message: "Source name:",
				Help:    "Podcast, video or article the transcript comes from",
				Default: "Manual import",
			},
		},
		{
			Name: "Date",
			Prompt: &survey.Input{
				Message: "Recording date (YYYY-MM-DD):",
				Default: time.Now().Format("2006-01-02"),
			},
			Validate: func(val interface{}) error {
				str := strings.TrimSpace(val.(string))
				if str == "" {
					return nil
				}
				if _, err := time.Parse("2006-01-02", str); err != nil {
					return fmt.Errorf("invalid date format, use YYYY-MM-DD")
				}
				return nil
			},
		},
		{
			Name:   "URL",
			Prompt: &survey.Input{Message: "Source URL (optional):"},
			Validate: func(val interface{}) error {
				str := strings.TrimSpace(val.(string))
				if str == "" {
					return nil
				}
				u, err := url.Parse(str)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
					return fmt.Errorf("URL must start with http:// or https://")
				}
				return nil
			},
		},
		{
			Name: "Quality",
			Prompt: &survey.Select{
				Message: "Transcript quality:",
				Options: []string{string(models.QualityHigh), string(models.QualityMedium), string(models.QualityLow)},
				Default: string(models.QualityMedium),
			},
		},
		{
			Name: "Text",
			Prompt: &survey.Multiline{
				Message: "Paste the transcript (text or HTML), finish with an empty line:",
			},
			Validate: func(val interface{}) error {
				text, err := views.NormalizeTranscript(val.(string))
				if err != nil {
					return err
				}
				if n := utf8.RuneCountInString(text); n < views.MinTranscriptLength {
					return fmt.Errorf("transcript too short: %d of %d characters", n, views.MinTranscriptLength)
				}
				return nil
			},
		},
	}

	if err := survey.Ask(questions, &form); err != nil {
		return views.TranscriptForm{}, err
	}
	return form, nil
}
