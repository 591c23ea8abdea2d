// Package assistant answers questions about a company's figures through a
// configurable LLM provider.
package assistant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/shared"
)

// Provider names a supported completion backend.
type Provider string

const (
	ProviderGroq   Provider = "GROQ"
	ProviderGemini Provider = "GEMINI"
	ProviderOpenAI Provider = "OPENAI"
)

// ParseProvider normalises and validates a provider name.
func ParseProvider(raw string) (Provider, error) {
	switch p := Provider(strings.ToUpper(strings.TrimSpace(raw))); p {
	case ProviderGroq, ProviderGemini, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("%w: provider must be GROQ, GEMINI or OPENAI", shared.ErrValidation)
	}
}

// DefaultModel is used when a config leaves the model blank.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderGroq:
		return "llama-3.1-8b-instant"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-3.5-turbo"
	}
}

// NotConfiguredAnswer is returned instead of calling a provider when the
// company has no active config.
const NotConfiguredAnswer = "AI Assistant is not configured. Please go to Settings > AI to set up your provider (Groq/Gemini/OpenAI)."

// ErrCorruptSecret is returned when a stored key cannot be decrypted.
var ErrCorruptSecret = errors.New("assistant: stored api key cannot be decrypted")

// Record is the persisted config row. SealedKey holds the encrypted API key.
type Record struct {
	CompanyID uuid.UUID
	Provider  Provider
	Model     string
	SealedKey string
	IsActive  bool
	UpdatedAt time.Time
}

// Config is the client view of a record. The key itself is never returned.
type Config struct {
	CompanyID uuid.UUID `json:"companyId"`
	Provider  Provider  `json:"provider"`
	Model     string    `json:"model"`
	IsActive  bool      `json:"isActive"`
	HasAPIKey bool      `json:"hasApiKey"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConfigInput upserts a company's config. A blank apiKey keeps the stored one.
type ConfigInput struct {
	Provider string `json:"provider" validate:"required"`
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`
	IsActive bool   `json:"isActive"`
}

// DateRange optionally narrows the context period.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// AskInput is the question payload.
type AskInput struct {
	Query     string     `json:"query"`
	DateRange *DateRange `json:"dateRange"`
}

// Answer is returned by Ask.
type Answer struct {
	Answer          string            `json:"answer"`
	IsConfigMissing bool              `json:"isConfigMissing,omitempty"`
	Context         *FinancialContext `json:"context,omitempty"`
}

// Prompt is one completion request.
type Prompt struct {
	System string
	User   string
}
