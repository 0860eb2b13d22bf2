package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	openaix "github.com/b3cub3d/mcp-playground/pkg/openaiapi"
)

// Config resolves which model serves each agent. Every agent falls back to
// the default Model unless an override is set; a negative temperature
// override means "inherit".
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"o4-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"1"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	UtilityModel       string  `envconfig:"UTILITY_MODEL" split_words:"true"`
	FinanceModel       string  `envconfig:"FINANCE_MODEL" split_words:"true"`
	SpanishModel       string  `envconfig:"SPANISH_MODEL" split_words:"true"`
	UtilityTemperature float32 `envconfig:"UTILITY_TEMPERATURE" split_words:"true" default:"-1"`
	FinanceTemperature float32 `envconfig:"FINANCE_TEMPERATURE" split_words:"true" default:"-1"`
	SpanishTemperature float32 `envconfig:"SPANISH_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenAIFor produces the connection config for one agent type.
func (c Config) OpenAIFor(agentType contractx.AgentType) openaix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeUtility:
		if v := strings.TrimSpace(c.UtilityModel); v != "" {
			modelName = v
		}
		if c.UtilityTemperature >= 0 {
			temp = c.UtilityTemperature
		}
	case contractx.AgentTypeFinance:
		if v := strings.TrimSpace(c.FinanceModel); v != "" {
			modelName = v
		}
		if c.FinanceTemperature >= 0 {
			temp = c.FinanceTemperature
		}
	case contractx.AgentTypeSpanish:
		if v := strings.TrimSpace(c.SpanishModel); v != "" {
			modelName = v
		}
		if c.SpanishTemperature >= 0 {
			temp = c.SpanishTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
