// Orchestrator configuration types.
//
// Information Hiding:
// - Default values hidden
// - Settings mapping hidden

package agent

import (
	"time"

	"github.com/richinex/drwin/config"
)

// Config holds orchestrator configuration.
type Config struct {
	// Persona opens the system instruction.
	Persona string

	// HistoryWindow is the number of most recent turns sent to the model.
	HistoryWindow int

	// MaxParallelTools bounds concurrent tool executions within a turn.
	MaxParallelTools int

	// SelectionTimeout bounds the tool-selection gateway call.
	SelectionTimeout time.Duration

	// SynthesisTimeout bounds the synthesis gateway call.
	SynthesisTimeout time.Duration

	// Language is the reply language ("en" or "es").
	Language string
}

// DefaultPersona is the fixed mission statement of the assistant.
const DefaultPersona = `You are Dr. Win, an expert grant-writing assistant. You help companies and research groups find public funding, check their eligibility, design fundable project concepts, and adapt existing proposals to new calls or resubmissions. You coordinate a team of specialists, each reachable through a tool.`

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		Persona:          DefaultPersona,
		HistoryWindow:    10,
		MaxParallelTools: 4,
		SelectionTimeout: 90 * time.Second,
		SynthesisTimeout: 120 * time.Second,
		Language:         "en",
	}
}

// ConfigFromSettings maps application settings onto an orchestrator config.
func ConfigFromSettings(s config.AgentConfig) Config {
	c := DefaultConfig()
	c.HistoryWindow = s.HistoryWindow
	c.MaxParallelTools = s.MaxParallelTools
	c.SelectionTimeout = s.SelectionTimeout
	c.SynthesisTimeout = s.SynthesisTimeout
	if s.Language != "" {
		c.Language = s.Language
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Persona == "" {
		c.Persona = d.Persona
	}
	if c.HistoryWindow < 0 {
		c.HistoryWindow = 0
	}
	if c.MaxParallelTools <= 0 {
		c.MaxParallelTools = d.MaxParallelTools
	}
	if c.SelectionTimeout <= 0 {
		c.SelectionTimeout = d.SelectionTimeout
	}
	if c.SynthesisTimeout <= 0 {
		c.SynthesisTimeout = d.SynthesisTimeout
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	return c
}

// spanish reports whether replies should be written in Spanish.
func (c Config) spanish() bool {
	return len(c.Language) >= 2 && (c.Language[:2] == "es" || c.Language[:2] == "ES")
}
