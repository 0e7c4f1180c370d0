package agent

import "strings"

// VoiceConfig enables speech synthesis for a persona's utterances.
type VoiceConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Voice     string `yaml:"voice" json:"voice"`
	Model     string `yaml:"model" json:"model"`
	Format    string `yaml:"format" json:"format"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// Persona is the static configuration defining one agent's behavior. Loaded
// once at session start; never mutated during a run.
type Persona struct {
	// Name is the internal identifier, also the agent's memory namespace.
	Name string `yaml:"name" json:"name"`

	// DisplayName is what appears as the message sender. Defaults to Name.
	DisplayName string `yaml:"display_name" json:"display_name"`

	// SystemPrompt is the base persona description.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// Instructions are optional extra directives appended to the prompt.
	Instructions string `yaml:"instructions" json:"instructions"`

	Model       string  `yaml:"model" json:"model"`
	Provider    string  `yaml:"provider" json:"provider"`
	Temperature float32 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`

	// MemoryTopK bounds long-term memory retrieval per turn.
	MemoryTopK int `yaml:"memory_top_k" json:"memory_top_k"`

	// MaxContextTokens bounds the rendered prompt; see history.TrimToBudget.
	MaxContextTokens int `yaml:"max_context_tokens" json:"max_context_tokens"`

	// AllowedTools is the enforced set of tool names this persona may invoke.
	// Anything else the model requests is rejected before execution.
	AllowedTools []string `yaml:"allowed_tools" json:"allowed_tools"`

	Voice VoiceConfig `yaml:"voice" json:"voice"`
}

// Display returns the persona's display name, falling back to Name.
func (p Persona) Display() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// FullPrompt composes the system prompt with the optional appended
// instructions.
func (p Persona) FullPrompt() string {
	prompt := strings.TrimSpace(p.SystemPrompt)
	if instr := strings.TrimSpace(p.Instructions); instr != "" {
		prompt = prompt + "\n\n" + instr
	}
	return prompt
}

// ToolAllowed reports whether the persona may invoke the named tool.
func (p Persona) ToolAllowed(name string) bool {
	for _, t := range p.AllowedTools {
		if t == name {
			return true
		}
	}
	return false
}
