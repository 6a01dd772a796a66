package dialect

import "fmt"

// Translators returns a fresh Translator for each dialect in All, keyed by
// Name, for callers that need to look one up dynamically (e.g. the mapping
// registry when rendering a conversation for a negotiated backend).
func Translators() map[Name]Translator {
	return map[Name]Translator{
		Claude:  NewClaudeTranslator(),
		OpenAI:  NewOpenAITranslator(),
		Gemini:  NewGeminiTranslator(),
		Codex:   NewCodexTranslator(),
		Kimi:    NewKimiTranslator(),
		Copilot: NewCopilotTranslator(),
	}
}

// Lookup returns the Translator for name, or an error if name is not one of
// the closed set in All.
func Lookup(name Name) (Translator, error) {
	t, ok := Translators()[name]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
	return t, nil
}
