// Package dialect translates between the cross-dialect ir.Conversation and
// the wire shapes of individual vendor chat APIs. Each dialect file owns one
// vendor's request/response shapes and a pair of To/From functions; nothing
// outside this package should need to know those shapes.
package dialect

import "github.com/agentbackplane/abp/ir"

// Name identifies a supported vendor dialect.
type Name string

const (
	Claude  Name = "claude"
	OpenAI  Name = "openai"
	Gemini  Name = "gemini"
	Codex   Name = "codex"
	Kimi    Name = "kimi"
	Copilot Name = "copilot"
)

// All lists every dialect this package knows how to translate, in a stable
// order used for mapping-matrix iteration.
var All = []Name{Claude, OpenAI, Gemini, Codex, Kimi, Copilot}

// Translator converts between ir.Conversation and one dialect's wire form.
// Translators are intentionally lossy in both directions: a round trip is
// not guaranteed to reproduce byte-identical input, only semantically
// equivalent IR, since the mapping registry (not this package) is the
// authority on what each dialect can express.
type Translator interface {
	Name() Name
	ToDialect(conv ir.Conversation) (any, error)
	FromDialect(payload any) (ir.Conversation, error)
}
