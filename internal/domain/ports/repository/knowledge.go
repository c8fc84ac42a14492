package repository

import "ai-doppelganger/internal/domain/model"

// KnowledgeStore exposes the persona configuration. It is read-only from
// the core's perspective; Reload lets operators pick up edited files
// without a restart.
type KnowledgeStore interface {
	Facts() model.PersonaFacts
	Personality() model.Personality
	Boundaries() model.HardBoundaries
	Reload() error
}
