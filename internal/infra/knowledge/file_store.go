// File: internal/infra/knowledge/file_store.go
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.KnowledgeStore = (*FileStore)(nil)

// FileStore loads the persona configuration from a directory of flat files:
//
//	resume.txt           plain text
//	skills.json          []string
//	achievements.json    []string
//	certifications.json  []string
//	education.json       []string
//	personality.json     model.Personality
//	hard_boundaries.json model.HardBoundaries
//
// Missing files fall back to built-in defaults so a fresh checkout serves
// a sensible persona. Reload re-reads everything under the store lock.
type FileStore struct {
	dir string
	log *zerolog.Logger

	mu     sync.RWMutex
	facts  model.PersonaFacts
	pers   model.Personality
	bounds model.HardBoundaries
}

func NewFileStore(dir string, logger *zerolog.Logger) (*FileStore, error) {
	s := &FileStore{dir: dir, log: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Facts() model.PersonaFacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facts
}

func (s *FileStore) Personality() model.Personality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pers
}

func (s *FileStore) Boundaries() model.HardBoundaries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *FileStore) Reload() error {
	facts := model.PersonaFacts{}
	pers := defaultPersonality()
	bounds := defaultBoundaries()

	resume, err := os.ReadFile(filepath.Join(s.dir, "resume.txt"))
	switch {
	case err == nil:
		facts.ResumeText = string(resume)
	case errors.Is(err, fs.ErrNotExist):
		facts.ResumeText = defaultResume
	default:
		return fmt.Errorf("read resume: %w", err)
	}

	for _, f := range []struct {
		name string
		dst  *[]string
	}{
		{"skills.json", &facts.Skills},
		{"achievements.json", &facts.Achievements},
		{"certifications.json", &facts.Certifications},
		{"education.json", &facts.Education},
	} {
		if err := s.loadJSON(f.name, f.dst); err != nil {
			return err
		}
	}

	if err := s.loadJSON("personality.json", &pers); err != nil {
		return err
	}
	if err := s.loadJSON("hard_boundaries.json", &bounds); err != nil {
		return err
	}

	s.mu.Lock()
	s.facts = facts
	s.pers = pers
	s.bounds = bounds
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info().Str("dir", s.dir).
			Int("skills", len(facts.Skills)).
			Int("hard_no_locations", len(bounds.HardNoLocations)).
			Msg("knowledge base loaded")
	}
	return nil
}

// loadJSON leaves dst untouched when the file does not exist; defaults stay.
func (s *FileStore) loadJSON(name string, dst interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

const defaultResume = "Senior software engineer with over a decade of experience " +
	"building backend services, data pipelines and cloud infrastructure. " +
	"Remote-first since 2019."

func defaultPersonality() model.Personality {
	return model.Personality{
		Tone:      "professional and friendly",
		Formality: "conversational",
		Traits: []string{
			"Direct but warm",
			"Answers questions concretely",
			"Asks clarifying questions about the visitor's hiring needs",
		},
	}
}

func defaultBoundaries() model.HardBoundaries {
	return model.HardBoundaries{
		HardNoLocations: []string{"california", "bay area", "new york city", "nyc", "seattle"},
		HardNoResponseText: "I appreciate the interest, but I'm not open to relocating to that area. " +
			"I work fully remote. If the role can be remote, I'd love to keep talking.",
		CompensationFloor: 150000,
		CompensationFloorResponse: "That's below the range I'm considering for new roles. " +
			"If there's flexibility on compensation, I'm happy to continue the conversation.",
		VagueCompensationResponse: "I'm happy to discuss compensation once we've established the role is a fit. " +
			"Could you share the budgeted range for this position?",
		DisqualifyResponseText: "I don't think this is the right fit for me, but I appreciate you reaching out.",
		EscapeHatchText: "If you'd rather talk to the real me directly, leave your contact details " +
			"and I'll follow up, or use the contact link below.",
		EscapeHatchURL:     "/contact",
		RelocationKeywords: []string{"relocate", "relocation", "move to", "moving to", "on-site", "onsite", "on site", "in office", "in-office"},
	}
}
