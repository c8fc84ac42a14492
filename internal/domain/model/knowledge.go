package model

// PersonaFacts holds the immutable facts the responder is allowed to speak
// from. Anything not listed here must not be asserted as fact.
type PersonaFacts struct {
	ResumeText     string   `json:"resumeText"`
	Skills         []string `json:"skills"`
	Achievements   []string `json:"achievements"`
	Certifications []string `json:"certifications"`
	Education      []string `json:"education"`
}

// Personality controls the register of generated replies.
type Personality struct {
	Tone      string   `json:"tone"`
	Formality string   `json:"formality"`
	Traits    []string `json:"traits"`
}

// HardBoundaries are the non-negotiables. Each refusal text is the exact
// wording the responder must use when the corresponding condition hits.
type HardBoundaries struct {
	HardNoLocations           []string `json:"hardNoLocations"`
	HardNoResponseText        string   `json:"hardNoResponseText"`
	CompensationFloor         int      `json:"compensationFloor"`
	CompensationFloorResponse string   `json:"compensationFloorResponseText"`
	VagueCompensationResponse string   `json:"vagueCompensationResponseText"`
	DisqualifyResponseText    string   `json:"disqualifyResponseText"`
	EscapeHatchText           string   `json:"escapeHatchText"`
	EscapeHatchURL            string   `json:"escapeHatchUrl"`
	RelocationKeywords        []string `json:"relocationKeywords"`
}
