package usecase

import (
	"strings"

	"ai-doppelganger/internal/domain/model"
)

// DetectDealbreakers scans free text for hard-no locations co-occurring with
// relocation/on-site language. Returned labels are stable ("Location: <name>",
// location lowercased) so the ledger's set semantics deduplicate repeats.
func DetectDealbreakers(content string, b model.HardBoundaries) []string {
	lc := strings.ToLower(content)
	if !containsAny(lc, b.RelocationKeywords) {
		return nil
	}
	var labels []string
	for _, loc := range b.HardNoLocations {
		l := strings.ToLower(loc)
		if l != "" && strings.Contains(lc, l) {
			labels = append(labels, "Location: "+l)
		}
	}
	return labels
}
