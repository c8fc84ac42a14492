// File: internal/usecase/extract.go
package usecase

import (
	"regexp"
	"strings"

	"ai-doppelganger/internal/domain/model"
)

// ExtractedInfo is the result of best-effort entity extraction from free
// text. False negatives (and the occasional false positive) are an accepted
// tradeoff; this path only enriches the record, it is never correctness-
// critical.
type ExtractedInfo struct {
	FirstName string
	LastName  string
	Company   string
	Email     string
}

func (e ExtractedInfo) Empty() bool {
	return e.FirstName == "" && e.LastName == "" && e.Company == "" && e.Email == ""
}

func (e ExtractedInfo) VisitorInfo() model.VisitorInfo {
	v := model.VisitorInfo{
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Company:   e.Company,
		Email:     e.Email,
	}
	if e.FirstName != "" && e.LastName != "" {
		v.Name = e.FirstName + " " + e.LastName
	}
	return v
}

var (
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	nameRe   = regexp.MustCompile(`(?i)\bmy name is ([a-z]+)(?: ([a-z]+))?`)
	introRe  = regexp.MustCompile(`(?i)\bi'?m ([a-z]+)(?: ([a-z]+))? from ([a-z][a-z0-9&.\- ]*)`)
	workRe   = regexp.MustCompile(`(?i)\bi work (?:at|for) ([a-z][a-z0-9&.\- ]*)`)
	stopTail = regexp.MustCompile(`(?i)\s+(?:and|but|so|looking|seeking|hiring|we)\b.*$`)
)

// ExtractVisitorInfo pulls identity hints out of one message. Pure function:
// no I/O, deterministic for a given input.
func ExtractVisitorInfo(text string) ExtractedInfo {
	var out ExtractedInfo

	if m := emailRe.FindString(text); m != "" {
		out.Email = strings.ToLower(m)
	}

	if m := nameRe.FindStringSubmatch(text); m != nil {
		out.FirstName = title(m[1])
		out.LastName = title(m[2])
	} else if m := introRe.FindStringSubmatch(text); m != nil {
		// "I'm a recruiter from Acme" carries a company but no name.
		if !nameStopword(m[1]) {
			out.FirstName = title(m[1])
			out.LastName = title(m[2])
		}
		out.Company = cleanCompany(m[3])
	}

	if out.Company == "" {
		if m := workRe.FindStringSubmatch(text); m != nil {
			out.Company = cleanCompany(m[1])
		}
	}

	return out
}

// cleanCompany trims conjunction tails ("Acme and we need...") and trailing
// punctuation from a greedy company capture.
func cleanCompany(s string) string {
	s = stopTail.ReplaceAllString(s, "")
	s = strings.Trim(s, " .,;:!?-")
	return title(s)
}

// nameStopword filters intro phrases that describe a role rather than state
// a name ("I'm a recruiter from ...").
func nameStopword(w string) bool {
	switch strings.ToLower(w) {
	case "a", "an", "the", "just", "here", "not", "so", "very", "really", "currently", "also":
		return true
	}
	return false
}

func title(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
