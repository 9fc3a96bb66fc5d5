package uninstall

import "strings"

// Entry is one uninstall registration read from the system registry
type Entry struct {
	// Source locates the entry, e.g. `HKLM\SOFTWARE\...\Uninstall\{GUID}`
	Source               string
	DisplayName          string
	UninstallString      string
	QuietUninstallString string
}

// Command returns the pre-silenced command when the entry has one
func (e Entry) Command() string {
	if e.QuietUninstallString != "" {
		return e.QuietUninstallString
	}
	return e.UninstallString
}

// Candidate is the entry selected for a software name
type Candidate struct {
	DisplayName string
	RawCommand  string
	Score       int
	Source      string
}

// Score counts the keywords contained in the lowercased display name
func Score(keywords []string, displayName string) int {
	name := strings.ToLower(displayName)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			score++
		}
	}
	return score
}

// minScore is 2, relaxed to 1 when only one keyword could ever match
func minScore(keywords []string) int {
	if len(keywords) == 1 {
		return 1
	}
	return 2
}

// Match picks the highest scoring qualifying entry in scan order; ties keep
// the earlier entry. Entries without any uninstall command are skipped.
// It returns nil when nothing qualifies.
func Match(keywords []string, entries []Entry) *Candidate {
	threshold := minScore(keywords)

	var best *Candidate
	for _, e := range entries {
		score := Score(keywords, e.DisplayName)
		if score < threshold {
			continue
		}
		if best != nil && score <= best.Score {
			continue
		}
		cmd := e.Command()
		if cmd == "" {
			continue
		}
		best = &Candidate{
			DisplayName: e.DisplayName,
			RawCommand:  cmd,
			Score:       score,
			Source:      e.Source,
		}
	}

	return best
}
