package docproc

import (
	"regexp"
	"strings"
)

const maxChunkChars = 800

var (
	resumeSectionRe = regexp.MustCompile(`\n\s*(?i:(skills|experience|education|projects))\b`)
	clauseStartRe   = regexp.MustCompile(`\n\s*\d+\.\s+`)
	clauseSplitRe   = regexp.MustCompile(`\n\s*`)
	paragraphRe     = regexp.MustCompile(`\n\s*\n`)
)

// Chunk splits extracted text into retrieval-sized pieces using content-aware
// heuristics: resumes split on section headings, contracts on numbered
// clauses, everything else on paragraphs packed to ~800 chars. CSV content
// packs lines instead.
func Chunk(content, docType string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if docType == TypeCSV {
		return packUnits(strings.Split(content, "\n"), maxChunkChars)
	}

	lowered := strings.ToLower(content)
	if containsAny(lowered, "skills", "experience", "education", "projects") {
		if chunks := splitResumeSections(content); len(chunks) > 0 {
			return chunks
		}
	}
	if clauseStartRe.MatchString(content) {
		if chunks := splitClauses(content); len(chunks) > 0 {
			return chunks
		}
	}
	return packUnits(paragraphRe.Split(content, -1), maxChunkChars)
}

// splitResumeSections cuts before each section heading so a section stays in
// one chunk.
func splitResumeSections(content string) []string {
	locs := resumeSectionRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	var chunks []string
	prev := 0
	for _, loc := range locs {
		if piece := strings.TrimSpace(content[prev:loc[0]]); piece != "" {
			chunks = append(chunks, piece)
		}
		prev = loc[0]
	}
	if piece := strings.TrimSpace(content[prev:]); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}

// splitClauses cuts before each numbered clause ("1. ", "2. ", ...).
func splitClauses(content string) []string {
	locs := clauseStartRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	var chunks []string
	prev := 0
	for _, loc := range locs {
		if piece := strings.TrimSpace(content[prev:loc[0]]); piece != "" {
			chunks = append(chunks, piece)
		}
		// Keep the clause number with its clause text.
		prev = loc[0] + len(clauseSplitRe.FindString(content[loc[0]:]))
	}
	if piece := strings.TrimSpace(content[prev:]); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}

// packUnits greedily packs units into chunks of at most maxChars each; a unit
// longer than maxChars becomes its own chunk.
func packUnits(units []string, maxChars int) []string {
	var chunks []string
	var buf strings.Builder
	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(u)+1 > maxChars {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(u)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}
	return chunks
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
