package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// TextChunker splits documents into overlapping retrieval units. Sizes are
// counted in runes.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

type piece struct {
	text string
	sep  string
}

// ChunkText implements TextChunker. Paragraphs are packed together, long
// paragraphs are split into sentences and long sentences are cut. Each new
// chunk starts with the last overlap runes of the previous one when they fit.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	chunks := []string{}
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		currentLen = 0
	}

	add := func(p piece) {
		pieceLen := utf8.RuneCountInString(p.text)
		sepLen := utf8.RuneCountInString(p.sep)

		if currentLen > 0 && currentLen+sepLen+pieceLen > maxChunkSize {
			prev := current.String()
			flush()
			if tail := strings.TrimSpace(getLastNChars(prev, overlap)); tail != "" {
				tailLen := utf8.RuneCountInString(tail)
				if tailLen+sepLen+pieceLen <= maxChunkSize {
					current.WriteString(tail)
					currentLen = tailLen
				}
			}
		}

		if currentLen > 0 {
			current.WriteString(p.sep)
			currentLen += sepLen
		}
		current.WriteString(p.text)
		currentLen += pieceLen
	}

	// Hard cuts leave room for the overlap prefix.
	hardSize := maxChunkSize - overlap - 1
	if hardSize < 1 {
		hardSize = maxChunkSize
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			add(piece{text: para, sep: "\n\n"})
			continue
		}

		sep := "\n\n"
		for _, sentence := range splitIntoSentences(para) {
			for _, part := range splitRunes(sentence, hardSize, maxChunkSize) {
				add(piece{text: part, sep: sep})
				sep = " "
			}
		}
	}

	flush()
	return chunks
}

// splitIntoSentences cuts after '.', '!' or '?' followed by whitespace,
// keeping the punctuation.
func splitIntoSentences(text string) []string {
	var result []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			result = append(result, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		result = append(result, s)
	}
	return result
}

// splitRunes returns s unchanged when it fits in limit, otherwise cuts it
// into pieces of size runes.
func splitRunes(s string, size, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func getLastNChars(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
