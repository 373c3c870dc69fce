package ingest

import "strings"

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace. Whitespace runs inside a sentence are collapsed.
func splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(normalized) && normalized[i+1] != ' ' {
			continue
		}
		sentence := strings.TrimSpace(normalized[start : i+1])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(normalized[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// chunkText groups sentences into chunks of at most chunkSize characters
// with roughly overlap characters of trailing context carried into the
// next chunk. A single sentence longer than chunkSize becomes its own
// chunk rather than being split mid-sentence.
func chunkText(text string, chunkSize, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		return []string{strings.Join(sentences, " ")}
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		j := i
		for j < len(sentences) {
			next := len(sentences[j])
			if size > 0 {
				next++ // joining space
			}
			if size+next > chunkSize && size > 0 {
				break
			}
			size += next
			j++
		}

		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Walk back whole sentences worth at most overlap characters.
		back := j
		carried := 0
		for back > i {
			candidate := len(sentences[back-1])
			if carried+candidate > overlap {
				break
			}
			carried += candidate + 1
			back--
		}
		if back <= i {
			// Overlap would swallow the whole chunk; advance to keep progress.
			i = j
		} else {
			i = back
		}
	}
	return chunks
}
