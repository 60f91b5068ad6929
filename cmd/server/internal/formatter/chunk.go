package formatter

// MaxMessageLen is the per-message budget kept below the chat transport's 2000 character cap.
const MaxMessageLen = 1900

// Chunk splits text into pieces of at most limit runes, cutting after the last
// newline inside the budget when there is one.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLen
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		if nl := lastNewline(runes[:limit]); nl > 0 {
			cut = nl + 1
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastNewline(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == '\n' {
			return i
		}
	}
	return -1
}
