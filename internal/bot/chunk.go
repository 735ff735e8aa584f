package bot

// messageLimit is Telegram's maximum message length.
const messageLimit = 4096

// splitMessage cuts text into ordered chunks of at most limit characters.
// Concatenating the chunks reproduces the input exactly.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = messageLimit
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
