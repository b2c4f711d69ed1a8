package queryir

// SplitPlaceholders splits sql at its ? placeholders. The result always
// has one more piece than there are placeholders. Question marks inside
// single-quoted strings and double-quoted identifiers are text, and a
// doubled quote inside either stays text too.
func SplitPlaceholders(sql string) []string {
	var pieces []string
	start := 0
	var quote byte
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '?':
			pieces = append(pieces, sql[start:i])
			start = i + 1
		}
	}
	return append(pieces, sql[start:])
}

// Placeholders counts the ? placeholders in sql.
func Placeholders(sql string) int {
	return len(SplitPlaceholders(sql)) - 1
}
