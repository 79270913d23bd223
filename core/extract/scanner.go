package extract

// closingPositions scans text, which must start with `{` or `[`, and returns
// every end offset at which the opening bracket's pair returns to depth zero.
// Offsets are in scan order, so the last entry is the longest candidate.
//
// Only the opening bracket's own pair is counted: a `[` inside an object
// never moves the depth of a `{` scan. Quotes toggle string state and a
// backslash inside a string hides the next byte, so brackets and quotes
// inside string values are never mistaken for structure. The scan is
// byte-wise, which is safe for UTF-8 input because the structural characters
// are ASCII and never occur inside multibyte sequences.
func closingPositions(text string) []int {
	if len(text) == 0 {
		return nil
	}

	opener := text[0]
	var closer byte
	switch opener {
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return nil
	}

	var (
		positions  []int
		depth      int
		inString   bool
		escapeNext bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		if inString {
			switch c {
			case '\\':
				escapeNext = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				positions = append(positions, i+1)
			}
		}
	}

	return positions
}
