package keyspace

// globMatch reports whether s matches the glob pattern pat (§4.3): `*` runs
// of zero or more bytes, `?` exactly one byte, `[...]`/`[^...]` character
// classes with `-` ranges, and `\x` escaping the next pattern byte literally.
//
// Implemented as an iterative two-pointer matcher with star-backup (the
// classic fnmatch algorithm) rather than recursion, so a pattern with many
// stars cannot blow the stack or degrade pathologically.
func globMatch(pat, s string) bool {
	var (
		si, pi           int
		starPi, starSi   = -1, -1
	)

	for si < len(s) {
		if pi < len(pat) {
			switch pat[pi] {
			case '*':
				starPi, starSi = pi, si
				pi++
				continue
			case '?':
				pi++
				si++
				continue
			case '\\':
				if pi+1 < len(pat) {
					if pat[pi+1] == s[si] {
						pi += 2
						si++
						continue
					}
				}
			case '[':
				if end, ok := classEnd(pat, pi); ok {
					if classMatch(pat[pi+1:end], s[si]) {
						pi = end + 1
						si++
						continue
					}
				} else if pat[pi] == s[si] {
					pi++
					si++
					continue
				}
			default:
				if pat[pi] == s[si] {
					pi++
					si++
					continue
				}
			}
		}

		// Mismatch (or pattern exhausted): backtrack to the most recent `*`.
		if starPi >= 0 {
			starSi++
			si = starSi
			pi = starPi + 1
			continue
		}
		return false
	}

	for pi < len(pat) && pat[pi] == '*' {
		pi++
	}
	return pi == len(pat)
}

// classEnd finds the index of the closing ']' for a class opened at pat[open]
// ('['), honoring a leading '^' negation and a leading ']' or '^]' as a
// literal member (so "[]]" matches "]").
func classEnd(pat string, open int) (int, bool) {
	i := open + 1
	if i < len(pat) && pat[i] == '^' {
		i++
	}
	if i < len(pat) && pat[i] == ']' {
		i++
	}
	for i < len(pat) {
		if pat[i] == ']' {
			return i, true
		}
		i++
	}
	return 0, false
}

// classMatch tests b against the class body (pattern bytes strictly between
// the brackets); a leading '^' in the body negates the class.
func classMatch(body string, b byte) bool {
	negate := false
	if len(body) > 0 && body[0] == '^' {
		negate = true
		body = body[1:]
	}

	matched := false
	for i := 0; i < len(body); i++ {
		if body[i] == '-' && i > 0 && i+1 < len(body) {
			lo, hi := body[i-1], body[i+1]
			if lo <= b && b <= hi {
				matched = true
			}
			i++
			continue
		}
		if body[i] == b {
			matched = true
		}
	}
	return matched != negate
}
