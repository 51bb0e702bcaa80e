package tokenizer

// scanner walks a code-point sequence and yields one raw sub-word token per
// next call, following the reference pre-tokenizer pattern
//
//	's|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+
//
// with character classes decided by CategoryOf. The alternatives are tried
// in that fixed order. The cursor only ever advances; code points matching
// no pattern are dropped without producing a token.
type scanner struct {
	text []rune
}

func (s *scanner) next() ([]rune, bool) {
	for len(s.text) > 0 {
		if tok := s.tryMatch(); len(tok) > 0 {
			return tok, true
		}
		s.text = s.text[1:]
	}
	return nil, false
}

func (s *scanner) take(n int) []rune {
	tok := s.text[:n]
	s.text = s.text[n:]
	return tok
}

// runOf extends a match from start for as long as class holds, then consumes
// the whole span including any prefix before start.
func (s *scanner) runOf(start int, class func(rune) bool) []rune {
	i := start
	for i < len(s.text) && class(s.text[i]) {
		i++
	}
	return s.take(i)
}

func (s *scanner) tryMatch() []rune {
	text := s.text

	// contraction suffixes; the two-character forms are tried first
	if text[0] == '\'' && len(text) > 1 {
		switch text[1] {
		case 's', 't', 'm', 'd':
			return s.take(2)
		}
		if len(text) > 2 {
			switch string(text[1:3]) {
			case "re", "ve", "ll":
				return s.take(3)
			}
		}
	}

	// optional single leading space, then a letter run
	if text[0] == ' ' && len(text) > 1 && isLetter(text[1]) {
		return s.runOf(2, isLetter)
	}
	if isLetter(text[0]) {
		return s.runOf(1, isLetter)
	}

	// same shape for numbers
	if text[0] == ' ' && len(text) > 1 && isNumber(text[1]) {
		return s.runOf(2, isNumber)
	}
	if isNumber(text[0]) {
		return s.runOf(1, isNumber)
	}

	// and for everything that is neither letter, number nor separator
	if text[0] == ' ' && len(text) > 1 && isOther(text[1]) {
		return s.runOf(2, isOther)
	}
	if isOther(text[0]) {
		return s.runOf(1, isOther)
	}

	// a separator run holds back its final separator when more text follows,
	// mirroring \s+(?!\S)
	if isSeparator(text[0]) {
		i := 1
		for i < len(text) && isSeparator(text[i]) {
			i++
		}
		if i > 1 && i != len(text) {
			i--
		}
		return s.take(i)
	}

	return nil
}

func isLetter(r rune) bool    { return CategoryOf(r) == CategoryLetter }
func isNumber(r rune) bool    { return CategoryOf(r) == CategoryNumber }
func isSeparator(r rune) bool { return CategoryOf(r) == CategorySeparator }
func isOther(r rune) bool     { return CategoryOf(r) == CategoryOther }
