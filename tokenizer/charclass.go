package tokenizer

import "unicode"

// Category is the coarse character class the pre-tokenizer scanner works
// with. Letter, Number and Separator map onto the Unicode major categories
// L, N and Z; everything else is Other.
type Category int

const (
	CategoryOther Category = iota
	CategoryLetter
	CategoryNumber
	CategorySeparator
)

func CategoryOf(r rune) Category {
	switch {
	case unicode.Is(unicode.L, r):
		return CategoryLetter
	case unicode.Is(unicode.N, r):
		return CategoryNumber
	case unicode.Is(unicode.Z, r):
		return CategorySeparator
	default:
		return CategoryOther
	}
}

// IsUnicodeSpace reports whether r is whitespace for the purposes of input
// cleanup. This is the fixed set from CPython's _PyUnicode_IsWhitespace, not
// unicode.IsSpace: the two disagree on a handful of code points and cleanup
// must match the reference tokenizer exactly.
func IsUnicodeSpace(r rune) bool {
	switch r {
	case 0x0009, 0x000a, 0x000b, 0x000c, 0x000d,
		0x001c, 0x001d, 0x001e, 0x001f, 0x0020,
		0x0085, 0x00a0, 0x1680,
		0x2000, 0x2001, 0x2002, 0x2003, 0x2004, 0x2005,
		0x2006, 0x2007, 0x2008, 0x2009, 0x200a,
		0x2028, 0x2029, 0x202f, 0x205f, 0x3000:
		return true
	}
	return false
}
