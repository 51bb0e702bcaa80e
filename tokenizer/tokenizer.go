// Package tokenizer implements a CLIP-style byte-level byte-pair-encoding
// tokenizer: vocabulary and merge-rule loading, special-token-aware
// segmentation, a unicode-category-driven pre-tokenizing scanner and an
// in-place greedy merge engine, assembled into a batch pipeline that also
// produces attention masks and character-offset mappings.
package tokenizer

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/substratelabs/cliptok/logutil"
)

const (
	DefaultUnknownToken  = "<|endoftext|>"
	DefaultBOSToken      = "<|startoftext|>"
	DefaultEOSToken      = "<|endoftext|>"
	DefaultSpecialTokens = "<|startoftext|>\n<|endoftext|>"
)

// Offset is a half-open [Start, End) character span into the cleaned
// per-row input. BOS, EOS and special tokens carry the degenerate (0, 0).
type Offset struct {
	Start, End int
}

// TextProcessor is the capability shared by tokenizer variants built on the
// scanning/merge core.
type TextProcessor interface {
	Tokenize(s string, maxLength int, wantOffsets bool) ([]int32, []Offset)
	Decode(ids []int32) string
	Vocabulary() *Vocabulary
}

// Config carries the construction-time options for New. Zero values fall
// back to the CLIP defaults; PaddingLength 0 means dynamic padding (-1).
type Config struct {
	UnknownToken  string
	BOSToken      string
	EOSToken      string
	SpecialTokens string

	// PaddingLength is the fixed batch padding width. -1 (or 0, the zero
	// value) pads each batch to its own longest row; any other value must be
	// positive.
	PaddingLength int
}

// Clip is the CLIP byte-level BPE tokenizer. It is immutable after New and
// safe for concurrent use.
type Clip struct {
	vocab   *Vocabulary
	bos     int32
	eos     int32
	padding int
}

var _ TextProcessor = (*Clip)(nil)

func New(vocabJSON, mergesText []byte, cfg Config) (*Clip, error) {
	if cfg.UnknownToken == "" {
		cfg.UnknownToken = DefaultUnknownToken
	}
	if cfg.BOSToken == "" {
		cfg.BOSToken = DefaultBOSToken
	}
	if cfg.EOSToken == "" {
		cfg.EOSToken = DefaultEOSToken
	}
	if cfg.SpecialTokens == "" {
		cfg.SpecialTokens = DefaultSpecialTokens
	}
	if cfg.PaddingLength == 0 {
		cfg.PaddingLength = -1
	}
	if cfg.PaddingLength != -1 && cfg.PaddingLength < 1 {
		return nil, fmt.Errorf("%w: padding length should be more than 0 or equal -1, got %d", ErrInvalidArgument, cfg.PaddingLength)
	}

	vocab, err := NewVocabulary(vocabJSON, mergesText, cfg.UnknownToken, cfg.SpecialTokens)
	if err != nil {
		return nil, err
	}

	return &Clip{
		vocab:   vocab,
		bos:     vocab.Encode(cfg.BOSToken),
		eos:     vocab.Encode(cfg.EOSToken),
		padding: cfg.PaddingLength,
	}, nil
}

func (c *Clip) Vocabulary() *Vocabulary {
	return c.vocab
}

// whitespaceClean replaces newlines with plain spaces, then collapses
// adjacent identical whitespace code points into one. Runs of differing
// whitespace characters are left alone.
func whitespaceClean(s string) string {
	var out []rune
	for _, r := range strings.ReplaceAll(s, "\n", " ") {
		if len(out) > 0 && r == out[len(out)-1] && IsUnicodeSpace(r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// isEmptyText reports whether s tokenizes to nothing: empty or all
// whitespace, with the single-character string " " as the one exception.
func isEmptyText(s string) bool {
	if s == " " {
		return false
	}
	for _, r := range s {
		if !IsUnicodeSpace(r) {
			return false
		}
	}
	return true
}

// Tokenize converts one input string into token ids and, when wantOffsets is
// set, a parallel slice of character spans. maxLength caps the output id
// count; a value <= 0 means unlimited. EOS is appended after the cap is
// applied, so a truncated output is maxLength+1 ids long. Empty and
// whitespace-only inputs (other than " ") produce no output at all.
func (c *Clip) Tokenize(input string, maxLength int, wantOffsets bool) ([]int32, []Offset) {
	if maxLength <= 0 {
		maxLength = math.MaxInt
	}

	cleaned := whitespaceClean(input)
	if isEmptyText(cleaned) {
		return nil, nil
	}

	ids := []int32{c.bos}
	var offsets []Offset
	if wantOffsets {
		offsets = append(offsets, Offset{})
	}

	lowered := strings.Map(unicode.ToLower, cleaned)

	var offset int
	for _, frag := range c.vocab.SplitBySpecialTokens(lowered) {
		if len(ids) >= maxLength {
			break
		}

		if frag.id >= 0 {
			ids = append(ids, frag.id)
			if wantOffsets {
				offsets = append(offsets, Offset{})
				offset += utf8.RuneCountInString(frag.value)
			}
			continue
		}

		sc := &scanner{text: []rune(frag.value)}
		for len(ids) < maxLength {
			tok, ok := sc.next()
			if !ok {
				break
			}

			if wantOffsets && tok[0] == ' ' {
				offset++
			}

			word := strings.ReplaceAll(string(tok), " ", "")
			pieces := c.vocab.Merge(c.vocab.byteEncode(word))

			for _, p := range pieces {
				if len(ids) >= maxLength {
					break
				}
				ids = append(ids, p.ID)
				if wantOffsets {
					offsets = append(offsets, Offset{Start: offset, End: offset + p.Length})
					offset += p.Length
				}
			}
		}
	}

	// EOS is appended even when truncation already hit maxLength; the output
	// may be one id longer than the cap.
	ids = append(ids, c.eos)
	if wantOffsets {
		offsets = append(offsets, Offset{})
	}

	logutil.Trace("tokenized", "input", input, "ids", ids)
	return ids, offsets
}

// Decode maps ids back to text: byte-encoder glyphs become their original
// bytes, the word-boundary marker becomes a trailing space, and ids outside
// the vocabulary are skipped.
func (c *Clip) Decode(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		token, err := c.vocab.IDToToken(id)
		if err != nil {
			continue
		}

		token, boundary := strings.CutSuffix(token, endOfWord)
		for _, r := range token {
			if b, ok := c.vocab.byteDecoder[r]; ok {
				sb.WriteByte(b)
			} else {
				sb.WriteRune(r)
			}
		}
		if boundary {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
