package tokenizer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
)

// endOfWord marks a word boundary inside the vocabulary: the final byte of
// every scanned sub-word is looked up with this suffix attached.
const endOfWord = "</w>"

// Piece is one not-yet-fully-merged element of a sub-word during BPE:
// a current vocabulary id and the character length it stands for.
type Piece struct {
	ID     int32
	Length int
}

type mergePair struct {
	left, right int32
}

type bpeNode struct {
	id     int32
	rank   int32
	length int
}

// Vocabulary owns the string↔id bijection, the 256-entry byte encoder, the
// merge-rule table and the ordered special-token set. It is built once by
// NewVocabulary and read-only afterwards, so concurrent Tokenize calls can
// share it without locking.
type Vocabulary struct {
	values      map[string]int32
	tokens      []string
	byteEncoder [256]int32
	byteDecoder map[rune]byte
	merges      map[mergePair]bpeNode
	unkID       int32
	special     *specialTokens
}

// NewVocabulary parses the vocabulary JSON object and the merge rules,
// resolves or inserts the unknown token, builds the byte encoder and
// registers the whitespace-separated special tokens. Every one of the 256
// byte values must resolve to a vocabulary entry or loading fails.
func NewVocabulary(vocabJSON, mergesText []byte, unknownToken, specialTokens string) (*Vocabulary, error) {
	if len(bytes.TrimSpace(vocabJSON)) == 0 {
		return nil, fmt.Errorf("%w: vocabulary shouldn't be empty", ErrInvalidArgument)
	}
	if len(bytes.TrimSpace(mergesText)) == 0 {
		return nil, fmt.Errorf("%w: merges shouldn't be empty", ErrInvalidArgument)
	}

	v := &Vocabulary{
		byteDecoder: make(map[rune]byte, 256),
		merges:      make(map[mergePair]bpeNode),
		special:     newSpecialTokens(),
	}

	if err := json.Unmarshal(vocabJSON, &v.values); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}
	for token, id := range v.values {
		if id < 0 {
			return nil, fmt.Errorf("%w: negative id %d for token %q", ErrInvalidArgument, id, token)
		}
	}

	v.unkID = v.resolve(unknownToken)

	if err := v.buildByteEncoder(); err != nil {
		return nil, err
	}
	if err := v.parseMerges(mergesText); err != nil {
		return nil, err
	}
	for _, token := range strings.Fields(specialTokens) {
		if err := v.special.add(token, v.resolve(token)); err != nil {
			return nil, err
		}
	}

	maxID := int32(-1)
	for _, id := range v.values {
		maxID = max(maxID, id)
	}
	v.tokens = make([]string, maxID+1)
	for token, id := range v.values {
		v.tokens[id] = token
	}

	return v, nil
}

// resolve returns the id for s, appending it to the vocabulary if absent.
func (v *Vocabulary) resolve(s string) int32 {
	if id, ok := v.values[s]; ok {
		return id
	}
	id := int32(len(v.values))
	v.values[s] = id
	return id
}

func (v *Vocabulary) lookup(glyph string) (int32, error) {
	if id, ok := v.values[glyph]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: cannot find word in vocabulary: %q", ErrNotFound, glyph)
}

// buildByteEncoder fills the byte→id table. Printable bytes map to their own
// code point; the rest are remapped onto code points appended after the
// visible set, starting at 256, in the fixed order below. This is the GPT-2
// reversible byte-to-unicode table: every input byte has a vocabulary glyph.
func (v *Vocabulary) buildByteEncoder() error {
	assign := func(b int, cp rune) error {
		id, err := v.lookup(string(cp))
		if err != nil {
			return err
		}
		v.byteEncoder[b] = id
		v.byteDecoder[cp] = byte(b)
		return nil
	}

	for b := 33; b <= 126; b++ {
		if err := assign(b, rune(b)); err != nil {
			return err
		}
	}
	for b := 161; b <= 172; b++ {
		if err := assign(b, rune(b)); err != nil {
			return err
		}
	}
	for b := 174; b <= 255; b++ {
		if err := assign(b, rune(b)); err != nil {
			return err
		}
	}

	cp := rune(256)
	for b := 0; b < 33; b++ {
		if err := assign(b, cp); err != nil {
			return err
		}
		cp++
	}
	for b := 127; b < 161; b++ {
		if err := assign(b, cp); err != nil {
			return err
		}
		cp++
	}
	return assign(173, cp)
}

// parseMerges reads one rule per line: "<left> <right>", split on the first
// space. Rank is the 0-based rule index; the recorded length is the merged
// sub-word's character length, with the word-boundary marker not counted.
func (v *Vocabulary) parseMerges(mergesText []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(mergesText))
	var rank int32
	for sc.Scan() {
		line := strings.ReplaceAll(sc.Text(), "\r", "")
		if line == "" {
			continue
		}
		if line[0] == '#' && rank == 0 {
			continue
		}

		left, right, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("%w: cannot parse merges line: %q", ErrInvalidArgument, line)
		}

		length := len(left) + len(right)
		if strings.Contains(left, endOfWord) || strings.Contains(right, endOfWord) {
			length -= len(endOfWord)
		}

		pair := mergePair{left: v.resolve(left), right: v.resolve(right)}
		v.merges[pair] = bpeNode{id: v.resolve(left + right), rank: rank, length: length}
		rank++
	}
	return sc.Err()
}

// Size returns the vocabulary cardinality.
func (v *Vocabulary) Size() int {
	return len(v.values)
}

// Encode is total: unknown strings resolve to the unknown-token id.
func (v *Vocabulary) Encode(s string) int32 {
	if id, ok := v.values[s]; ok {
		return id
	}
	return v.unkID
}

// TokenToID is the strict form of Encode.
func (v *Vocabulary) TokenToID(s string) (int32, error) {
	if id, ok := v.values[s]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: token not found: %q", ErrInvalidArgument, s)
}

func (v *Vocabulary) IDToToken(id int32) (string, error) {
	if id < 0 || int(id) >= len(v.tokens) || v.tokens[id] == "" {
		return "", fmt.Errorf("%w: invalid id: %d", ErrInvalidArgument, id)
	}
	return v.tokens[id], nil
}

// ByteID returns the vocabulary id the byte encoder assigns to b.
func (v *Vocabulary) ByteID(b byte) int32 {
	return v.byteEncoder[b]
}

// SplitBySpecialTokens carves s into alternating plain and special spans.
func (v *Vocabulary) SplitBySpecialTokens(s string) []fragment {
	return v.special.split(s)
}

// byteEncode builds the BPE working sequence for one space-stripped
// sub-word: every byte but the last maps through the byte encoder, the last
// byte is looked up with the word-boundary marker attached. Lengths start at
// one character each.
func (v *Vocabulary) byteEncode(word string) []Piece {
	pieces := make([]Piece, 0, len(word))
	for i := 0; i < len(word); i++ {
		if i == len(word)-1 {
			pieces = append(pieces, Piece{ID: v.Encode(word[i:] + endOfWord), Length: 1})
		} else {
			pieces = append(pieces, Piece{ID: v.byteEncoder[word[i]], Length: 1})
		}
	}
	return pieces
}

// Merge greedily applies merge rules to pieces until none is left to apply.
// Each round picks the rule with the numerically lowest rank across all
// adjacent pairs; ties go to the leftmost occurrence because only a strictly
// lower rank displaces the current best. After merging the winning pair, the
// remainder of the sequence is swept for further adjacent occurrences of the
// same original pair, which are merged before the next global scan. The
// sweep order is load-bearing: it decides which merges fire first when a
// sub-word contains the same bigram more than once.
func (v *Vocabulary) Merge(pieces []Piece) []Piece {
	for len(pieces) >= 2 {
		best := -1
		bestRank := int32(math.MaxInt32)
		var merged, origLeft, origRight int32
		for i := 0; i+1 < len(pieces); i++ {
			node, ok := v.merges[mergePair{left: pieces[i].ID, right: pieces[i+1].ID}]
			if !ok {
				continue
			}
			if bestRank > node.rank {
				origLeft, origRight = pieces[i].ID, pieces[i+1].ID
				bestRank = node.rank
				merged = node.id
				best = i
			}
		}
		if best < 0 {
			break
		}

		pieces = spliceMerge(pieces, best, merged)
		for i := best + 1; i+1 < len(pieces); i++ {
			if pieces[i].ID != origLeft || pieces[i+1].ID != origRight {
				continue
			}
			pieces = spliceMerge(pieces, i, merged)
		}
	}
	return pieces
}

// spliceMerge replaces pieces[i] and pieces[i+1] with one merged piece
// carrying their summed length; the merged piece ends up at index i.
func spliceMerge(pieces []Piece, i int, merged int32) []Piece {
	pieces[i+1] = Piece{ID: merged, Length: pieces[i].Length + pieces[i+1].Length}
	return append(pieces[:i], pieces[i+1:]...)
}
