package tokenizer

import (
	"encoding/json"
	"testing"
)

// glyphOrder lists every byte-encoder glyph in byte-table build order:
// the three printable ranges first, then the remapped code points from 256.
func glyphOrder() []string {
	var glyphs []string
	for b := 33; b <= 126; b++ {
		glyphs = append(glyphs, string(rune(b)))
	}
	for b := 161; b <= 172; b++ {
		glyphs = append(glyphs, string(rune(b)))
	}
	for b := 174; b <= 255; b++ {
		glyphs = append(glyphs, string(rune(b)))
	}
	for cp := rune(256); cp < 256+33+34+1; cp++ {
		glyphs = append(glyphs, string(cp))
	}
	return glyphs
}

// byteCompleteVocab builds vocabulary JSON containing every byte-encoder
// glyph plus the given extra entries with their ids preserved. Extra ids
// must be dense starting at 0; glyphs not already present follow after.
func byteCompleteVocab(t testing.TB, extra map[string]int32) []byte {
	t.Helper()

	vocab := make(map[string]int32, 256+len(extra))
	for token, id := range extra {
		vocab[token] = id
	}
	next := int32(len(extra))
	for _, glyph := range glyphOrder() {
		if _, ok := vocab[glyph]; !ok {
			vocab[glyph] = next
			next++
		}
	}

	data, err := json.Marshal(vocab)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newTestVocabulary(t testing.TB, extra map[string]int32, merges string) *Vocabulary {
	t.Helper()
	v, err := NewVocabulary(byteCompleteVocab(t, extra), []byte(merges), "<unk>", "")
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func newTestClip(t testing.TB, extra map[string]int32, merges string, cfg Config) *Clip {
	t.Helper()
	clip, err := New(byteCompleteVocab(t, extra), []byte(merges), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return clip
}

func mustID(t testing.TB, v *Vocabulary, token string) int32 {
	t.Helper()
	id, err := v.TokenToID(token)
	if err != nil {
		t.Fatal(err)
	}
	return id
}
