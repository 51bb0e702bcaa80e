package tokenizer

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
)

// fragment is a span of input text and the special-token id covering it;
// id is -1 for plain text still subject to scanning and BPE.
type fragment struct {
	value string
	id    int32
}

// specialTokens is the ordered set of reserved strings. Insertion order is
// the split priority, so the backing map must preserve it.
type specialTokens struct {
	m *linkedhashmap.Map[string, int32]
}

func newSpecialTokens() *specialTokens {
	return &specialTokens{m: linkedhashmap.New[string, int32]()}
}

func (st *specialTokens) add(token string, id int32) error {
	if token == "" {
		return fmt.Errorf("%w: empty special token", ErrInvalidArgument)
	}
	if existing, ok := st.m.Get(token); ok {
		if existing != id {
			return fmt.Errorf("%w: special token %q already registered with id %d", ErrInvalidArgument, token, existing)
		}
		return nil
	}
	st.m.Put(token, id)
	return nil
}

// split carves s into alternating plain and special fragments covering s
// exactly once. Each token is matched leftmost and non-overlapping against
// the spans still plain after earlier tokens; spans claimed by an earlier
// token are never re-split.
func (st *specialTokens) split(s string) []fragment {
	fragments := []fragment{{value: s, id: -1}}
	for _, token := range st.m.Keys() {
		id, _ := st.m.Get(token)
		for i := 0; i < len(fragments); i++ {
			frag := fragments[i]
			if frag.id >= 0 {
				continue
			}

			var middle []fragment
			switch j := strings.Index(frag.value, token); {
			case j < 0:
				middle = append(middle, frag)
			case j > 0:
				middle = append(middle, fragment{value: frag.value[:j], id: -1})
				fallthrough
			default:
				middle = append(middle, fragment{value: token, id: id})
				if rest := frag.value[j+len(token):]; rest != "" {
					middle = append(middle, fragment{value: rest, id: -1})
				}
			}

			fragments = append(fragments[:i], append(middle, fragments[i+1:]...)...)
		}
	}
	return fragments
}
