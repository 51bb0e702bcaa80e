package tokenizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestComputeFixedPadding(t *testing.T) {
	clip := newTestClip(t, map[string]int32{
		"a":     0,
		"a</w>": 1,
		"<bos>": 2,
		"<eos>": 3,
	}, "t h", Config{
		UnknownToken:  "<eos>",
		BOSToken:      "<bos>",
		EOSToken:      "<eos>",
		SpecialTokens: "<bos> <eos>",
		PaddingLength: 5,
	})

	batch, err := clip.Compute([]string{"a"}, ComputeOptions{AttentionMask: true})
	require.NoError(t, err)

	require.Equal(t, 5, batch.MaxLength)
	require.Equal(t, []int{1, 5}, []int(batch.TokenIDs.Shape()))

	// [bos, a</w>, eos] padded with EOS to the fixed width
	if diff := cmp.Diff([]int64{2, 1, 3, 3, 3}, batch.TokenIDs.Data()); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 1, 1, 0, 0}, batch.AttentionMask.Data()); diff != "" {
		t.Errorf("unexpected mask (-want +got):\n%s", diff)
	}
	require.Nil(t, batch.OffsetMapping)
}

func TestComputeFixedPaddingClipsOverflow(t *testing.T) {
	clip := newTestClip(t, map[string]int32{
		"a":     0,
		"a</w>": 1,
		"<bos>": 2,
		"<eos>": 3,
	}, "t h", Config{
		UnknownToken:  "<eos>",
		BOSToken:      "<bos>",
		EOSToken:      "<eos>",
		SpecialTokens: "<bos> <eos>",
		PaddingLength: 2,
	})

	// the row tokenizes to [bos, a</w>, eos]: the trailing EOS overflows the
	// fixed width and is clipped at the tensor boundary
	batch, err := clip.Compute([]string{"a"}, ComputeOptions{AttentionMask: true})
	require.NoError(t, err)

	require.Equal(t, []int{1, 2}, []int(batch.TokenIDs.Shape()))
	if diff := cmp.Diff([]int64{2, 1}, batch.TokenIDs.Data()); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 1}, batch.AttentionMask.Data()); diff != "" {
		t.Errorf("unexpected mask (-want +got):\n%s", diff)
	}
}

func TestComputeDynamicPadding(t *testing.T) {
	clip := hiClip(t, Config{})

	batch, err := clip.Compute([]string{"hi", "hi hi"}, ComputeOptions{AttentionMask: true})
	require.NoError(t, err)

	// the longest row sets the width
	require.Equal(t, 4, batch.MaxLength)
	require.Equal(t, []int{2, 4}, []int(batch.TokenIDs.Shape()))

	if diff := cmp.Diff([]int64{
		0, 2, 1, 1,
		0, 2, 2, 1,
	}, batch.TokenIDs.Data()); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{
		1, 1, 1, 0,
		1, 1, 1, 1,
	}, batch.AttentionMask.Data()); diff != "" {
		t.Errorf("unexpected mask (-want +got):\n%s", diff)
	}
}

func TestComputeOffsetRowAlignment(t *testing.T) {
	clip := hiClip(t, Config{})

	batch, err := clip.Compute([]string{"hi", "hi hi"}, ComputeOptions{OffsetMapping: true})
	require.NoError(t, err)

	require.Equal(t, []int{2, 4, 2}, []int(batch.OffsetMapping.Shape()))

	// each row's spans start at its own row boundary; padded positions stay
	// (0, 0) like the BOS/EOS framing
	if diff := cmp.Diff([]int64{
		0, 0, 0, 2, 0, 0, 0, 0,
		0, 0, 0, 2, 3, 5, 0, 0,
	}, batch.OffsetMapping.Data()); diff != "" {
		t.Errorf("unexpected offsets (-want +got):\n%s", diff)
	}
	require.Nil(t, batch.AttentionMask)
}

func TestComputeEmptyRow(t *testing.T) {
	clip := hiClip(t, Config{})

	batch, err := clip.Compute([]string{"", "hi"}, ComputeOptions{AttentionMask: true})
	require.NoError(t, err)

	// the empty row contributes no tokens: all padding, all-zero mask
	if diff := cmp.Diff([]int64{
		1, 1, 1,
		0, 2, 1,
	}, batch.TokenIDs.Data()); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{
		0, 0, 0,
		1, 1, 1,
	}, batch.AttentionMask.Data()); diff != "" {
		t.Errorf("unexpected mask (-want +got):\n%s", diff)
	}
}

func TestComputeEmptyBatch(t *testing.T) {
	clip := hiClip(t, Config{})

	for _, inputs := range [][]string{nil, {}, {""}, {"", "\t"}} {
		batch, err := clip.Compute(inputs, ComputeOptions{AttentionMask: true, OffsetMapping: true})
		require.NoError(t, err)

		require.Zero(t, batch.MaxLength)
		require.Nil(t, batch.TokenIDs)
		require.Nil(t, batch.AttentionMask)
		require.Nil(t, batch.OffsetMapping)
	}
}
