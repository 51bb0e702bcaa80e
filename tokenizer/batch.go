package tokenizer

import (
	"math"
	"runtime"

	"github.com/pdevine/tensor"
	"golang.org/x/sync/errgroup"
)

// ComputeOptions selects the optional batch outputs.
type ComputeOptions struct {
	AttentionMask bool
	OffsetMapping bool
}

// Batch holds the padded outputs for one batch of inputs. TokenIDs and
// AttentionMask are shaped [rows, MaxLength]; OffsetMapping is
// [rows, MaxLength, 2]. Optional tensors are nil unless requested, and all
// tensors are nil for an empty batch.
type Batch struct {
	TokenIDs      *tensor.Dense
	AttentionMask *tensor.Dense
	OffsetMapping *tensor.Dense
	MaxLength     int
}

// Compute tokenizes every row independently, then pads the batch to a single
// width: the configured padding length when fixed, otherwise the longest
// observed row. Short rows are padded with the EOS id; the attention mask
// carries 1 for real tokens and 0 for padding. Rows are processed
// concurrently, one result slot per row, so the output is deterministic.
func (c *Clip) Compute(inputs []string, opts ComputeOptions) (*Batch, error) {
	limit := c.padding
	if limit < 0 {
		limit = math.MaxInt
	}

	rows := make([][]int32, len(inputs))
	offsets := make([][]Offset, len(inputs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, input := range inputs {
		g.Go(func() error {
			rows[i], offsets[i] = c.Tokenize(input, limit, opts.OffsetMapping)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	maxLength := 0
	if c.padding > 0 {
		maxLength = c.padding
	} else {
		for _, row := range rows {
			maxLength = max(maxLength, len(row))
		}
	}

	batch := &Batch{MaxLength: maxLength}
	if len(inputs) == 0 || maxLength == 0 {
		return batch, nil
	}

	n := len(inputs)
	ids := make([]int64, n*maxLength)
	var mask []int64
	if opts.AttentionMask {
		mask = make([]int64, n*maxLength)
	}
	var spans []int64
	if opts.OffsetMapping {
		spans = make([]int64, n*maxLength*2)
	}

	for r, row := range rows {
		base := r * maxLength
		for j := 0; j < maxLength; j++ {
			if j < len(row) {
				ids[base+j] = int64(row[j])
				if mask != nil {
					mask[base+j] = 1
				}
			} else {
				// EOS doubles as the pad token
				ids[base+j] = int64(c.eos)
			}
		}

		// offsets are written at row boundaries, aligned with the padded ids
		for j, span := range offsets[r] {
			if j >= maxLength {
				break
			}
			spans[(base+j)*2] = int64(span.Start)
			spans[(base+j)*2+1] = int64(span.End)
		}
	}

	batch.TokenIDs = tensor.New(tensor.WithShape(n, maxLength), tensor.WithBacking(ids))
	if mask != nil {
		batch.AttentionMask = tensor.New(tensor.WithShape(n, maxLength), tensor.WithBacking(mask))
	}
	if spans != nil {
		batch.OffsetMapping = tensor.New(tensor.WithShape(n, maxLength, 2), tensor.WithBacking(spans))
	}
	return batch, nil
}
