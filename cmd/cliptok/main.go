package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/substratelabs/cliptok/envconfig"
	"github.com/substratelabs/cliptok/logutil"
	"github.com/substratelabs/cliptok/tokenizer"
)

type output struct {
	MaxLength     int       `json:"max_length"`
	InputIDs      [][]int64 `json:"input_ids"`
	AttentionMask [][]int64 `json:"attention_mask,omitempty"`
	OffsetMapping [][]int64 `json:"offset_mapping,omitempty"`
}

// rowsOf slices a flattened row-major tensor backing into per-row slices.
func rowsOf(data []int64, width int) [][]int64 {
	if width == 0 {
		return nil
	}
	rows := make([][]int64, 0, len(data)/width)
	for i := 0; i+width <= len(data); i += width {
		rows = append(rows, data[i:i+width])
	}
	return rows
}

func newCommand() *cobra.Command {
	var (
		vocabPath   string
		mergesPath  string
		special     string
		unk         string
		bos         string
		eos         string
		padding     int
		wantMask    bool
		wantOffsets bool
	)

	cmd := &cobra.Command{
		Use:           "cliptok [flags] TEXT...",
		Short:         "CLIP-style byte-level BPE tokenizer",
		Long:          "Tokenizes each argument (or each stdin line when no arguments are given) as one batch row and prints the padded batch as JSON.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			vocabJSON, err := os.ReadFile(vocabPath)
			if err != nil {
				return err
			}
			mergesText, err := os.ReadFile(mergesPath)
			if err != nil {
				return err
			}

			clip, err := tokenizer.New(vocabJSON, mergesText, tokenizer.Config{
				UnknownToken:  unk,
				BOSToken:      bos,
				EOSToken:      eos,
				SpecialTokens: special,
				PaddingLength: padding,
			})
			if err != nil {
				return err
			}

			inputs := args
			if len(inputs) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				inputs = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			}

			batch, err := clip.Compute(inputs, tokenizer.ComputeOptions{
				AttentionMask: wantMask,
				OffsetMapping: wantOffsets,
			})
			if err != nil {
				return err
			}

			out := output{MaxLength: batch.MaxLength}
			if batch.TokenIDs != nil {
				out.InputIDs = rowsOf(batch.TokenIDs.Data().([]int64), batch.MaxLength)
			}
			if batch.AttentionMask != nil {
				out.AttentionMask = rowsOf(batch.AttentionMask.Data().([]int64), batch.MaxLength)
			}
			if batch.OffsetMapping != nil {
				out.OffsetMapping = rowsOf(batch.OffsetMapping.Data().([]int64), batch.MaxLength*2)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&vocabPath, "vocab", "", "path to the vocabulary JSON object")
	cmd.Flags().StringVar(&mergesPath, "merges", "", "path to the merge rules text")
	cmd.Flags().StringVar(&special, "special-tokens", "", "whitespace-separated special token strings")
	cmd.Flags().StringVar(&unk, "unk-token", "", "unknown token string")
	cmd.Flags().StringVar(&bos, "bos-token", "", "beginning-of-sequence token string")
	cmd.Flags().StringVar(&eos, "eos-token", "", "end-of-sequence token string")
	cmd.Flags().IntVar(&padding, "padding-length", -1, "fixed padding length, or -1 to pad to the longest row")
	cmd.Flags().BoolVar(&wantMask, "mask", false, "emit the attention mask")
	cmd.Flags().BoolVar(&wantOffsets, "offsets", false, "emit the offset mapping")
	_ = cmd.MarkFlagRequired("vocab")
	_ = cmd.MarkFlagRequired("merges")

	return cmd
}

func main() {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
