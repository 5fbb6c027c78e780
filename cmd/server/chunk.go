package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docchat/internal/pkg/pdfextract"
	"docchat/internal/pkg/textsplit"
)

type chunkReport struct {
	File         string   `json:"file"`
	Pages        int      `json:"pages"`
	Size         int      `json:"size"`
	ChunkSize    int      `json:"chunk_size"`
	ChunkOverlap int      `json:"chunk_overlap"`
	Chunks       []string `json:"chunks"`
}

// newChunkCmd runs extraction and chunking offline, for checking how a PDF
// will be split before uploading it.
func newChunkCmd() *cobra.Command {
	var size, overlap int
	cmd := &cobra.Command{
		Use:   "chunk <file.pdf>",
		Short: "Extract and chunk a PDF, printing the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			splitter, err := textsplit.New(size, overlap)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read pdf failed: %w", err)
			}
			result, err := pdfextract.New().Extract(cmd.Context(), data)
			if err != nil {
				return err
			}

			report := chunkReport{
				File:         filepath.Base(args[0]),
				Pages:        result.Pages,
				Size:         len([]rune(result.Text)),
				ChunkSize:    splitter.ChunkSize(),
				ChunkOverlap: splitter.ChunkOverlap(),
				Chunks:       splitter.Split(result.Text),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().IntVar(&size, "size", textsplit.DefaultChunkSize, "maximum chunk length in characters")
	cmd.Flags().IntVar(&overlap, "overlap", textsplit.DefaultChunkOverlap, "characters shared by neighbouring chunks")
	return cmd
}
