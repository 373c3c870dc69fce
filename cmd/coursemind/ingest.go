package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coursemind/internal/rag"
)

var ingestClear bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Index course documents from a folder",
	Long: `Parses every supported document (.txt, .md, .html) in the folder and
indexes its content. Courses already in the catalog are skipped unless
--clear wipes the index first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the existing index before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := cfg.Ingest.DocsPath
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no docs folder given and none configured")
	}

	system, err := rag.New(cfg)
	if err != nil {
		return err
	}
	defer system.Close()

	courses, chunks, err := system.AddCourseFolder(cmd.Context(), dir, ingestClear)
	if err != nil {
		return err
	}

	logger.Info("ingestion complete",
		zap.String("dir", dir), zap.Int("courses", courses), zap.Int("chunks", chunks))
	fmt.Printf("Ingested %d courses (%d chunks) from %s\n", courses, chunks, dir)
	return nil
}
