package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coursemind/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	system, err := rag.New(cfg)
	if err != nil {
		return err
	}
	defer system.Close()

	question := strings.Join(args, " ")
	answer, sources, err := system.Answer(cmd.Context(), question, "")
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if len(sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range sources {
			if src.Link != "" {
				fmt.Printf("  - %s (%s)\n", src.Text, src.Link)
			} else {
				fmt.Printf("  - %s\n", src.Text)
			}
		}
	}
	return nil
}
