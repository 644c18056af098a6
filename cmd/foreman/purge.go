package main

import (
	"context"
	"fmt"

	"github.com/ctc-oss/foreman/pkg/config"
	"github.com/ctc-oss/foreman/pkg/message"
	"github.com/ctc-oss/foreman/pkg/purge"
	"github.com/ctc-oss/foreman/pkg/storage"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Run a purge cascade",
}

var purgeSourceFileCmd = &cobra.Command{
	Use:   "source-file <source-file-id> <trigger-id>",
	Short: "Purge everything that consumes a withdrawn source file",
	Args:  cobra.ExactArgs(2),
	RunE:  runPurgeSourceFile,
}

func init() {
	purgeCmd.AddCommand(purgeSourceFileCmd)
}

func runPurgeSourceFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	sourceFileID, triggerID := args[0], args[1]
	root := purge.NewPurgeSourceFile(store, sourceFileID, triggerID)

	ctx := context.Background()
	ran, err := drainCascade(ctx, root)
	if err != nil {
		return fmt.Errorf("purge cascade: %w", err)
	}

	fmt.Printf("Purge cascade for source file %s complete: %d message(s) executed\n", sourceFileID, ran)
	return nil
}

// drainCascade executes msg and every follow-on message it returns,
// depth-first, until the cascade is exhausted. It runs messages
// synchronously on the calling goroutine rather than through pkg/bus,
// which is built for long-lived, at-least-once in-process dispatch, not
// a one-shot CLI invocation that must observe the whole cascade finish
// before returning.
func drainCascade(ctx context.Context, msg message.Message) (int, error) {
	committed, follow, err := msg.Execute(ctx)
	if err != nil {
		return 0, fmt.Errorf("execute %s: %w", msg.Type(), err)
	}
	count := 1
	if !committed {
		return count, nil
	}
	for _, next := range follow {
		n, err := drainCascade(ctx, next)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}
