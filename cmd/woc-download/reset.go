package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/state"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the completion records",
	Long: `Clear every completion record so the next run starts from scratch.
The state documents are backed up first; downloaded files are left
untouched.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var flagResetDedup bool

func init() {
	resetCmd.Flags().BoolVar(&flagResetDedup, "dedup", false, "also clear the URL dedup store")
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Component("reset")

	backups, err := state.BackupDocuments(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("backing up state: %w", err)
	}
	for _, b := range backups {
		log.Info("state backed up", "path", b)
	}

	completion, err := openCompletionStore(cfg, logging.Component("state"))
	if err != nil {
		return err
	}
	if err := completion.Reset(); err != nil {
		return err
	}
	fmt.Println("completion records cleared")

	if flagResetDedup {
		store, err := openDedupStore(cfg, logging.Component("dedup"))
		if err != nil {
			return err
		}
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Println("dedup store cleared")
	}
	return nil
}
