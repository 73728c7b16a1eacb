package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/service"
	"github.com/jroman/agencydir/internal/store"
)

var (
	syncFrom string
	syncOut  string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export production data as SQL for a local mirror",
	Long: `Sync reads every row from the production database and emits
INSERT OR REPLACE statements that recreate them. Applying the file to a
local database overwrites rows that already exist; rows deleted in
production are left alone. Load the output with the apply command.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSync()
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "production database URL (required)")
	syncCmd.Flags().StringVar(&syncOut, "out", "sync.sql", "file to write the SQL to")
	syncCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(syncCmd)
}

func runSync() {
	ctx, stop := signalContext()
	defer stop()

	db, err := store.NewDB(syncFrom)
	if err != nil {
		log.Fatalf("Failed to open production database: %v", err)
	}
	defer db.Close()

	data, err := service.SnapshotProduction(ctx, db)
	if err != nil {
		log.Fatalf("Failed to snapshot production: %v", err)
	}

	statements := service.SyncSQL(data)
	if err := service.WriteSQLFile(syncOut, statements); err != nil {
		log.Fatalf("Failed to write SQL: %v", err)
	}

	log.Printf("Wrote %d statements to %s (%d agencies, %d tags, %d sizes, %d links)",
		len(statements), syncOut, len(data.Agencies), len(data.Tags), len(data.Sizes), len(data.Links))
}
