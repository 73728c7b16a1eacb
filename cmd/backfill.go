package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/service"
)

var (
	backfillDir string
	backfillOut string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate slug backfill SQL for tags and sizes",
	Long: `Backfill reads the tags and sizes from a dump directory and emits
UPDATE statements that fill in the slug column for rows loaded before
the column existed. Load the output with the apply command.`,
	Run: func(cmd *cobra.Command, args []string) {
		runBackfill()
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillDir, "dir", "./content-dump", "dump directory to read")
	backfillCmd.Flags().StringVar(&backfillOut, "out", "backfill.sql", "file to write the SQL to")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill() {
	dump, err := service.LoadDump(backfillDir)
	if err != nil {
		log.Fatalf("Failed to load dump: %v", err)
	}

	statements := service.BackfillSlugSQL(dump.Tags, dump.Sizes)
	if err := service.WriteSQLFile(backfillOut, statements); err != nil {
		log.Fatalf("Failed to write SQL: %v", err)
	}

	log.Printf("Wrote %d statements to %s", len(statements), backfillOut)
}
