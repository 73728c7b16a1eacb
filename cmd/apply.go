package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/config"
	"github.com/jroman/agencydir/internal/service"
	"github.com/jroman/agencydir/internal/store"
)

var applyCmd = &cobra.Command{
	Use:   "apply <file.sql>",
	Short: "Execute a generated SQL file against the database",
	Long: `Apply runs a SQL file produced by gensql, backfill or sync against
the database named by DATABASE_URL, one statement per line. Statements
are not wrapped in a transaction; on failure the error names the line
that failed so the rest of the file can be inspected and rerun.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runApply(args[0])
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(path string) {
	cfg := config.Load()
	ctx, stop := signalContext()
	defer stop()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	executed, err := service.ApplySQLFile(ctx, db, path)
	if err != nil {
		log.Fatalf("Applied %d statements, then: %v", executed, err)
	}

	log.Printf("Applied %d statements from %s", executed, path)
}
