package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/service"
)

var (
	gensqlDir string
	gensqlOut string
)

var gensqlCmd = &cobra.Command{
	Use:   "gensql",
	Short: "Generate migration SQL from a dump directory",
	Long: `Gensql reads a dump directory written by the dump command and emits
INSERT statements for the sizes, tags, agencies and agency_tags tables,
one statement per line. Logos are resolved through the image map to the
/images/ paths the server serves them from. Review the file, then load
it with the apply command.`,
	Run: func(cmd *cobra.Command, args []string) {
		runGensql()
	},
}

func init() {
	gensqlCmd.Flags().StringVar(&gensqlDir, "dir", "./content-dump", "dump directory to read")
	gensqlCmd.Flags().StringVar(&gensqlOut, "out", "migrate.sql", "file to write the SQL to")
	rootCmd.AddCommand(gensqlCmd)
}

func runGensql() {
	dump, err := service.LoadDump(gensqlDir)
	if err != nil {
		log.Fatalf("Failed to load dump: %v", err)
	}

	statements := service.MigrationSQL(dump, time.Now())
	if err := service.WriteSQLFile(gensqlOut, statements); err != nil {
		log.Fatalf("Failed to write SQL: %v", err)
	}

	log.Printf("Wrote %d statements to %s (%d agencies, %d tags, %d sizes)",
		len(statements), gensqlOut, len(dump.Agencies), len(dump.Tags), len(dump.Sizes))
}
