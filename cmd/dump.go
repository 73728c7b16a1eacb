package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/config"
	"github.com/jroman/agencydir/internal/service"
)

var dumpDir string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump all records and images from the content API",
	Long: `Dump fetches every agency, tag and size record from the content API
and writes them to a local directory as JSON, downloads the logo images,
and writes an image map linking agencies to their downloaded files.
Failed image downloads are logged and skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		runDump()
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpDir, "dir", "./content-dump", "directory to write the dump to")
	rootCmd.AddCommand(dumpCmd)
}

func runDump() {
	cfg := config.Load()
	if cfg.ContentSpace == "" || cfg.ContentToken == "" {
		log.Fatal("CONTENT_SPACE and CONTENT_ACCESS_TOKEN must be set")
	}

	ctx, stop := signalContext()
	defer stop()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	errLog := log.New(os.Stderr, "ERROR: ", log.LstdFlags)

	client := service.NewContentClient(cfg.ContentURL, cfg.ContentSpace, cfg.ContentToken)
	dumper := service.NewDumper(client, dumpDir, logger, errLog)

	stats, err := dumper.Dump(ctx)
	if err != nil {
		errLog.Fatalf("Dump failed: %v", err)
	}

	stats.PrintSummary(logger)
	logger.Printf("Dump written to %s", dumpDir)
}
