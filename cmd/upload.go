package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/blob"
	"github.com/jroman/agencydir/internal/config"
	"github.com/jroman/agencydir/internal/service"
)

var uploadDir string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload dumped images to the blob store",
	Long: `Upload pushes every image from a dump directory into the blob store
configured by the environment, keyed by file name so the paths in the
generated SQL resolve. Already-uploaded images are overwritten, so the
command can be rerun.`,
	Run: func(cmd *cobra.Command, args []string) {
		runUpload()
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadDir, "dir", "./content-dump", "dump directory containing images/")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload() {
	cfg := config.Load()
	ctx, stop := signalContext()
	defer stop()

	images, err := blob.Open(ctx, blob.Options{
		Driver:      blob.Driver(cfg.BlobDriver),
		FSRoot:      cfg.BlobFSRoot,
		S3Bucket:    cfg.S3Bucket,
		S3Region:    cfg.S3Region,
		S3Endpoint:  cfg.S3Endpoint,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PathStyle: cfg.S3PathStyle,
	})
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	errLog := log.New(os.Stderr, "ERROR: ", log.LstdFlags)

	uploader := service.NewUploader(images, logger, errLog)
	stats, err := uploader.UploadDir(ctx, filepath.Join(uploadDir, "images"))
	if err != nil {
		errLog.Fatalf("Upload failed: %v", err)
	}

	stats.PrintSummary(logger)
}
