package cmd

import (
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/jroman/agencydir/internal/blob"
	"github.com/jroman/agencydir/internal/config"
	"github.com/jroman/agencydir/internal/handlers"
	"github.com/jroman/agencydir/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
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

	if cfg.AdminSecret == "" {
		log.Println("Warning: ADMIN_SECRET is not set, the admin area is unreachable")
	}

	app := fiber.New(fiber.Config{
		AppName: "agencydir",
		// above the 5 MiB upload cap so the handler can reject with a
		// readable message instead of a bare 413
		BodyLimit: 8 << 20,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	handlers.Register(app,
		store.NewAgencyStore(db),
		store.NewSizeStore(db),
		store.NewTagStore(db),
		images,
		cfg.AdminSecret,
		cfg.Production(),
	)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Listening on :%s (db %s, blob %s)", cfg.Port, redactDSN(cfg.DatabaseURL), images.Driver())
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// redactDSN strips the userinfo from a database URL so credentials never
// reach the logs. Plain file paths pass through unchanged.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	u.User = nil
	return u.String()
}
