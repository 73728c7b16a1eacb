package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jroman/agencydir/internal/model"
)

// DumpStats tracks the progress of a content dump
type DumpStats struct {
	Agencies         int
	Tags             int
	Sizes            int
	AssetsDownloaded int
	AssetsFailed     int
}

// Dumper pulls every record out of the content API and writes it to a
// local dump directory: one JSON file per record kind, the logo binaries
// under images/, and an image map tying agencies to their downloaded
// files. Asset downloads are best effort; a failed download is logged
// and skipped so one broken image cannot block the dump.
type Dumper struct {
	client *ContentClient
	dir    string
	logger *log.Logger
	errLog *log.Logger
}

// NewDumper creates a dumper writing to the given directory.
func NewDumper(client *ContentClient, dir string, logger, errLog *log.Logger) *Dumper {
	return &Dumper{
		client: client,
		dir:    dir,
		logger: logger,
		errLog: errLog,
	}
}

// Dump fetches all records and writes the dump directory.
func (d *Dumper) Dump(ctx context.Context) (*DumpStats, error) {
	stats := &DumpStats{}

	if err := os.MkdirAll(filepath.Join(d.dir, "images"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}

	d.logger.Println("Fetching agencies...")
	agencies, err := d.client.FetchAgencies(ctx)
	if err != nil {
		return nil, err
	}
	stats.Agencies = len(agencies)

	d.logger.Println("Fetching tags...")
	tags, err := d.client.FetchTags(ctx)
	if err != nil {
		return nil, err
	}
	stats.Tags = len(tags)

	d.logger.Println("Fetching sizes...")
	sizes, err := d.client.FetchSizes(ctx)
	if err != nil {
		return nil, err
	}
	stats.Sizes = len(sizes)

	if err := d.writeJSON("agencies.json", agencies); err != nil {
		return nil, err
	}
	if err := d.writeJSON("tags.json", tags); err != nil {
		return nil, err
	}
	if err := d.writeJSON("sizes.json", sizes); err != nil {
		return nil, err
	}

	imageMap := d.downloadImages(ctx, agencies, stats)
	if err := d.writeJSON("image-map.json", imageMap); err != nil {
		return nil, err
	}

	return stats, nil
}

// downloadImages fetches each agency logo into the images directory and
// builds the image map. Entries for failed downloads are omitted.
func (d *Dumper) downloadImages(ctx context.Context, agencies []model.AgencyEntry, stats *DumpStats) []model.ImageMapEntry {
	imageMap := make([]model.ImageMapEntry, 0, len(agencies))

	for _, agency := range agencies {
		if agency.Logo == nil {
			continue
		}

		fileName := fmt.Sprintf("%s-%s", agency.Logo.ID, agency.Logo.FileName)

		data, err := d.client.FetchAsset(ctx, agency.Logo.URL)
		if err != nil {
			d.errLog.Printf("Failed to download logo for %s: %v", agency.Name, err)
			stats.AssetsFailed++
			continue
		}

		path := filepath.Join(d.dir, "images", fileName)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			d.errLog.Printf("Failed to write logo for %s: %v", agency.Name, err)
			stats.AssetsFailed++
			continue
		}

		stats.AssetsDownloaded++
		imageMap = append(imageMap, model.ImageMapEntry{
			AgencyID:    agency.ID,
			AgencyName:  agency.Name,
			LogoID:      agency.Logo.ID,
			FileName:    fileName,
			OriginalURL: agency.Logo.URL,
			ContentType: agency.Logo.ContentType,
		})
	}

	return imageMap
}

func (d *Dumper) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// PrintSummary prints dump statistics
func (s *DumpStats) PrintSummary(logger *log.Logger) {
	logger.Println("=== Dump Summary ===")
	logger.Printf("Agencies: %d", s.Agencies)
	logger.Printf("Tags: %d", s.Tags)
	logger.Printf("Sizes: %d", s.Sizes)
	logger.Printf("Images downloaded: %d", s.AssetsDownloaded)
	logger.Printf("Images failed: %d", s.AssetsFailed)
}
