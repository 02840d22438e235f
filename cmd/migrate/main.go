package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"printwatch/internal/config"
	"printwatch/internal/dto"
	"printwatch/internal/logger"
	"printwatch/internal/model"
	"printwatch/internal/repository/sqlite"
	"printwatch/internal/service/ai/yolo"
	"printwatch/internal/service/capture"
	"printwatch/internal/service/storage"
	"printwatch/internal/service/summary"

	"github.com/google/uuid"
)

// migrate indexes frames already on disk into the history database by
// running the detector on every frame that has no check yet. It never
// notifies the hub.
func main() {
	dryRun := flag.Bool("dry-run", false, "Only list the frames that would be indexed")
	limit := flag.Int("limit", 0, "Maximum number of frames to index (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabasePath == "" {
		log.Fatalf("DB_PATH is empty - nothing to migrate into")
	}

	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogDebug)
	frames := storage.NewFrameStore(cfg, appLogger)

	fmt.Printf("Indexing frames from %s into database %s\n", frames.Dir(), cfg.DatabasePath)

	// Initialize database
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	checkRepo := sqlite.NewCheckRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	// Scan frames directory
	names, err := frames.List()
	if err != nil {
		log.Fatalf("Failed to read frames directory: %v", err)
	}

	var pending []string
	for _, name := range names {
		path := filepath.Join(frames.Dir(), name)
		exists, err := checkRepo.ExistsByImagePath(path)
		if err != nil {
			log.Fatalf("Failed to query database: %v", err)
		}
		if !exists {
			pending = append(pending, path)
		}
	}
	if *limit > 0 && len(pending) > *limit {
		pending = pending[:*limit]
	}

	if len(pending) == 0 {
		fmt.Println("No frames found to index")
		return
	}

	if *dryRun {
		for _, path := range pending {
			fmt.Println(path)
		}
		fmt.Printf("%d frame(s) would be indexed\n", len(pending))
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	detector, err := yolo.NewDetectorService(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer detector.Close()

	rules := summary.RulesFromConfig(cfg)
	indexed, skipped := 0, 0

	fmt.Printf("Indexing %d frame(s)...\n", len(pending))
	for _, path := range pending {
		raw, err := detector.Detect(context.Background(), path)
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", filepath.Base(path), err)
			skipped++
			continue
		}

		result := &model.CaptureResult{
			ID:        uuid.NewString(),
			ImagePath: path,
			CheckedAt: frameTime(path),
			Verdict:   summary.Summarize(raw, rules),
		}
		if raw != nil {
			result.AnnotatedPath = raw.AnnotatedPath
		}

		if err := checkRepo.Insert(model.NewCheckRecord(result, false)); err != nil {
			log.Printf("⚠️  Failed to save %s: %v", filepath.Base(path), err)
			skipped++
			continue
		}
		if err := detectionRepo.InsertBatch(result.ID, result.Detections); err != nil {
			log.Printf("⚠️  Failed to save detections of %s: %v", filepath.Base(path), err)
		}
		indexed++
	}

	fmt.Printf("✅ Successfully indexed %d frame(s)\n", indexed)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d frame(s) (unreadable or errors)\n", skipped)
	}

	// Show stats
	total, err := checkRepo.GetTotalCount(nil)
	if err == nil {
		errorCount, _ := checkRepo.GetTotalCount(&dto.CheckFilters{ErrorOnly: true})
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total checks: %d\n", total)
		fmt.Printf("   Failures: %d\n", errorCount)
		if classes, err := detectionRepo.GetClassNames(); err == nil {
			fmt.Printf("   Classes seen: %v\n", classes)
		}
	}
}

// frameTime recovers the capture time from the frame name, falling back to
// the file modification time for foreign file names.
func frameTime(path string) time.Time {
	if ts, err := capture.ParseFrameName(path); err == nil {
		return ts
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Now()
}
