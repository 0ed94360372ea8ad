// check-ai probes the color-analysis server and reports recent recommendation
// runs from the local database.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/tonecloset/tonecloset/internal/ai"
	"github.com/tonecloset/tonecloset/internal/color"
)

func main() {
	var (
		imageURL = flag.String("image", "", "Image URL to classify as a probe")
	)
	flag.Parse()

	baseURL := os.Getenv("AI_SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./tonecloset.db"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := ai.NewClient(&ai.Config{BaseURL: baseURL, TimeoutSeconds: 30}, zerolog.Nop())

	fmt.Println("Checking color-analysis server")
	fmt.Println("==============================")
	fmt.Printf("Server: %s\n", baseURL)

	if client.HealthCheck(ctx) {
		fmt.Println("Health: ok")
	} else {
		fmt.Println("Health: UNREACHABLE (recommendations will run in degraded mode)")
	}

	if *imageURL != "" {
		fmt.Printf("\nClassifying %s\n", *imageURL)
		analysis := client.Classify(ctx, *imageURL)
		fmt.Printf("  Category:   %s\n", analysis.Category)
		fmt.Printf("  Confidence: %d%%\n", analysis.Confidence)
		fmt.Printf("  Season:     %s\n", color.ExtractSeason(analysis.Category))
		fmt.Printf("  Tone:       %s\n", color.ExtractTone(analysis.Category))
		fmt.Printf("  Rationale:  %s\n", analysis.Rationale)
		fmt.Printf("  Colors:     %v\n", analysis.DominantColors)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	var runCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runCount); err != nil {
		fmt.Println("\nNo runs table found (no recommendations recorded yet)")
		return
	}
	fmt.Printf("\nRecorded runs: %d\n", runCount)

	rows, err := db.Query(`
		SELECT user_color, total_candidates, analyzed, matched, elapsed_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT 5`)
	if err != nil {
		log.Fatal("Failed to query runs:", err)
	}
	defer rows.Close()

	fmt.Println("\nRecent runs:")
	fmt.Println("------------")
	for rows.Next() {
		var userColor string
		var total, analyzed, matched int
		var elapsedMs int64
		var createdAt time.Time

		if err := rows.Scan(&userColor, &total, &analyzed, &matched, &elapsedMs, &createdAt); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		rate := 0.0
		if analyzed > 0 {
			rate = float64(matched) / float64(analyzed) * 100
		}
		fmt.Printf("%s  %-14s  candidates=%d analyzed=%d matched=%d (%.1f%%) in %dms\n",
			createdAt.Format("2006-01-02 15:04"), userColor, total, analyzed, matched, rate, elapsedMs)
	}
}
