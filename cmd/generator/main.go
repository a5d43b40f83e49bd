package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"custintel/internal/sampledata"
	"custintel/pkg/logger"
)

// generator writes synthetic feedback files into the data directory so
// a pipeline run can exercise the file-loading path instead of
// generating records on the fly.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	company := flag.String("company", "", "company name (required)")
	product := flag.String("product", "", "product name (required)")
	dir := flag.String("dir", "data", "output directory")
	count := flag.Int("count", 20, "records per source")
	sources := flag.String("sources", "reviews,tickets,surveys", "comma-separated sources to generate")
	flag.Parse()

	if *company == "" || *product == "" {
		fmt.Println("Error: --company and --product flags are required")
		flag.Usage()
		os.Exit(1)
	}

	zapLogger, _ := zap.NewDevelopment()
	log := &logger.Logger{SugaredLogger: zapLogger.Sugar()}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Errorw("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	loader := sampledata.NewLoader(*dir, *company, *product)

	fileNames := map[string]string{
		"reviews": "reviews.json",
		"tickets": "support_tickets.json",
		"surveys": "surveys.json",
	}

	for _, source := range strings.Split(*sources, ",") {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}

		records := loader.Synthesize(source, *count)

		filename, ok := fileNames[source]
		if !ok {
			filename = source + ".json"
		}
		path := filepath.Join(*dir, filename)

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			log.Errorw("Failed to encode records", "source", source, "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Errorw("Failed to write file", "path", path, "error", err)
			os.Exit(1)
		}

		log.Infow("Generated sample data", "source", source, "records", len(records), "path", path)
	}

	log.Infow("✅ Generation completed successfully!")
}
