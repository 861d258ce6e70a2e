// Command seed writes identity-API response fixtures to disk for local
// development against a stubbed identity service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"tripdesk/internal/fixtures"
)

func main() {
	var (
		outDir = flag.String("out", "testdata/fixtures", "output directory")
		count  = flag.Int("count", 10, "number of auth fixtures to generate")
		seed   = flag.Uint64("seed", 1, "faker seed")
	)
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	f := fixtures.NewFaker(*seed)
	for i := 0; i < *count; i++ {
		result := fixtures.AuthResult(f)
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("marshal fixture: %v", err)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("auth_result_%02d.json", i+1))
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			log.Fatalf("write fixture: %v", err)
		}
		log.Printf("wrote %s (%s)", path, result.User.Email)
	}
	log.Printf("generated %d fixtures in %s", *count, *outDir)
}
