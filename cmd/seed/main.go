package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/localbase/localbase-backend/config"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/db"
	"github.com/localbase/localbase-backend/internal/legacy"
	"github.com/localbase/localbase-backend/internal/report"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/redis"
)

func main() {
	legacyPath := flag.String("legacy", "", "browser storage export (JSON) to import")
	xlsxPath := flag.String("xlsx", "", "business spreadsheet (XLSX) to import")
	owner := flag.String("owner", "", "owner wallet for spreadsheet rows without one")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run cmd/seed/main.go [-legacy dump.json] [-xlsx businesses.xlsx -owner 0x...] [-yes]")
		fmt.Fprintln(os.Stderr, "With no file flags the default businesses and posts are seeded.")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	switch {
	case *legacyPath != "":
		importLegacy(*legacyPath, *yes)
	case *xlsxPath != "":
		importSpreadsheet(cfg, *xlsxPath, *owner, *yes)
	default:
		if err := db.SeedDefaults(db.GetDB()); err != nil {
			log.Fatal("Failed to seed defaults:", err)
		}
		fmt.Println("Default data seeded.")
	}
}

func confirm(yes bool) bool {
	if yes {
		return true
	}
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func importLegacy(path string, yes bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("Failed to read storage export:", err)
	}

	dump := legacy.Parse(data)
	fmt.Printf("Found %d businesses, %d posts, %d reviews, %d comments, %d likes\n",
		len(dump.Businesses), len(dump.Posts), len(dump.Reviews), len(dump.Comments), len(dump.Likes))
	for _, w := range dump.Warnings {
		fmt.Println("  warning:", w)
	}

	if !confirm(yes) {
		fmt.Println("Import cancelled.")
		return
	}

	result, err := legacy.NewImporter(db.GetDB()).Import(dump)
	if err != nil {
		log.Fatal("Failed to import storage export:", err)
	}
	fmt.Println("Import completed successfully!")
	fmt.Printf("Inserted %d businesses, %d posts, %d reviews, %d comments, %d likes, %d reward uses\n",
		result.Businesses, result.Posts, result.Reviews, result.Comments, result.Likes, result.Redemptions)
}

func importSpreadsheet(cfg *config.Config, path, owner string, yes bool) {
	if owner != "" && chain.NormalizeAddress(owner) == "" {
		log.Fatal("Invalid -owner wallet address:", owner)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", path)
	rows, summary, err := report.ReadBusinesses(f, owner)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Rows: %d, valid: %d, skipped: %d\n", summary.Rows, summary.Valid, summary.Skipped)
	for _, reason := range summary.Reasons {
		fmt.Println("  skipped:", reason)
	}

	if len(rows) == 0 || !confirm(yes) {
		fmt.Println("Import cancelled.")
		return
	}

	ctx := context.Background()
	chainClient, err := chain.New(ctx, cfg.Chain.UseRealContract, chain.OptionsFromConfig(&cfg.Chain))
	if err != nil {
		log.Fatal("Failed to connect to the payment contract:", err)
	}
	businessService := service.NewBusinessService(
		repository.NewBusinessRepository(db.GetDB()),
		chainClient,
		redis.NewMemoryStore(),
		nil,
		cfg.Sync.CacheTTL,
	)

	imported := 0
	for _, row := range rows {
		business, err := businessService.AddBusiness(ctx, row.Owner, row.Request)
		if err != nil {
			fmt.Printf("  row %d: %v\n", row.Row, err)
			continue
		}
		imported++
		fmt.Printf("  row %d: %s (%s)\n", row.Row, business.Name, business.ID)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total businesses imported: %d of %d\n", imported, len(rows))
}
