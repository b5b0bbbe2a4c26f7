package main

import (
	"arkham-scraper/config"
	"arkham-scraper/models"
	"arkham-scraper/scraper"
	"arkham-scraper/scraper/browser"
	"arkham-scraper/services"
	"arkham-scraper/storage"
	"arkham-scraper/utils"
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	location := flag.String("location", "", "city, address or zip code to search near")
	csvPath := flag.String("csv", "", "write results to this CSV file (overrides output.csv_path)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		utils.Error("Could not load config: %v", err)
		os.Exit(1)
	}
	utils.SetVerbose(cfg.Output.Verbose)
	if *csvPath != "" {
		cfg.Output.CSVPath = *csvPath
	}

	if strings.TrimSpace(*location) == "" {
		*location = promptLocation()
	}
	if strings.TrimSpace(*location) == "" {
		utils.Error("No location given")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	utils.Info("Scanner starting | backend=%s max_stores=%d headless=%v",
		cfg.Browser.Backend, cfg.Search.MaxStores, cfg.Browser.Headless)

	run, err := scraper.NewScanner(cfg, browser.Open).Run(ctx, strings.TrimSpace(*location))
	if err != nil {
		if errors.Is(err, browser.ErrSessionInit) {
			utils.Error("Could not start browser: %v", err)
		} else {
			utils.Error("Scan failed: %v", err)
		}
		os.Exit(1)
	}

	printSummary(run)
	services.PrintReport(services.GenerateReport(run))

	if cfg.Output.CSVPath != "" {
		if err := storage.NewCSVWriter(cfg.Output.CSVPath).Write(run); err != nil {
			utils.Error("Failed to save CSV: %v", err)
			os.Exit(1)
		}
	}
}

func promptLocation() string {
	fmt.Print("Enter your location (city, address, or zip code): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func printSummary(run models.ScanRun) {
	found := 0
	for _, r := range run.Results {
		if r.HasProduct {
			found++
		}
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║                 SCAN COMPLETE                ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Stores checked : %-26d ║\n", len(run.Results))
	fmt.Printf("║  Stores matched : %-26d ║\n", found)
	fmt.Printf("║  Duration       : %-26s ║\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Println("╚══════════════════════════════════════════════╝")
}
