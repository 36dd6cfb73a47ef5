package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"bookpilot/internal/category"
	"bookpilot/internal/config"
	"bookpilot/internal/gateway"
	"bookpilot/internal/usecase"
)

func main() {
	envFile := flag.String("env", "", "Path to a .env file (optional)")
	workbook := flag.String("workbook", "", "Path to the .xlsx ledger workbook (overrides env)")
	dataDir := flag.String("dir", "", "Directory of per-table CSV files (overrides env)")
	year := flag.Int("year", 0, "Fiscal year to aggregate (overrides env)")
	layoutFile := flag.String("layouts", "", "Path to a YAML column-layout file (optional)")
	categoryFile := flag.String("categories", "", "Path to a YAML category overlay (optional)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if *workbook != "" {
		cfg.Workbook = *workbook
		cfg.DataDir = ""
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
		cfg.Workbook = ""
	}
	if *year != 0 {
		cfg.FiscalYear = *year
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	layouts, err := config.LoadLayouts(*layoutFile)
	if err != nil {
		log.Fatalf("Error loading layouts: %v", err)
	}

	registry := category.NewRegistry()
	if *categoryFile != "" {
		if err := registry.LoadOverlay(*categoryFile); err != nil {
			log.Fatalf("Error loading category overlay: %v", err)
		}
	}

	var store usecase.LedgerStore
	if cfg.Workbook != "" {
		xlsx, err := gateway.OpenXLSX(cfg.Workbook)
		if err != nil {
			log.Fatalf("Error opening workbook: %v", err)
		}
		defer xlsx.Close()
		store = xlsx
	} else {
		store = gateway.NewCSVStore(cfg.DataDir)
	}

	logger := config.NewLogger(cfg.LogLevel)

	pipeline := usecase.NewPipeline(store, registry, usecase.Options{
		FiscalYear:     cfg.FiscalYear,
		ShareCapital:   cfg.ShareCapital,
		DefaultVATRate: cfg.DefaultVATRate,
		OpeningBalance: cfg.OpeningBalance,
		Tables: usecase.Tables{
			Income:  cfg.IncomeTable,
			Expense: cfg.ExpenseTable,
			Bank:    cfg.BankTable,
		},
		IncomeLayout:  layouts.Income,
		ExpenseLayout: layouts.Expense,
		BankLayout:    layouts.Bank,
	}, logger)

	report, err := pipeline.Run(context.Background())
	if err != nil {
		log.Fatalf("Pass failed: %v", err)
	}

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to generate JSON report: %v", err)
	}
	fmt.Println(string(output))
}
