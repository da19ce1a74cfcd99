package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"raidcast/internal/api"
	"raidcast/internal/config"
	"raidcast/internal/events"
	"raidcast/internal/history"
	"raidcast/internal/notify"
	"raidcast/internal/reliability"
	"raidcast/internal/report"
	"raidcast/internal/smart"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "report":
		runReport(os.Args[2:])
	case "serve":
		runServe()
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  raidcast report [-spares serials] [-store] <smartctl-json>...")
	fmt.Fprintln(os.Stderr, "  raidcast serve")
}

// runReport computes and prints a one-shot forecast from smartctl JSON
// files (one drive per file, as produced by smartctl -x --json).
func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	spares := fs.String("spares", "", "comma-separated serials to treat as spares")
	store := fs.Bool("store", false, "persist the pass to the history database")
	fs.Parse(args)

	if fs.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	spareSet := cfg.SpareSet()
	if *spares != "" {
		t := cfg
		t.Spares = append(t.Spares, splitArg(*spares)...)
		spareSet = t.SpareSet()
	}

	var devices []reliability.Device
	for _, path := range fs.Args() {
		d, err := loadDevice(path, spareSet)
		if err != nil {
			log.Fatalf("reading %s: %v", path, err)
		}
		devices = append(devices, d)
	}

	forecast, err := reliability.Compute(devices, reliability.Config{MaxParity: cfg.MaxParity})
	if err != nil {
		log.Fatal(err)
	}

	if *store {
		db, err := history.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("opening history db: %v", err)
		}
		defer db.Close()
		if _, err := history.StorePass(db, forecast); err != nil {
			log.Printf("warning: storing pass failed: %v", err)
		}
	}

	report.Render(os.Stdout, forecast)
}

func loadDevice(path string, spares map[string]bool) (reliability.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return reliability.Device{}, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return reliability.Device{}, err
	}

	d, err := smart.ParseDevice(doc)
	if err != nil {
		return reliability.Device{}, err
	}
	d.ArrayMember = !spares[d.Serial]
	return d, nil
}

// runServe starts the HTTP service: report ingestion, forecast queries,
// websocket event stream, and threshold notifications.
func runServe() {
	cfg := config.Load()

	db, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening history db: %v", err)
	}
	defer db.Close()

	bus := events.NewBus()

	dispatcher := notify.NewDispatcher(cfg.ShoutrrrURL, nil)
	dispatcher.Start(bus)
	defer dispatcher.Stop()

	srv := api.NewServer(cfg, db, bus)

	log.Printf("raidcast listening on :%s (db %s)", cfg.Port, cfg.DBPath)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}

func splitArg(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
