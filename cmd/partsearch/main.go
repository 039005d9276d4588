package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"SpareParts/internal/searchview"
	"SpareParts/pkg/kit"
)

func main() {
	os.Exit(run())
}

func run() int {
	api := flag.String("api", getenv("CATALOG_URL", "http://localhost:5000"), "catalog service base URL")
	first := flag.Bool("first", false, "print only the detail link of the best match")
	verbose := flag.Bool("v", false, "log state transitions")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: partsearch [flags] query...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		log = kit.NewLogger("partsearch", true)
	}
	defer func() { _ = log.Sync() }()

	v := searchview.NewView(searchview.NewClient(*api))
	v.OnChange = func(s searchview.State) { log.Debug("search state", zap.Stringer("state", s)) }

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	state := v.Submit(ctx, strings.Join(flag.Args(), " "))

	if *first {
		if r, ok := v.First(); ok {
			fmt.Println(r.URL)
			return 0
		}
	}

	if err := v.Render(os.Stdout); err != nil {
		log.Error("render failed", zap.Error(err))
	}
	if state != searchview.Results {
		return 1
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
