package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"implantplanner/pkg/atlas"
	"implantplanner/pkg/config"
	"implantplanner/pkg/geometry"
	"implantplanner/pkg/logger"
	"implantplanner/pkg/overlay"
	"implantplanner/pkg/planner"
	"implantplanner/pkg/review"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "implantplanner.yaml", "Path to YAML configuration file")
	ap := flag.Float64("ap", 0, "Anteroposterior target coordinate in mm (required)")
	ml := flag.Float64("ml", 0, "Mediolateral target coordinate in mm (required)")
	dv := flag.Float64("dv", 0, "Dorsoventral target coordinate in mm (required)")
	angle := flag.Float64("angle", 0, "Implant rotation angle in degrees (required)")
	span := flag.Float64("span", 0, "Left/right electrode span in microns (default from config)")
	skull := flag.Float64("skull", 0, "Skull thickness offset in microns (default from config)")
	depth := flag.Float64("depth", 0, "Insertion depth in microns; omit to skip the top grid")
	radius := flag.Int("radius", 0, "Marker radius in pixels (default from config)")
	outputDir := flag.String("output", "", "Directory for the rendered review grids (default from config)")
	legacyAngle := flag.Bool("legacy-angle", false, "Use the legacy negated rotation sense")
	flag.Parse()

	// Track which flags were actually supplied; zero is a valid value for
	// every coordinate, so presence matters
	seen := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })

	if !seen["ap"] || !seen["ml"] || !seen["dv"] || !seen["angle"] {
		fmt.Fprintln(os.Stderr, "Error: -ap, -ml, -dv and -angle are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Output.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := planner.DefaultOptions()
	opts.SpanMicrons = cfg.Implant.SpanMicrons
	opts.SkullMicrons = cfg.Implant.SkullMicrons
	opts.MarkerRadius = cfg.Implant.MarkerRadius
	opts.NegateAngle = *legacyAngle
	if seen["span"] {
		opts.SpanMicrons = *span
	}
	if seen["skull"] {
		opts.SkullMicrons = *skull
	}
	if seen["radius"] {
		opts.MarkerRadius = *radius
	}
	if seen["depth"] {
		d := *depth
		opts.DepthMicrons = &d
	}

	dir := cfg.Output.Dir
	if *outputDir != "" {
		dir = *outputDir
	}

	fmt.Println("================================")
	fmt.Println("STEREOTAXIC IMPLANT TARGET PLANNER")
	fmt.Println("Rat brain atlas slice review")
	fmt.Println("================================")

	engine := overlay.NewDefaultEngine()
	client := atlas.NewClient(cfg.Atlas.BaseURL, time.Duration(cfg.Atlas.TimeoutSeconds)*time.Second, engine, log)
	p := planner.New(client, engine, log)

	fmt.Printf("Planning implant at AP=%.3f ML=%.3f DV=%.3f, angle %g°...\n", *ap, *ml, *dv, *angle)
	startTime := time.Now()
	result, err := p.Plan(context.Background(), *ap, *ml, *dv, *angle, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Planning failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nLookups completed in %.2f seconds\n\n", time.Since(startTime).Seconds())

	fmt.Println("Bottom (tip) targets:")
	printTargets(result.BottomTargets.Points())
	if result.TopTargets != nil {
		fmt.Println("Top (entry) targets:")
		printTargets(result.TopTargets.Points())
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	bottomPath := filepath.Join(dir, "bottom_grid.jpg")
	if err := review.SaveGrid(result.Bottom, result.BottomTitle(), bottomPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save bottom grid: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Bottom review grid saved to: %s\n", bottomPath)

	// A top grid exists only when an insertion depth was requested
	if result.Top != nil {
		topPath := filepath.Join(dir, "top_grid.jpg")
		if err := review.SaveGrid(result.Top, result.TopTitle(), topPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save top grid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Top review grid saved to: %s\n", topPath)
	}
}

func printTargets(points []geometry.Point3D) {
	labels := []string{"left", "center", "right"}
	for i, pt := range points {
		fmt.Printf("  %-6s %s\n", labels[i], pt.String())
	}
}
