package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"deskmates.dev/internal/config"
	"deskmates.dev/internal/scene"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: generate <output-dir>")
		fmt.Println("       generate <output-dir> <asset-dir>  (also check sprites under asset-dir)")
		os.Exit(1)
	}

	outputDir := os.Args[1]

	// Ensure output directory exists
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Scene.LayoutPath = filepath.Join(outputDir, "office.yaml")

	layout := scene.DefaultLayout()
	groups := make([]string, 0, len(layout.Groups))
	for _, g := range layout.Groups {
		groups = append(groups, g.Name)
	}
	manifest := scene.DefaultManifest(cfg.Scene.Characters, groups)

	failed := false

	fmt.Printf("Writing layout (%d desk groups, %d obstacles)...\n", len(layout.Groups), len(layout.Obstacles))
	data, err := config.MarshalLayout(layout)
	if err == nil {
		err = os.WriteFile(cfg.Scene.LayoutPath, data, 0644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ERROR: %v\n", err)
		failed = true
	} else {
		fmt.Printf("  Created %s\n", cfg.Scene.LayoutPath)
	}

	fmt.Printf("Writing manifest (%d character sets)...\n", len(manifest.Characters))
	data, err = json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(outputDir, "manifest.json"), data, 0644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ERROR: %v\n", err)
		failed = true
	} else {
		fmt.Printf("  Created manifest.json (%d files)\n", len(manifest.Paths()))
	}

	fmt.Println("Writing config...")
	data, err = yaml.Marshal(cfg)
	if err == nil {
		err = os.WriteFile(filepath.Join(outputDir, "deskmates.yaml"), data, 0644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ERROR: %v\n", err)
		failed = true
	} else {
		fmt.Println("  Created deskmates.yaml")
	}

	if len(os.Args) > 2 {
		fmt.Printf("Checking assets under %s...\n", os.Args[2])
		if err := manifest.Verify(os.DirFS(os.Args[2])); err != nil {
			fmt.Fprintf(os.Stderr, "  ERROR: %v\n", err)
			failed = true
		} else {
			fmt.Println("  All assets present")
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("Done!")
}
