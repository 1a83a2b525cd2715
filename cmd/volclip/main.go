package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"volclip/pkg/clipping"
	"volclip/pkg/config"
	"volclip/pkg/session"
	"volclip/pkg/visualization"
	"volclip/pkg/volume"
)

// clipScript is the YAML document accepted by -script: an ordered list of
// region edits applied to the session in sequence.
type clipScript struct {
	Edits []scriptEdit `yaml:"edits"`
}

// scriptEdit describes a single region edit: a closed loop of world-space
// points, the extrusion normal, and the removal mode.
type scriptEdit struct {
	Points [][3]float64 `yaml:"points"`
	Normal [3]float64   `yaml:"normal"`
	Mode   string       `yaml:"mode"`
}

func (e scriptEdit) boundary() clipping.Boundary {
	pts := make([]mgl64.Vec3, len(e.Points))
	for i, p := range e.Points {
		pts[i] = mgl64.Vec3{p[0], p[1], p[2]}
	}
	return clipping.Boundary{
		Points: pts,
		Normal: mgl64.Vec3{e.Normal[0], e.Normal[1], e.Normal[2]},
	}
}

func loadScript(path string) (*clipScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading clip script: %w", err)
	}
	var script clipScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing clip script: %w", err)
	}
	return &script, nil
}

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing a DICOM series (empty: generate a demo volume)")
	configPath := flag.String("config", "volclip.yaml", "Configuration file path")
	scriptPath := flag.String("script", "", "YAML clip script to apply")
	outputDir := flag.String("output", "derived_slices", "Directory to save derived slice images")
	axis := flag.String("axis", "z", "Axis for slice export (x, y, or z)")
	undoSteps := flag.Int("undo", 0, "Number of edits to undo after the script runs")
	redoSteps := flag.Int("redo", 0, "Number of undone edits to redo afterwards")
	demoSize := flag.Int("demo-size", 0, "Demo volume edge length (0: use the configured size)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *demoSize > 0 {
		cfg.Output.DemoSize = *demoSize
	}

	// Load the source volume
	var vol *volume.Volume
	if *inputDir == "" {
		fmt.Printf("No input directory given, generating a %d^3 demo volume\n", cfg.Output.DemoSize)
		vol, err = volume.NewDemo(cfg.Output.DemoSize)
		if err != nil {
			log.Fatalf("Failed to generate demo volume: %v", err)
		}
	} else {
		fmt.Printf("Loading DICOM series from: %s\n", *inputDir)
		vol, err = volume.LoadDICOMSeries(*inputDir)
		if err != nil {
			log.Fatalf("Failed to load DICOM series: %v", err)
		}
	}

	lo, hi := vol.ScalarRange()
	fmt.Printf("Loaded volume: %dx%dx%d voxels, scalar range [%d, %d]\n",
		vol.Nx, vol.Ny, vol.Nz, lo, hi)

	sess, err := session.New(vol, cfg.Clipping.MaxUndo)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	fmt.Printf("Display window: level=%.0f width=%.0f\n", sess.Window().Level, sess.Window().Width)

	// Apply the scripted edits in order
	if *scriptPath != "" {
		script, err := loadScript(*scriptPath)
		if err != nil {
			log.Fatalf("Failed to load clip script: %v", err)
		}
		fmt.Printf("\nApplying %d scripted edits...\n", len(script.Edits))

		for i, edit := range script.Edits {
			mode, err := clipping.ParseMode(edit.Mode)
			if err != nil {
				log.Fatalf("Edit %d: %v", i+1, err)
			}
			if err := sess.ApplyRegion(edit.boundary(), mode); err != nil {
				log.Fatalf("Edit %d failed: %v", i+1, err)
			}
			fmt.Printf("Edit %d (%s): %d voxels hidden so far\n", i+1, mode, sess.HiddenVoxels())
		}
	}

	// Walk the history back if requested
	for i := 0; i < *undoSteps; i++ {
		ok, err := sess.Undo()
		if err != nil {
			log.Fatalf("Undo failed: %v", err)
		}
		if !ok {
			fmt.Println("Nothing left to undo")
			break
		}
		fmt.Printf("Undo %d: %d voxels hidden\n", i+1, sess.HiddenVoxels())
	}

	for i := 0; i < *redoSteps; i++ {
		ok, err := sess.Redo()
		if err != nil {
			log.Fatalf("Redo failed: %v", err)
		}
		if !ok {
			fmt.Println("Nothing left to redo")
			break
		}
		fmt.Printf("Redo %d: %d voxels hidden\n", i+1, sess.HiddenVoxels())
	}

	stats := sess.Stats()
	fmt.Printf("\nVisible voxels: %d\n", stats.Count)
	if stats.Count > 0 {
		fmt.Printf("Visible intensity: mean=%.1f stddev=%.1f range=[%d, %d]\n",
			stats.Mean, stats.StdDev, stats.Min, stats.Max)
	}

	// Export derived slices through the display window
	viewer := visualization.NewViewer(sess.Derived(), sess.Window(), cfg.Output.JPEGQuality)
	fmt.Printf("\nSaving %s-axis slices to: %s\n", *axis, *outputDir)
	if err := viewer.SaveSliceSequence(*axis, *outputDir); err != nil {
		log.Fatalf("Failed to save slices: %v", err)
	}
	fmt.Println("Slice export completed!")
}
