// Command panelcheck is a smoke-test utility that exercises a
// pixel.Surface with simple test patterns, independent of the
// scheduler/scroller (adapted from the teacher's matrix test-pattern
// tool).
package main

import (
	"flag"
	"log"
	"time"

	"github.com/ledmarquee/marqueed/internal/hw"
	"github.com/ledmarquee/marqueed/internal/pixel"
	"github.com/ledmarquee/marqueed/internal/types"
)

func main() {
	cols := flag.Int("cols", 32, "panel column count (32, 64, 96, or 128)")
	transportKind := flag.String("transport", "preview", "pixel transport: preview|nrz")
	nrzPin := flag.String("nrz-pin", "GPIO18", "GPIO pin name for the nrz transport")
	flag.Parse()

	var transport pixel.Transport
	switch *transportKind {
	case "nrz":
		t, err := hw.NewNRZTransport(*nrzPin)
		if err != nil {
			log.Fatalf("panelcheck: nrz transport: %v", err)
		}
		transport = t
	default:
		transport = hw.NewPreviewTransport()
	}

	panel := pixel.NewSurface(int(types.ClampPanelCols(*cols)), transport)
	panel.SetBrightness(128)

	patterns := []struct {
		name  string
		color types.RGB
	}{
		{"red", types.RGB{R: 255}},
		{"green", types.RGB{G: 255}},
		{"blue", types.RGB{B: 255}},
	}

	for _, p := range patterns {
		log.Printf("panelcheck: filling %s", p.name)
		fill(panel, p.color)
		if err := panel.Refresh(); err != nil {
			log.Fatalf("panelcheck: refresh: %v", err)
		}
		time.Sleep(2 * time.Second)
	}

	log.Println("panelcheck: alternating pixels")
	for row := 0; row < pixel.Rows; row++ {
		for col := 0; col < panel.Cols(); col++ {
			if (row+col)%2 == 0 {
				panel.SetPixel(row, col, types.RGB{R: 255, G: 255, B: 255})
			}
		}
	}
	if err := panel.Refresh(); err != nil {
		log.Fatalf("panelcheck: refresh: %v", err)
	}
	time.Sleep(2 * time.Second)

	log.Println("panelcheck: clearing")
	panel.Clear()
	if err := panel.Refresh(); err != nil {
		log.Fatalf("panelcheck: refresh: %v", err)
	}

	log.Println("panelcheck: done")
}

func fill(panel *pixel.Surface, c types.RGB) {
	panel.Clear()
	for row := 0; row < pixel.Rows; row++ {
		for col := 0; col < panel.Cols(); col++ {
			panel.SetPixel(row, col, c)
		}
	}
}
