// Command marqueed is the marquee daemon: it owns the display
// timeline, drives the scroller/scheduler cooperative loop (spec.md
// §5), and exposes a minimal health endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledmarquee/marqueed/internal/cache"
	"github.com/ledmarquee/marqueed/internal/config"
	"github.com/ledmarquee/marqueed/internal/glyph"
	"github.com/ledmarquee/marqueed/internal/hw"
	"github.com/ledmarquee/marqueed/internal/pixel"
	"github.com/ledmarquee/marqueed/internal/scheduler"
	"github.com/ledmarquee/marqueed/internal/scroll"
	"github.com/ledmarquee/marqueed/internal/wifi"
)

var (
	configPath  = flag.String("config", "/data/config.json", "path to settings JSON file")
	glyphPath   = flag.String("glyphs", "/data/font.bin", "path to the 475-byte glyph blob")
	cacheDir    = flag.String("cache-dir", "/cache", "directory for per-source cache files")
	port        = flag.Int("port", 8080, "health endpoint port")
	transport   = flag.String("transport", "preview", "pixel transport: preview|nrz")
	nrzPin      = flag.String("nrz-pin", "GPIO18", "GPIO pin name for the nrz transport")
	buttonChip  = flag.String("button-chip", "", "gpiocdev chip for the config button (empty disables)")
	buttonLine  = flag.Int("button-line", 0, "gpiocdev line offset for the config button")
	buttonSysfs = flag.Int("button-sysfs-pin", -1, "sysfs GPIO number fallback for the config button (-1 disables)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("marqueed: loading config: %v", err)
	}

	glyphs := glyph.Load(*glyphPath)
	if glyphs.Degraded() {
		log.Printf("marqueed: glyph blob unavailable or invalid, using fallback table")
	}

	pixelTransport, err := buildTransport(*transport, *nrzPin)
	if err != nil {
		log.Fatalf("marqueed: building pixel transport: %v", err)
	}

	panel := pixel.NewSurface(cfg.PanelCols, pixelTransport)
	panel.SetBrightness(cfg.Brightness)

	button := buildButton(*buttonChip, *buttonLine, *buttonSysfs)
	defer button.Close()

	store, err := cache.NewStore(*cacheDir)
	if err != nil {
		log.Fatalf("marqueed: opening cache store: %v", err)
	}

	scroller := scroll.New(panel, glyphs)
	scroller.SetSpeed(cfg.Speed)

	radio := wifi.NewLinkManager()
	sched := scheduler.New(store, scroller, radio)
	sched.SetSettings(cfg)
	sched.Init()

	srv := startHealthServer(*port, sched)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stop := make(chan struct{})
	go runLoop(scroller, sched, button, panel, stop)

	<-sigCh
	log.Println("marqueed: shutting down")
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("marqueed: health server shutdown: %v", err)
	}
}

// runLoop is the cooperative loop (spec.md §5): scroller.tick → delay
// → inspect button flag → possibly advance scheduler.
func runLoop(scroller *scroll.Scroller, sched *scheduler.Scheduler, button hw.ButtonSource, panel *pixel.Surface, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		cycleComplete, delayMS := scroller.Tick()
		if err := panel.Refresh(); err != nil {
			log.Printf("marqueed: panel refresh: %v", err)
		}
		time.Sleep(time.Duration(delayMS) * time.Millisecond)

		if button.TakeToggle() {
			sched.OnButtonToggle()
		}
		if cycleComplete {
			sched.OnCycleComplete()
		}
	}
}

func buildTransport(kind, pin string) (pixel.Transport, error) {
	switch kind {
	case "nrz":
		return hw.NewNRZTransport(pin)
	case "preview", "":
		return hw.NewPreviewTransport(), nil
	default:
		return nil, fmt.Errorf("marqueed: unknown transport %q", kind)
	}
}

func buildButton(chip string, line int, sysfsPin int) hw.ButtonSource {
	if chip != "" {
		b, err := hw.NewGPIOCdevButton(chip, line)
		if err == nil {
			return b
		}
		log.Printf("marqueed: gpiocdev button unavailable (%v), trying sysfs fallback", err)
	}
	if sysfsPin >= 0 {
		b, err := hw.NewSysfsButton(sysfsPin)
		if err == nil {
			return b
		}
		log.Printf("marqueed: sysfs button unavailable, config mode toggle disabled")
	}
	return hw.NullButtonSource{}
}

func startHealthServer(port int, sched *scheduler.Scheduler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"config_mode":%t,"item_live":%t}`, sched.ConfigMode(), sched.ItemLive())
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("marqueed: health server: %v", err)
		}
	}()
	return srv
}
