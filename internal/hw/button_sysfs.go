package hw

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// SysfsButton is a fallback ButtonSource for platforms without
// gpiocdev, using the legacy /sys/class/gpio sysfs interface (adapted
// from the teacher's sysfs GPIO pin driver). It polls the pin value on
// a background ticker rather than blocking on an edge interrupt.
type SysfsButton struct {
	number int

	pollStop chan struct{}
	wg       sync.WaitGroup

	pending  int32
	lastEdge time.Time
	mu       sync.Mutex
}

// NewSysfsButton exports pin number as an input and starts polling it
// for falling edges, debounced to DebounceWindow.
func NewSysfsButton(number int) (*SysfsButton, error) {
	if err := sysfsExport(number); err != nil {
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, "hw: exporting gpio%d", number)
		}
	}
	time.Sleep(100 * time.Millisecond)
	if err := sysfsSetDirection(number, "in"); err != nil {
		return nil, errors.Wrapf(err, "hw: setting gpio%d direction", number)
	}

	b := &SysfsButton{number: number, pollStop: make(chan struct{})}
	b.wg.Add(1)
	go b.pollLoop()
	return b, nil
}

func (b *SysfsButton) pollLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	prev := 1 // idle-high with pull-up wiring
	for {
		select {
		case <-b.pollStop:
			return
		case <-ticker.C:
			v, err := sysfsReadValue(b.number)
			if err != nil {
				continue
			}
			if prev == 1 && v == 0 {
				b.mu.Lock()
				now := time.Now()
				if now.Sub(b.lastEdge) >= DebounceWindow {
					b.lastEdge = now
					atomic.StoreInt32(&b.pending, 1)
				}
				b.mu.Unlock()
			}
			prev = v
		}
	}
}

// TakeToggle implements ButtonSource.
func (b *SysfsButton) TakeToggle() bool {
	return atomic.SwapInt32(&b.pending, 0) == 1
}

// Close implements ButtonSource.
func (b *SysfsButton) Close() error {
	close(b.pollStop)
	b.wg.Wait()
	return sysfsUnexport(b.number)
}

func sysfsExport(number int) error {
	f, err := os.OpenFile("/sys/class/gpio/export", os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(strconv.Itoa(number))
	return err
}

func sysfsUnexport(number int) error {
	f, err := os.OpenFile("/sys/class/gpio/unexport", os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(strconv.Itoa(number))
	return err
}

func sysfsSetDirection(number int, direction string) error {
	path := fmt.Sprintf("/sys/class/gpio/gpio%d/direction", number)
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(direction)
	return err
}

func sysfsReadValue(number int) (int, error) {
	path := fmt.Sprintf("/sys/class/gpio/gpio%d/value", number)
	f, err := os.OpenFile(path, os.O_RDONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var value int
	if _, err := fmt.Fscanf(f, "%d", &value); err != nil {
		return 0, err
	}
	return value, nil
}
