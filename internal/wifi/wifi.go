// Package wifi implements the WiFi manager collaborator (spec.md §6):
// radio duty-cycling and IP address reporting for the station-mode
// network link the scheduler gates its refresh and config-mode windows
// on.
package wifi

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Mode mirrors the device's station/soft-AP radio mode.
type Mode int

const (
	ModeStation Mode = iota
	ModeSoftAP
)

// ConnectTimeout bounds a radio-on association attempt (spec.md §5).
const ConnectTimeout = 5 * time.Second

// RadioManager is the WiFi manager API (spec.md §6): radio_on/radio_off
// plus mode/IP introspection used for the "Config Mode     <ip>" status
// string.
type RadioManager interface {
	RadioOn() bool
	RadioOff()
	Mode() Mode
	IP() string
}

// LinkManager is a RadioManager grounded on the host's existing network
// interfaces: "radio on" finds the first non-loopback interface holding
// a routable IPv4 address (adapted from the teacher's network interface
// scanner), rather than driving a real radio — there is no WiFi
// hardware to associate with in this environment.
type LinkManager struct {
	mu      sync.Mutex
	mode    Mode
	powered bool
	ip      string
}

// NewLinkManager creates a RadioManager in station mode, radio off.
func NewLinkManager() *LinkManager {
	return &LinkManager{mode: ModeStation}
}

// RadioOn brings the radio up and resolves the current station IP,
// blocking up to ConnectTimeout. Returns false if no routable address
// is found in time.
func (m *LinkManager) RadioOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := time.Now().Add(ConnectTimeout)
	for {
		ip, err := firstRoutableIPv4()
		if err == nil {
			m.powered = true
			m.ip = ip
			return true
		}
		if time.Now().After(deadline) {
			m.powered = true
			m.ip = ""
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// RadioOff powers the radio down; IP() returns "" until the next
// successful RadioOn.
func (m *LinkManager) RadioOff() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powered = false
	m.ip = ""
}

// Mode returns the current radio mode.
func (m *LinkManager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// IP returns the last-resolved station IP, or "" if the radio is off
// or no address was found.
func (m *LinkManager) IP() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.powered {
		return ""
	}
	return m.ip
}

// firstRoutableIPv4 scans local interfaces for the first up,
// non-loopback interface carrying a routable (non-link-local) IPv4
// address.
func firstRoutableIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, "wifi: listing interfaces")
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
				continue
			}
			return ip4.String(), nil
		}
	}
	return "", errors.New("wifi: no routable IPv4 interface")
}
