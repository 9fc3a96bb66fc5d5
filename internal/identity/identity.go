// Package identity derives the host identity reported on every heartbeat and
// acknowledgment. Nothing is cached: each call re-reads the host.
package identity

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/zldap/agent/pkg/models"
)

// Resolver builds a models.HostIdentity from the running host
type Resolver struct {
	logger *zap.Logger

	hostInfo   func() (*host.InfoStat, error)
	interfaces func() (net.InterfaceStatList, error)
	hostname   func() (string, error)
}

// New creates a Resolver backed by gopsutil
func New(logger *zap.Logger) *Resolver {
	return &Resolver{
		logger:     logger.Named("identity"),
		hostInfo:   host.Info,
		interfaces: net.Interfaces,
		hostname:   os.Hostname,
	}
}

// Resolve returns the current host identity. Lookup failures degrade to
// empty fields or the pseudo-MAC; they are never returned as errors.
func (r *Resolver) Resolve() models.HostIdentity {
	var id models.HostIdentity

	info, err := r.hostInfo()
	if err != nil {
		r.logger.Warn("failed to read host info", zap.Error(err))
	} else {
		id.Hostname = info.Hostname
		id.OSDescriptor = osDescriptor(info)
	}

	if id.Hostname == "" {
		if name, err := r.hostname(); err == nil {
			id.Hostname = name
		} else {
			r.logger.Warn("failed to read hostname", zap.Error(err))
		}
	}

	if mac, ok := r.hardwareMAC(); ok {
		id.MACAddress = mac
	} else {
		r.logger.Warn("no hardware MAC address found, using pseudo-MAC derived from hostname",
			zap.String("hostname", id.Hostname),
		)
		id.MACAddress = PseudoMAC(id.Hostname)
	}

	return id
}

// hardwareMAC returns the first non-loopback interface address that is not all zeros
func (r *Resolver) hardwareMAC() (string, bool) {
	ifaces, err := r.interfaces()
	if err != nil {
		r.logger.Debug("failed to list network interfaces", zap.Error(err))
		return "", false
	}

	for _, iface := range ifaces {
		if isLoopback(iface) {
			continue
		}
		mac := strings.ToLower(strings.TrimSpace(iface.HardwareAddr))
		if mac == "" || isZeroMAC(mac) {
			continue
		}
		return mac, true
	}
	return "", false
}

func isLoopback(iface net.InterfaceStat) bool {
	for _, flag := range iface.Flags {
		if flag == "loopback" {
			return true
		}
	}
	return false
}

func isZeroMAC(mac string) bool {
	return strings.Trim(mac, "0:-") == ""
}

// osDescriptor renders "<platform> <version> <arch>", skipping empty parts
func osDescriptor(info *host.InfoStat) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{info.Platform, info.PlatformVersion, info.KernelArch} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return info.OS
	}
	return strings.Join(parts, " ")
}
