// Package netaddr finds the IPv4 address the host uses for outbound traffic.
package netaddr

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// DefaultTarget is dialled over UDP; no packet is sent.
const DefaultTarget = "8.8.8.8:53"

// Texts shown instead of an address.
const (
	NotConnected    = "NOT CONNECTED"
	CantConnect     = "CAN'T CONNECT"
	CannotDetermine = "CANNOT DETERMINE IP"
)

// Resolver looks up the outbound address.
type Resolver struct {
	Target string
	Logger *slog.Logger

	dial       func(ctx context.Context, network, address string) (net.Conn, error)
	interfaces func(ctx context.Context) (psnet.InterfaceStatList, error)
}

func New(target string, logger *slog.Logger) *Resolver {
	if target == "" {
		target = DefaultTarget
	}
	if logger == nil {
		logger = slog.Default()
	}
	var d net.Dialer
	return &Resolver{
		Target:     target,
		Logger:     logger,
		dial:       d.DialContext,
		interfaces: psnet.InterfacesWithContext,
	}
}

// Lookup returns the local IPv4 address of a UDP socket connected to the
// target. When the route is missing it falls back to the first up,
// non-loopback interface address. It never fails; problems come back as
// one of the sentinel texts.
func (r *Resolver) Lookup(ctx context.Context) string {
	conn, err := r.dial(ctx, "udp4", r.Target)
	if err != nil {
		r.Logger.DebugContext(ctx, "outbound dial failed", "target", r.Target, "err", err)
		if ip := r.fromInterfaces(ctx); ip != "" {
			return ip
		}
		if isSocketError(err) {
			return NotConnected
		}
		return CantConnect
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return CannotDetermine
	}
	return addr.IP.To4().String()
}

func (r *Resolver) fromInterfaces(ctx context.Context) string {
	ifaces, err := r.interfaces(ctx)
	if err != nil {
		r.Logger.DebugContext(ctx, "list interfaces", "err", err)
		return ""
	}
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			ip, _, err := net.ParseCIDR(a.Addr)
			if err != nil {
				ip = net.ParseIP(a.Addr)
			}
			if ip == nil || ip.IsLoopback() || ip.To4() == nil {
				continue
			}
			return ip.To4().String()
		}
	}
	return ""
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

// isSocketError reports whether the socket itself could not be created,
// as opposed to the target being unreachable.
func isSocketError(err error) bool {
	var sys *os.SyscallError
	return errors.As(err, &sys) && sys.Syscall == "socket"
}
