package hardware

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/plugin"
)

// SSDP constants per the UPnP device architecture.
const (
	ssdpMulticastAddr = "239.255.255.250:1900"
	ssdpSearchTarget  = "upnp:rootdevice"
	ssdpMaxDatagram   = 8192

	// searchWindow is how long responses to one M-SEARCH are collected
	// before the batch is delivered.
	searchWindow = 3 * time.Second
)

// SsdpTransport is the UPnP transport: it listens for unsolicited NOTIFY
// multicasts and performs M-SEARCH discovery rounds on behalf of plugins.
//
// It implements UpnpTransport; attach it with Bus.AttachUpnp.
type SsdpTransport struct {
	logger Logger

	mu       sync.Mutex
	handlers UpnpHandlers
	conn     *net.UDPConn
	done     chan struct{}
}

// NewSsdpTransport creates an unstarted SSDP transport.
func NewSsdpTransport() *SsdpTransport {
	return &SsdpTransport{logger: noopLogger{}}
}

// SetLogger sets the logger for the transport.
func (t *SsdpTransport) SetLogger(logger Logger) {
	t.logger = logger
}

// Enable joins the SSDP multicast group and starts delivering NOTIFY
// datagrams to the handlers.
func (t *SsdpTransport) Enable(handlers UpnpHandlers) error {
	addr, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr)
	if err != nil {
		return fmt.Errorf("resolving ssdp multicast address: %w", err)
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("joining ssdp multicast group: %w", err)
	}

	t.mu.Lock()
	t.handlers = handlers
	t.conn = conn
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.listen(conn)
	return nil
}

// Close leaves the multicast group and stops delivery.
func (t *SsdpTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	close(t.done)
	err := t.conn.Close()
	t.conn = nil
	return err
}

// listen forwards NOTIFY datagrams until the transport closes or a read
// fails.
func (t *SsdpTransport) listen(conn *net.UDPConn) {
	buf := make([]byte, ssdpMaxDatagram)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				t.logger.Warn("ssdp read failed", "error", err)
				return
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		if !bytes.HasPrefix(data, []byte("NOTIFY")) {
			continue
		}

		t.mu.Lock()
		notify := t.handlers.NotifyReceived
		t.mu.Unlock()
		if notify != nil {
			notify(data)
		}
	}
}

// Search performs one M-SEARCH discovery round for the given plugin. The
// responses collected within the search window are parsed and delivered as
// a single DiscoveryFinished batch attributed to that plugin.
func (t *SsdpTransport) Search(ctx context.Context, pluginID device.PluginID) error {
	dst, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr)
	if err != nil {
		return fmt.Errorf("resolving ssdp multicast address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("opening search socket: %w", err)
	}

	request := strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpMulticastAddr,
		"MAN: \"ssdp:discover\"",
		"MX: 2",
		"ST: " + ssdpSearchTarget,
		"", "",
	}, "\r\n")

	if _, err := conn.WriteToUDP([]byte(request), dst); err != nil {
		conn.Close()
		return fmt.Errorf("sending m-search: %w", err)
	}

	go t.collectResponses(ctx, conn, pluginID)
	return nil
}

// collectResponses reads search responses until the window closes, then
// hands the batch to the discovery handler.
func (t *SsdpTransport) collectResponses(ctx context.Context, conn *net.UDPConn, pluginID device.PluginID) {
	defer conn.Close()

	deadline := time.Now().Add(searchWindow)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetReadDeadline(deadline)

	var descriptors []plugin.UpnpDescriptor
	seen := make(map[string]struct{})
	buf := make([]byte, ssdpMaxDatagram)

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			break
		}
		descriptor, ok := parseSearchResponse(buf[:n])
		if !ok {
			continue
		}
		if _, dup := seen[descriptor.Location]; dup {
			continue
		}
		seen[descriptor.Location] = struct{}{}
		descriptors = append(descriptors, descriptor)
	}

	t.mu.Lock()
	finished := t.handlers.DiscoveryFinished
	t.mu.Unlock()
	if finished != nil {
		finished(descriptors, pluginID)
	}
}

// parseSearchResponse extracts a descriptor from an M-SEARCH response.
func parseSearchResponse(data []byte) (plugin.UpnpDescriptor, bool) {
	reader := bufio.NewReader(bytes.NewReader(data))
	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		return plugin.UpnpDescriptor{}, false
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return plugin.UpnpDescriptor{}, false
	}

	descriptor := plugin.UpnpDescriptor{
		Location: location,
		UUID:     usnUUID(resp.Header.Get("USN")),
	}
	return descriptor, true
}

// usnUUID extracts the uuid portion of a USN header value such as
// "uuid:abc::upnp:rootdevice".
func usnUUID(usn string) string {
	usn = strings.TrimPrefix(usn, "uuid:")
	if idx := strings.Index(usn, "::"); idx >= 0 {
		usn = usn[:idx]
	}
	return usn
}
