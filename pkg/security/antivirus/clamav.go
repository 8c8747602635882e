package antivirus

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// clamd caps a single INSTREAM chunk well above this
const chunkSize = 64 << 10

// ClamAVScanner connects to clamd daemon for malware scanning
type ClamAVScanner struct {
	address string        // TCP address (host:port) or Unix socket path
	timeout time.Duration // Connection and scan timeout
}

var _ Scanner = (*ClamAVScanner)(nil)

// NewClamAVScanner creates a ClamAV scanner
// address: TCP "localhost:3310" or Unix socket "/var/run/clamav/clamd.sock"
// timeout: defaults to 30 seconds
func NewClamAVScanner(address string, timeout time.Duration) *ClamAVScanner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClamAVScanner{
		address: address,
		timeout: timeout,
	}
}

func (c *ClamAVScanner) Name() string {
	return "clamav"
}

func (c *ClamAVScanner) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	network := "tcp"
	if strings.HasPrefix(c.address, "/") {
		network = "unix"
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, c.address)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

// Available sends zPING and expects PONG
func (c *ClamAVScanner) Available(ctx context.Context) bool {
	conn, err := c.dial(ctx, 5*time.Second)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return false
	}
	reply, err := readReply(conn)
	if err != nil {
		return false
	}
	return reply == "PONG"
}

// Scan streams the file to clamd with zINSTREAM
func (c *ClamAVScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	result := ScanResult{ScannerName: c.Name()}
	fail := func(err error) ScanResult {
		result.Infected = true // Fail closed
		result.Error = err
		return result
	}

	conn, err := c.dial(ctx, c.timeout)
	if err != nil {
		return fail(fmt.Errorf("failed to connect to clamd: %w", err))
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString("zINSTREAM\x00"); err != nil {
		return fail(fmt.Errorf("failed to send command: %w", err))
	}

	// Each chunk is prefixed by its length as a big-endian uint32;
	// a zero-length chunk ends the stream
	buf := make([]byte, chunkSize)
	var size [4]byte
	for {
		n, readErr := data.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(size[:], uint32(n))
			if _, err := w.Write(size[:]); err != nil {
				return fail(fmt.Errorf("failed to send size: %w", err))
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return fail(fmt.Errorf("failed to send file data: %w", err))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("failed to read file data: %w", readErr))
		}
	}

	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := w.Write(size[:]); err != nil {
		return fail(fmt.Errorf("failed to send end marker: %w", err))
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("failed to send file data: %w", err))
	}

	reply, err := readReply(conn)
	if err != nil {
		return fail(fmt.Errorf("failed to read response: %w", err))
	}

	// Clean: "stream: OK"
	// Infected: "stream: Eicar-Signature FOUND"
	// Error: "INSTREAM size limit exceeded. ERROR"
	switch {
	case strings.HasSuffix(reply, "FOUND"):
		result.Infected = true
		threat := reply
		if _, after, ok := strings.Cut(reply, ":"); ok {
			threat = after
		}
		result.ThreatName = strings.TrimSpace(strings.TrimSuffix(threat, "FOUND"))
	case strings.HasSuffix(reply, "ERROR"):
		return fail(fmt.Errorf("scan error for %s: %s", filename, reply))
	case !strings.HasSuffix(reply, "OK"):
		return fail(fmt.Errorf("unexpected clamd reply for %s: %q", filename, reply))
	}

	return result
}

// readReply reads one null-terminated reply (z-prefixed commands)
func readReply(conn net.Conn) (string, error) {
	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && !(err == io.EOF && reply != "") {
		return "", err
	}
	return strings.TrimSpace(strings.TrimRight(reply, "\x00")), nil
}
