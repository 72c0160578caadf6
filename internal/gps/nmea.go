package gps

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"go.bug.st/serial"
)

// NMEASerial reads NMEA sentences from a serial GPS receiver
type NMEASerial struct {
	port     io.ReadWriteCloser
	name     string
	position Position
	fixChan  chan Position
	mu       sync.RWMutex
	debug    bool
}

// NewNMEASerial opens the serial port at the given baud rate
func NewNMEASerial(portName string, baudRate int) (*NMEASerial, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPS port %s: %w", portName, err)
	}

	n := newNMEA(port, portName)
	n.enableUbloxNMEA()
	return n, nil
}

func newNMEA(port io.ReadWriteCloser, name string) *NMEASerial {
	return &NMEASerial{
		port:    port,
		name:    name,
		fixChan: make(chan Position, 10),
	}
}

// enableUbloxNMEA asks u-blox receivers to emit GGA and RMC sentences on
// UART1. Other receivers ignore the UBX frames.
func (n *NMEASerial) enableUbloxNMEA() {
	ggaCmd := []byte{0xB5, 0x62, 0x06, 0x01, 0x08, 0x00, 0xF0, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 0x31}
	rmcCmd := []byte{0xB5, 0x62, 0x06, 0x01, 0x08, 0x00, 0xF0, 0x04, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x05, 0x3B}

	n.port.Write(ggaCmd)
	time.Sleep(100 * time.Millisecond)
	n.port.Write(rmcCmd)
	time.Sleep(100 * time.Millisecond)

	log.Printf("GPS: sent u-blox configuration for NMEA GGA/RMC output")
}

// SetDebug enables logging of every received sentence
func (n *NMEASerial) SetDebug(debug bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.debug = debug
}

func (n *NMEASerial) Start() error {
	go n.readLoop(n.port)
	return nil
}

func (n *NMEASerial) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		n.handleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Printf("GPS: serial read error: %v", err)
	}
}

func (n *NMEASerial) handleLine(line string) {
	if len(line) == 0 || line[0] != '$' {
		return
	}
	// UBX binary frames share the port; skip anything that is not printable
	for _, r := range line {
		if r < 32 || r > 126 {
			return
		}
	}

	n.mu.RLock()
	debug := n.debug
	n.mu.RUnlock()

	sentence, err := nmea.Parse(line)
	if err != nil {
		if debug {
			log.Printf("GPS: NMEA parse error: %v (line: %s)", err, line)
		}
		return
	}

	switch s := sentence.(type) {
	case nmea.GGA:
		n.processGGA(s)
	case nmea.RMC:
		n.processRMC(s)
	default:
		if debug {
			log.Printf("GPS: ignoring %T sentence", s)
		}
	}
}

func fixQuality(q string) int {
	switch q {
	case nmea.GPS:
		return 1
	case nmea.DGPS:
		return 2
	case nmea.PPS:
		return 3
	case nmea.RTK:
		return 4
	case nmea.FRTK:
		return 5
	case nmea.Manual:
		return 7
	default:
		return 0
	}
}

func (n *NMEASerial) processGGA(s nmea.GGA) {
	quality := fixQuality(s.FixQuality)
	if quality == 0 {
		return
	}

	pos := Position{
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Altitude:   s.Altitude,
		Timestamp:  time.Now(),
		FixQuality: quality,
		Satellites: int(s.NumSatellites),
	}

	n.mu.Lock()
	n.position = pos
	n.mu.Unlock()

	select {
	case n.fixChan <- pos:
	default:
	}
}

// processRMC refreshes the horizontal position of an existing GGA fix
func (n *NMEASerial) processRMC(s nmea.RMC) {
	if s.Validity != nmea.ValidRMC {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.position.FixQuality == 0 {
		return
	}

	ts := time.Now()
	if s.Time.Valid {
		ts = time.Date(ts.Year(), ts.Month(), ts.Day(),
			s.Time.Hour, s.Time.Minute, s.Time.Second,
			int(s.Time.Millisecond)*int(time.Millisecond), time.UTC)
	}
	n.position.Latitude = s.Latitude
	n.position.Longitude = s.Longitude
	n.position.Timestamp = ts
}

func (n *NMEASerial) WaitForFix(timeout time.Duration) (*Position, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case pos := <-n.fixChan:
			if pos.FixQuality > 0 {
				return &pos, nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("GPS fix timeout after %v; check that the receiver outputs NMEA GGA/RMC sentences", timeout)
		}
	}
}

func (n *NMEASerial) CurrentPosition() (*Position, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.position.FixQuality == 0 {
		return nil, ErrNoFix
	}
	pos := n.position
	return &pos, nil
}

func (n *NMEASerial) Source() string { return "nmea:" + n.name }

func (n *NMEASerial) Close() error {
	if n.port != nil {
		return n.port.Close()
	}
	return nil
}
