package gps

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"
)

// GPSDClient follows TPV and SKY reports from a gpsd daemon
type GPSDClient struct {
	client   *gpsd.Session
	host     string
	port     string
	position Position
	fixChan  chan Position
	mu       sync.RWMutex
}

// NewGPSDClient creates a client for gpsd at host:port
func NewGPSDClient(host, port string) *GPSDClient {
	return &GPSDClient{
		host:    host,
		port:    port,
		fixChan: make(chan Position, 10),
	}
}

func (g *GPSDClient) address() string {
	if g.host == "" || g.port == "" {
		return gpsd.DefaultAddress
	}
	return net.JoinHostPort(g.host, g.port)
}

func (g *GPSDClient) Start() error {
	client, err := gpsd.Dial(g.address())
	if err != nil {
		return fmt.Errorf("failed to connect to gpsd at %s: %w", g.address(), err)
	}
	g.client = client
	g.client.AddFilter("TPV", g.handleTPV)
	g.client.AddFilter("SKY", g.handleSKY)
	g.client.Watch()
	return nil
}

func (g *GPSDClient) handleTPV(r interface{}) {
	tpv, ok := r.(*gpsd.TPVReport)
	if !ok {
		return
	}
	// Modes 2 and 3 are 2D and 3D fixes
	if tpv.Mode < 2 || (tpv.Lat == 0 && tpv.Lon == 0) {
		return
	}

	g.mu.Lock()
	g.position = Position{
		Latitude:   tpv.Lat,
		Longitude:  tpv.Lon,
		Altitude:   tpv.Alt,
		Timestamp:  tpv.Time,
		FixQuality: 1,
		Satellites: g.position.Satellites,
	}
	pos := g.position
	g.mu.Unlock()

	select {
	case g.fixChan <- pos:
	default:
	}
}

// handleSKY records the satellite count, which TPV reports do not carry
func (g *GPSDClient) handleSKY(r interface{}) {
	sky, ok := r.(*gpsd.SKYReport)
	if !ok {
		return
	}
	g.mu.Lock()
	g.position.Satellites = len(sky.Satellites)
	g.mu.Unlock()
}

func (g *GPSDClient) WaitForFix(timeout time.Duration) (*Position, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case pos := <-g.fixChan:
		return &pos, nil
	case <-timer.C:
		return nil, fmt.Errorf("GPS fix timeout after %v", timeout)
	}
}

func (g *GPSDClient) CurrentPosition() (*Position, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.position.FixQuality == 0 {
		return nil, ErrNoFix
	}
	pos := g.position
	return &pos, nil
}

func (g *GPSDClient) Source() string { return "gpsd:" + g.address() }

func (g *GPSDClient) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}
