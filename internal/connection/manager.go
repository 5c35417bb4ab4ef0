package connection

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// GatewayInfo holds information about a connected field gateway
type GatewayInfo struct {
	ConnectionID  string
	FieldID       string
	Farm          string
	ConnectedAt   time.Time
	LastHeardFrom time.Time
	Conn          net.Conn
	mu            sync.RWMutex
}

// UpdateLastHeardFrom updates the last activity timestamp
func (g *GatewayInfo) UpdateLastHeardFrom() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.LastHeardFrom = time.Now()
}

// GetLastHeardFrom returns the last activity timestamp
func (g *GatewayInfo) GetLastHeardFrom() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.LastHeardFrom
}

// Manager manages all active gateway connections
type Manager struct {
	gateways map[string]*GatewayInfo // key: connection_id
	byField  map[string][]string     // key: field_id, value: []connection_id
	mu       sync.RWMutex
	maxConns int
}

// NewManager creates a new connection manager
func NewManager(maxConnections int) *Manager {
	return &Manager{
		gateways: make(map[string]*GatewayInfo),
		byField:  make(map[string][]string),
		maxConns: maxConnections,
	}
}

// Register adds a new gateway connection
func (m *Manager) Register(connectionID, fieldID, farm string, conn net.Conn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.gateways) >= m.maxConns {
		return ErrMaxConnectionsReached
	}

	if _, exists := m.gateways[connectionID]; exists {
		return fmt.Errorf("connection ID %s already registered", connectionID)
	}

	now := time.Now()
	info := &GatewayInfo{
		ConnectionID:  connectionID,
		FieldID:       fieldID,
		Farm:          farm,
		ConnectedAt:   now,
		LastHeardFrom: now,
		Conn:          conn,
	}

	m.gateways[connectionID] = info
	m.byField[fieldID] = append(m.byField[fieldID], connectionID)

	return nil
}

// Unregister removes a gateway connection
func (m *Manager) Unregister(connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gateway, exists := m.gateways[connectionID]
	if !exists {
		return fmt.Errorf("connection ID %s not found", connectionID)
	}

	fieldID := gateway.FieldID
	if connIDs, ok := m.byField[fieldID]; ok {
		for i, id := range connIDs {
			if id == connectionID {
				m.byField[fieldID] = append(connIDs[:i], connIDs[i+1:]...)
				break
			}
		}
		if len(m.byField[fieldID]) == 0 {
			delete(m.byField, fieldID)
		}
	}

	delete(m.gateways, connectionID)

	return nil
}

// Get retrieves gateway information by connection ID
func (m *Manager) Get(connectionID string) (*GatewayInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gateway, exists := m.gateways[connectionID]
	return gateway, exists
}

// GetByField retrieves all connection IDs for a field
func (m *Manager) GetByField(fieldID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	connIDs := m.byField[fieldID]
	// Return a copy to avoid race conditions
	result := make([]string, len(connIDs))
	copy(result, connIDs)
	return result
}

// UpdateActivity updates the last heard from timestamp for a connection
func (m *Manager) UpdateActivity(connectionID string) error {
	m.mu.RLock()
	gateway, exists := m.gateways[connectionID]
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("connection ID %s not found", connectionID)
	}

	gateway.UpdateLastHeardFrom()
	return nil
}

// GetInactiveConnections returns connection IDs that haven't been heard from in the given duration
func (m *Manager) GetInactiveConnections(timeout time.Duration) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var inactive []string

	for connID, gateway := range m.gateways {
		if now.Sub(gateway.GetLastHeardFrom()) > timeout {
			inactive = append(inactive, connID)
		}
	}

	return inactive
}

// Count returns the total number of active connections
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.gateways)
}

// CountByField returns the number of active connections per field
func (m *Manager) CountByField() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]int)
	for fieldID, connIDs := range m.byField {
		result[fieldID] = len(connIDs)
	}
	return result
}

// Stats returns statistics about the connection manager
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		TotalConnections: len(m.gateways),
		UniqueFields:     len(m.byField),
		MaxConnections:   m.maxConns,
	}
}

// ManagerStats contains statistics about the connection manager
type ManagerStats struct {
	TotalConnections int
	UniqueFields     int
	MaxConnections   int
}

var (
	ErrMaxConnectionsReached = &ConnectionError{"maximum connections reached"}
)

// ConnectionError represents a connection error
type ConnectionError struct {
	msg string
}

func (e *ConnectionError) Error() string {
	return e.msg
}
