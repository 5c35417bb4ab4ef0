package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/connection"
	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/internal/queue"
	"github.com/agrosense/irrigation-server/internal/timer"
	"github.com/agrosense/irrigation-server/pkg/config"
)

// TCPServer accepts field-gateway connections and forwards their soil
// readings to the readings topic.
type TCPServer struct {
	config       *config.TCPServerConfig
	connManager  *connection.Manager
	timerManager *timer.Manager
	producer     *queue.Producer
	listener     net.Listener
	log          *logrus.Entry
	wg           sync.WaitGroup
	stopCh       chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewTCPServer creates a new TCP server
func NewTCPServer(cfg *config.TCPServerConfig, connManager *connection.Manager, timerManager *timer.Manager, producer *queue.Producer, log *logrus.Logger) *TCPServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &TCPServer{
		config:       cfg,
		connManager:  connManager,
		timerManager: timerManager,
		producer:     producer,
		log:          log.WithField("component", "tcp-server"),
		stopCh:       make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start starts the TCP server
func (s *TCPServer) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	s.listener = listener
	s.log.WithField("addr", addr).Info("TCP server listening")

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Stop stops the TCP server gracefully
func (s *TCPServer) Stop() {
	close(s.stopCh)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()
	s.log.Info("TCP server stopped")
}

func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.log.WithError(err).Warn("Failed to accept connection")
				continue
			}
		}

		if s.connManager.Count() >= s.config.MaxConnections {
			s.log.Warn("Maximum connections reached, rejecting connection")
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connectionID := uuid.New().String()
	s.log.WithFields(logrus.Fields{
		"connection": connectionID,
		"remote":     conn.RemoteAddr().String(),
	}).Info("New connection")

	// The gateway must identify itself before anything else
	conn.SetReadDeadline(time.Now().Add(s.config.IdentifyTimeout))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		s.log.WithError(err).Warn("Failed to read identify message")
		return
	}

	msg, err := protocol.ParseMessage([]byte(line))
	if err != nil {
		s.log.WithError(err).Warn("Failed to parse identify message")
		s.sendError(conn)
		return
	}

	identifyMsg, ok := msg.(*protocol.IdentifyMessage)
	if !ok {
		s.log.Warnf("Expected identify message, got %T", msg)
		s.sendError(conn)
		return
	}

	if err := s.connManager.Register(connectionID, identifyMsg.FieldID, identifyMsg.Farm, conn); err != nil {
		s.log.WithError(err).Warn("Failed to register gateway")
		s.sendError(conn)
		return
	}
	defer s.connManager.Unregister(connectionID)

	s.log.WithFields(logrus.Fields{
		"connection": connectionID,
		"field":      identifyMsg.FieldID,
		"farm":       identifyMsg.Farm,
	}).Info("Gateway identified")

	ack := protocol.NewAckMessage(protocol.AckStatusIdentified)
	if err := s.sendMessage(conn, ack); err != nil {
		s.log.WithError(err).Warn("Failed to send ack")
		return
	}

	s.scheduleInactivityTimer(connectionID)

	// Clear read deadline for normal operation
	conn.SetReadDeadline(time.Time{})

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		line, err := reader.ReadString('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.log.WithField("connection", connectionID).WithError(err).Info("Connection closed")
			return
		}

		msg, err := protocol.ParseMessage([]byte(line))
		if err != nil {
			s.log.WithError(err).Warn("Failed to parse message")
			continue
		}

		if err := s.handleMessage(connectionID, identifyMsg.FieldID, identifyMsg.Farm, msg, conn); err != nil {
			s.log.WithError(err).Warn("Failed to handle message")
		}

		s.connManager.UpdateActivity(connectionID)
		s.scheduleInactivityTimer(connectionID)
	}
}

func (s *TCPServer) handleMessage(connectionID, fieldID, farm string, msg interface{}, conn net.Conn) error {
	switch m := msg.(type) {
	case *protocol.ReadingsMessage:
		return s.handleReadings(connectionID, fieldID, farm, m)

	case *protocol.KeepaliveMessage:
		return s.handleKeepalive(conn)

	default:
		return fmt.Errorf("unknown message type: %T", msg)
	}
}

func (s *TCPServer) handleReadings(connectionID, fieldID, farm string, msg *protocol.ReadingsMessage) error {
	readingMsg := &protocol.ReadingMessage{
		ConnectionID: connectionID,
		FieldID:      fieldID,
		Farm:         farm,
		ReceivedAt:   time.Now(),
		Data:         msg.Data,
	}

	data, err := protocol.EncodeReadingMessage(readingMsg)
	if err != nil {
		return fmt.Errorf("failed to encode reading: %w", err)
	}

	// Key is field ID for partitioning
	if err := s.producer.Publish(s.ctx, fieldID, data); err != nil {
		return fmt.Errorf("failed to publish reading: %w", err)
	}

	return nil
}

func (s *TCPServer) handleKeepalive(conn net.Conn) error {
	ack := protocol.NewAckMessage(protocol.AckStatusAlive)
	return s.sendMessage(conn, ack)
}

func (s *TCPServer) sendMessage(conn net.Conn, msg interface{}) error {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}

	_, err = conn.Write(append(data, '\n'))
	return err
}

func (s *TCPServer) sendError(conn net.Conn) {
	ack := protocol.NewAckMessage(protocol.AckStatusError)
	s.sendMessage(conn, ack)
}

func (s *TCPServer) scheduleInactivityTimer(connectionID string) {
	timerID := fmt.Sprintf("inactivity-%s", connectionID)
	expiryAt := time.Now().Add(s.config.InactivityTimeout)

	callback := func() {
		s.log.WithField("connection", connectionID).Info("Inactivity timeout")

		gateway, exists := s.connManager.Get(connectionID)
		if !exists {
			return
		}

		// Closing the socket unblocks the read loop; unregister happens
		// in the handler's deferred cleanup.
		gateway.Conn.Close()
	}

	s.timerManager.Schedule(timerID, expiryAt, callback)
}
