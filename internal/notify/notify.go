package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"manhwatrack/pkg/models"
)

const RegisterMessageType = "register"

type RegisterMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// Notifier delivers one summary message to one user. Implementations must
// keep delivery failures contained: a failed send never affects other
// users.
type Notifier interface {
	Notify(userID string, updates []models.LatestChapter) error
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]*net.UDPAddr
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*net.UDPAddr)}
}

func (r *Registry) Register(userID string, addr *net.UDPAddr) {
	if userID == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[userID] = addr
	r.mu.Unlock()
}

func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.clients, userID)
	r.mu.Unlock()
}

func (r *Registry) Lookup(userID string) *net.UDPAddr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

// Server is the UDP push channel. Clients send a register message and
// then receive new-chapter summaries addressed to their user id.
type Server struct {
	addr     string
	registry *Registry
	logger   *log.Logger

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewServer(addr string, registry *Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, registry: registry, logger: logger}
}

func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	s.logger.Printf("[notify] UDP server listening on %s", s.addr)

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.logger.Printf("[notify] invalid UDP message from %s: %v", addr, err)
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.UserID, addr)
		s.logger.Printf("[notify] registered client %s (%s)", msg.UserID, addr)
	}
}

// Bound reports whether the UDP socket is listening yet.
func (s *Server) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Notify renders one summary message for the user's pending updates and
// sends it to their registered address, retrying once. A user with no
// registered client is logged and skipped; repeated send failure
// deregisters the stale address.
func (s *Server) Notify(userID string, updates []models.LatestChapter) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("notify server not running")
	}

	addr := s.registry.Lookup(userID)
	if addr == nil {
		s.logger.Printf("[notify] user %s has no registered client, skipping", userID)
		return nil
	}

	payload, err := json.Marshal(BuildMessage(updates))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if _, err := conn.WriteToUDP(payload, addr); err == nil {
		return nil
	}
	if _, err := conn.WriteToUDP(payload, addr); err != nil {
		s.registry.Remove(userID)
		return fmt.Errorf("send to %s at %s: %w", userID, addr, err)
	}
	return nil
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.UserID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
