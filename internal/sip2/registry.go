package sip2

import (
	"net"
	"sync"
)

// Registry tracks every connection currently being served, so the
// admin surface can list active terminals and kick one by connection
// id. It holds no protocol state of its own — Session remains owned
// by its connection's goroutine.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*registeredConn
}

type registeredConn struct {
	sess *Session
	conn net.Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*registeredConn)}
}

func (r *Registry) register(connID string, sess *Session, conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &registeredConn{sess: sess, conn: conn}
}

func (r *Registry) unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// SessionInfo is a point-in-time, read-only snapshot of one connection
// for admin listing purposes.
type SessionInfo struct {
	ConnID          string
	RemoteAddr      string
	ProtocolVersion string
	LoggedIn        bool
	AccountUID      string
}

// List returns a snapshot of every currently registered connection.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.conns))
	for id, rc := range r.conns {
		info := SessionInfo{
			ConnID:          id,
			RemoteAddr:      rc.sess.RemoteAddr,
			ProtocolVersion: rc.sess.ProtocolVersion,
			LoggedIn:        rc.sess.LoggedIn(),
		}
		if rc.sess.Account != nil {
			info.AccountUID = rc.sess.Account.UID
		}
		out = append(out, info)
	}
	return out
}

// Kick closes the connection identified by connID, if still open. It
// reports whether a matching connection was found.
func (r *Registry) Kick(connID string) bool {
	r.mu.RLock()
	rc, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	rc.conn.Close()
	return true
}
