package app

import (
	"sync"

	"private_chat_service/internal/chat/domain"
)

// PresenceRegistry volatile mapping identity <-> live connection.
// The reverse index is maintained atomically with the primary map so the
// router never scans to answer "who owns this connection".
type PresenceRegistry struct {
	mu         sync.RWMutex
	byIdentity map[string]domain.Conn
	byConn     map[string]string      // conn id -> identity
	live       map[string]domain.Conn // every accepted connection, joined or not
}

// NewPresenceRegistry create an empty PresenceRegistry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byIdentity: make(map[string]domain.Conn),
		byConn:     make(map[string]string),
		live:       make(map[string]domain.Conn),
	}
}

// Track record an accepted connection so broadcasts reach it before join
func (p *PresenceRegistry) Track(conn domain.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live[conn.ID()] = conn
}

// Untrack drop a closed connection from the broadcast set
func (p *PresenceRegistry) Untrack(conn domain.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, conn.ID())
}

// Join bind identity to conn, unconditionally replacing any prior binding
// for that identity (last-writer-wins). The superseded connection stays
// physically open but is no longer addressable.
func (p *PresenceRegistry) Join(identity string, conn domain.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.byIdentity[identity]; ok {
		delete(p.byConn, old.ID())
	}
	// 同一條連線換名字重新 join：舊 identity 一併解除，不留死綁定
	if prev, ok := p.byConn[conn.ID()]; ok && prev != identity {
		delete(p.byIdentity, prev)
	}
	p.byIdentity[identity] = conn
	p.byConn[conn.ID()] = identity
}

// Leave unbind whatever identity is still bound to conn. Returns false when
// the connection was never bound or was already superseded by a later Join.
func (p *PresenceRegistry) Leave(conn domain.Conn) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	identity, ok := p.byConn[conn.ID()]
	if !ok {
		return "", false
	}
	delete(p.byConn, conn.ID())
	delete(p.byIdentity, identity)
	return identity, true
}

// Resolve current connection for identity, or false if offline
func (p *PresenceRegistry) Resolve(identity string) (domain.Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, ok := p.byIdentity[identity]
	return conn, ok
}

// Identify reverse lookup: identity bound to conn, or false
func (p *PresenceRegistry) Identify(conn domain.Conn) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	identity, ok := p.byConn[conn.ID()]
	return identity, ok
}

// ListIdentities snapshot of all currently bound identities
func (p *PresenceRegistry) ListIdentities() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	identities := make([]string, 0, len(p.byIdentity))
	for identity := range p.byIdentity {
		identities = append(identities, identity)
	}
	return identities
}

// Connections snapshot of every live connection, for broadcasts
func (p *PresenceRegistry) Connections() []domain.Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := make([]domain.Conn, 0, len(p.live))
	for _, conn := range p.live {
		conns = append(conns, conn)
	}
	return conns
}
