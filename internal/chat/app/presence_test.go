package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 測試 identity 最多綁定一條連線
func TestPresenceRegistry_JoinReplacesBinding(t *testing.T) {
	p := NewPresenceRegistry()
	first := newFakeConn("conn-1")
	second := newFakeConn("conn-2")

	p.Join("alice", first)
	conn, ok := p.Resolve("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn-1", conn.ID())

	// last-writer-wins：第二次 join 直接蓋掉舊綁定
	p.Join("alice", second)
	conn, ok = p.Resolve("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn-2", conn.ID())

	// 舊連線已不可定址
	_, ok = p.Identify(first)
	assert.False(t, ok)
	assert.Equal(t, []string{"alice"}, p.ListIdentities())
}

// 測試 Leave 回傳被移除的 identity
func TestPresenceRegistry_Leave(t *testing.T) {
	p := NewPresenceRegistry()
	conn := newFakeConn("conn-1")

	p.Join("alice", conn)
	identity, ok := p.Leave(conn)
	assert.True(t, ok)
	assert.Equal(t, "alice", identity)

	_, ok = p.Resolve("alice")
	assert.False(t, ok)
	assert.Empty(t, p.ListIdentities())
}

// 被取代的連線斷線時不可解除新的綁定
func TestPresenceRegistry_LeaveSupersededConnIsNoop(t *testing.T) {
	p := NewPresenceRegistry()
	first := newFakeConn("conn-1")
	second := newFakeConn("conn-2")

	p.Join("alice", first)
	p.Join("alice", second)

	_, ok := p.Leave(first)
	assert.False(t, ok)

	conn, ok := p.Resolve("alice")
	assert.True(t, ok)
	assert.Equal(t, "conn-2", conn.ID())
}

// 同一條連線改用新 identity join：舊 identity 解除綁定
func TestPresenceRegistry_RejoinUnderNewIdentity(t *testing.T) {
	p := NewPresenceRegistry()
	conn := newFakeConn("conn-1")

	p.Join("alice", conn)
	p.Join("alice-renamed", conn)

	_, ok := p.Resolve("alice")
	assert.False(t, ok)

	resolved, ok := p.Resolve("alice-renamed")
	assert.True(t, ok)
	assert.Equal(t, "conn-1", resolved.ID())
	assert.Equal(t, []string{"alice-renamed"}, p.ListIdentities())

	// 斷線後什麼都不留
	identity, ok := p.Leave(conn)
	assert.True(t, ok)
	assert.Equal(t, "alice-renamed", identity)
	assert.Empty(t, p.ListIdentities())
}

// 未綁定過的連線 Leave 是 no-op
func TestPresenceRegistry_LeaveUnknownConn(t *testing.T) {
	p := NewPresenceRegistry()

	_, ok := p.Leave(newFakeConn("conn-x"))
	assert.False(t, ok)
}

func TestPresenceRegistry_ListIdentities(t *testing.T) {
	p := NewPresenceRegistry()
	p.Join("alice", newFakeConn("conn-1"))
	p.Join("bob", newFakeConn("conn-2"))

	assert.ElementsMatch(t, []string{"alice", "bob"}, p.ListIdentities())
}

// Track/Untrack 控制廣播範圍，與綁定無關
func TestPresenceRegistry_TrackedConnections(t *testing.T) {
	p := NewPresenceRegistry()
	joined := newFakeConn("conn-1")
	lurker := newFakeConn("conn-2")

	p.Track(joined)
	p.Track(lurker)
	p.Join("alice", joined)

	assert.Len(t, p.Connections(), 2)

	p.Untrack(lurker)
	assert.Len(t, p.Connections(), 1)
}
