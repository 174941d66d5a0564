package websocket

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Manager owns the three channel scopes. The chat channel follows the open
// ticket (one at a time); the department channel lives for the whole login;
// the VIP escalation feed runs only for elevated staff, concurrently with
// and independently of the department channel.
type Manager struct {
	wsBase string
	tokens TokenSource
	delay  time.Duration

	chat       *Channel
	department *Channel
	vip        *Channel
}

func NewManager(wsBase string, tokens TokenSource, delay time.Duration) *Manager {
	return &Manager{
		wsBase: strings.TrimRight(wsBase, "/"),
		tokens: tokens,
		delay:  delay,
	}
}

// OpenChat connects the chat channel for one session, tearing down any
// previous chat channel first (switching tickets must not leak sockets or
// reconnect timers).
func (m *Manager) OpenChat(ctx context.Context, sessionUUID string, handler Handler) error {
	if m.chat != nil {
		m.chat.Teardown()
	}
	m.chat = NewChannel(
		"chat:"+sessionUUID,
		fmt.Sprintf("%s/ws/chat/%s/", m.wsBase, sessionUUID),
		m.tokens, handler, m.delay,
	)
	return m.chat.Connect(ctx)
}

// CloseChat tears down the chat channel, if any.
func (m *Manager) CloseChat() {
	if m.chat != nil {
		m.chat.Teardown()
		m.chat = nil
	}
}

// ConnectDepartment opens the staff member's department feed.
func (m *Manager) ConnectDepartment(ctx context.Context, departmentID int64, handler Handler) error {
	if m.department != nil {
		m.department.Teardown()
	}
	m.department = NewChannel(
		fmt.Sprintf("department:%d", departmentID),
		fmt.Sprintf("%s/ws/department/%d/", m.wsBase, departmentID),
		m.tokens, handler, m.delay,
	)
	return m.department.Connect(ctx)
}

// ConnectVIP opens the escalation feed. Callers gate this on the staff role;
// the channel itself follows the same reconnect contract as the others.
func (m *Manager) ConnectVIP(ctx context.Context, handler Handler) error {
	if m.vip != nil {
		m.vip.Teardown()
	}
	m.vip = NewChannel("vip", m.wsBase+"/ws/vip/", m.tokens, handler, m.delay)
	return m.vip.Connect(ctx)
}

// TeardownAll closes every channel. Used on logout and shutdown.
func (m *Manager) TeardownAll() {
	for _, ch := range []*Channel{m.chat, m.department, m.vip} {
		if ch != nil {
			ch.Teardown()
		}
	}
	m.chat, m.department, m.vip = nil, nil, nil
}
