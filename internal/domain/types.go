package domain

import "time"

// SessionStatus mirrors the server-side ticket state machine. The client
// never invents a status, it only applies what the backend reports.
type SessionStatus string

const (
	StatusUnassigned SessionStatus = "unassigned"
	StatusAssigned   SessionStatus = "assigned"
	StatusClosed     SessionStatus = "closed"
	StatusEscalated  SessionStatus = "escalated"
)

// Session is one citizen appeal ("murojaat") conversation.
type Session struct {
	UUID           string        `json:"uuid"`
	CitizenName    string        `json:"citizen_name"`
	Status         SessionStatus `json:"status"`
	StaffUUID      string        `json:"staff_uuid,omitempty"`
	DepartmentID   int64         `json:"department_id,omitempty"`
	DepartmentName string        `json:"department_name,omitempty"`
	NeighborhoodID int64         `json:"neighborhood_id,omitempty"`
	Description    string        `json:"description,omitempty"`
	IsVIP          bool          `json:"is_vip,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at,omitempty"`
}

// Message is immutable once created. Identity key for dedup is UUID;
// ordering within a session is CreatedAt ascending.
type Message struct {
	UUID            string    `json:"uuid"`
	SessionUUID     string    `json:"session_uuid"`
	Sender          string    `json:"sender"` // "citizen" or "staff"
	Text            string    `json:"text"`
	ClientMessageID string    `json:"client_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Notification is one unread/read entry in the bell dropdown.
// Dedup identity is SessionUUID, not ID: at most one unread entry per session.
type Notification struct {
	ID          string    `json:"id"`
	SessionUUID string    `json:"session_uuid"`
	CitizenName string    `json:"citizen_name"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// TokenPair holds the access/refresh tokens for the logged-in staff member.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// StaffRole determines channel multiplicity: VIP staff additionally keep an
// escalation feed open next to their department channel.
type StaffRole string

const (
	RoleOperator StaffRole = "operator"
	RoleVIP      StaffRole = "vip"
)

type StaffProfile struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Identifier   string    `json:"identifier"`
	Role         StaffRole `json:"role"`
	DepartmentID int64     `json:"department_id"`
}

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Neighborhood struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Dashboard aggregates.

type Stats struct {
	Total      int `json:"total"`
	Unassigned int `json:"unassigned"`
	Assigned   int `json:"assigned"`
	Closed     int `json:"closed"`
	Escalated  int `json:"escalated"`
}

type ChartPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Demographics struct {
	Male    int `json:"male"`
	Female  int `json:"female"`
	Unknown int `json:"unknown"`
}

type NeighborhoodCount struct {
	NeighborhoodID int64  `json:"neighborhood_id"`
	Name           string `json:"name"`
	Count          int    `json:"count"`
}

type LeaderboardEntry struct {
	StaffUUID string `json:"staff_uuid"`
	Name      string `json:"name"`
	Closed    int    `json:"closed"`
}
