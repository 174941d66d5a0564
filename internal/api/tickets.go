package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/bekzodm/murojaat-desk/internal/domain"
)

// TicketFilter narrows the ticket list. Zero values are omitted from the
// query string.
type TicketFilter struct {
	Status         domain.SessionStatus
	StaffUUID      string
	Search         string
	NeighborhoodID int64
	Page           int
	PageSize       int
	Lang           string
}

func (f TicketFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.StaffUUID != "" {
		q.Set("staff_uuid", f.StaffUUID)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.NeighborhoodID != 0 {
		q.Set("neighborhood_id", strconv.FormatInt(f.NeighborhoodID, 10))
	}
	if f.Page != 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize != 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	if f.Lang != "" {
		q.Set("lang", f.Lang)
	}
	return q
}

type TicketPage struct {
	Results []domain.Session `json:"results"`
	Count   int              `json:"count"`
	Page    int              `json:"page"`
}

func (c *Client) ListTickets(ctx context.Context, filter TicketFilter) (*TicketPage, error) {
	var out TicketPage
	if err := c.do(ctx, http.MethodGet, "/tickets/", filter.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HistoryPage is one backward page of a chat transcript. Next is the opaque
// cursor for the next older page, empty when HasMore is false.
type HistoryPage struct {
	Session  domain.Session   `json:"session"`
	Messages []domain.Message `json:"messages"`
	Next     string           `json:"next"`
	HasMore  bool             `json:"has_more"`
}

func (c *Client) History(ctx context.Context, sessionUUID, cursor, lang string) (*HistoryPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if lang != "" {
		q.Set("lang", lang)
	}
	var out HistoryPage
	if err := c.do(ctx, http.MethodGet, "/tickets/"+sessionUUID+"/history/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActionResult is the response to assign/escalate/close/hold. Session carries
// the server-authoritative state the client reconciles against.
type ActionResult struct {
	Status  string         `json:"status"`
	Session domain.Session `json:"session"`
	Message string         `json:"message"`
}

func (c *Client) Assign(ctx context.Context, sessionUUID string) (*ActionResult, error) {
	return c.ticketAction(ctx, sessionUUID, "assign")
}

func (c *Client) Escalate(ctx context.Context, sessionUUID string) (*ActionResult, error) {
	return c.ticketAction(ctx, sessionUUID, "escalate")
}

func (c *Client) Close(ctx context.Context, sessionUUID string) (*ActionResult, error) {
	return c.ticketAction(ctx, sessionUUID, "close")
}

func (c *Client) Hold(ctx context.Context, sessionUUID string) (*ActionResult, error) {
	return c.ticketAction(ctx, sessionUUID, "hold")
}

func (c *Client) ticketAction(ctx context.Context, sessionUUID, action string) (*ActionResult, error) {
	var out ActionResult
	if err := c.do(ctx, http.MethodPost, "/tickets/"+sessionUUID+"/"+action+"/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDescription(ctx context.Context, sessionUUID, description string) error {
	body := map[string]string{"description": description}
	return c.do(ctx, http.MethodPatch, "/tickets/"+sessionUUID+"/description/", nil, body, nil)
}

// SendResult reports what happened to an outbound message downstream.
type SendResult struct {
	Message          domain.Message `json:"message"`
	QueuedForAnalysis bool          `json:"queued_for_analysis"`
	Broadcasted      bool           `json:"broadcasted"`
	TelegramDelivery bool           `json:"telegram_delivery"`
}

// SendMessage posts text to a session. A client message ID is generated here
// so the realtime echo of this message can be tied back to the optimistic
// local copy.
func (c *Client) SendMessage(ctx context.Context, sessionUUID, text string) (*SendResult, error) {
	body := map[string]string{
		"text":              text,
		"client_message_id": uuid.NewString(),
	}
	var out SendResult
	if err := c.do(ctx, http.MethodPost, "/tickets/"+sessionUUID+"/send/", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
