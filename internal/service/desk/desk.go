// Package desk coordinates the stores: it routes realtime events into the
// ticket list and notification state, and wraps ticket actions with their
// optimistic local updates.
package desk

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/bekzodm/murojaat-desk/internal/api"
	"github.com/bekzodm/murojaat-desk/internal/domain"
	"github.com/bekzodm/murojaat-desk/internal/service/notify"
	"github.com/bekzodm/murojaat-desk/internal/service/tickets"
)

// Toaster shows one transient notification. The UI supplies it; tests record
// calls.
type Toaster func(domain.Notification)

type Desk struct {
	api     *api.Client
	notify  *notify.Store
	tickets *tickets.Store
	toast   Toaster
}

func New(apiClient *api.Client, notifyStore *notify.Store, ticketStore *tickets.Store, toast Toaster) *Desk {
	if toast == nil {
		toast = func(domain.Notification) {}
	}
	return &Desk{
		api:     apiClient,
		notify:  notifyStore,
		tickets: ticketStore,
		toast:   toast,
	}
}

// HandleDepartmentEvent processes one event from the department channel.
func (d *Desk) HandleDepartmentEvent(ev domain.Event) {
	ctx := context.Background()

	switch ev.Type {
	case domain.EventSessionCreated:
		if ev.Session == nil {
			return
		}
		d.tickets.Merge(*ev.Session)
		n := notificationFor(*ev.Session)
		if d.notify.Add(ctx, n) && d.notify.MarkToastShown(ctx, ev.Session.UUID) {
			d.toast(n)
		}

	case domain.EventSessionAssigned:
		if ev.Session == nil {
			return
		}
		d.tickets.Apply(*ev.Session)
		d.notify.Track(ctx, notify.TrackAssigned, ev.Session.UUID)

	case domain.EventSessionEscalated:
		if ev.Session == nil {
			return
		}
		d.tickets.Apply(*ev.Session)
		d.notify.Track(ctx, notify.TrackEscalated, ev.Session.UUID)

	case domain.EventSessionRerouted:
		if ev.Session == nil {
			return
		}
		d.tickets.Apply(*ev.Session)
		log.Printf("[DESK] Session %s rerouted to %s", ev.Session.UUID, ev.DepartmentName)

	case domain.EventMessageCreated:
		// A citizen wrote on a session nobody has open: surface it as a
		// notification. The session payload, when present, refreshes the list.
		if ev.Session != nil {
			d.tickets.Apply(*ev.Session)
			d.notify.Add(ctx, notificationFor(*ev.Session))
		}
	}
}

// HandleVIPEvent processes the escalation feed. Escalated sessions land in
// their own notification list so the badge can distinguish them.
func (d *Desk) HandleVIPEvent(ev domain.Event) {
	if ev.Session == nil {
		return
	}
	ctx := context.Background()

	switch ev.Type {
	case domain.EventSessionEscalated, domain.EventSessionCreated:
		d.tickets.Apply(*ev.Session)
		d.notify.Track(ctx, notify.TrackEscalated, ev.Session.UUID)
		n := notificationFor(*ev.Session)
		if d.notify.AddEscalated(ctx, n) && d.notify.MarkToastShown(ctx, ev.Session.UUID) {
			d.toast(n)
		}
	}
}

// Assign claims a ticket for this staff member. The response session is
// applied optimistically; the realtime echo reconciles everyone else.
func (d *Desk) Assign(ctx context.Context, sessionUUID string) error {
	result, err := d.api.Assign(ctx, sessionUUID)
	if err != nil {
		return err
	}
	d.tickets.Apply(result.Session)
	d.notify.Track(ctx, notify.TrackAssigned, sessionUUID)
	return nil
}

func (d *Desk) Escalate(ctx context.Context, sessionUUID string) error {
	result, err := d.api.Escalate(ctx, sessionUUID)
	if err != nil {
		return err
	}
	d.tickets.Apply(result.Session)
	d.notify.Track(ctx, notify.TrackEscalated, sessionUUID)
	return nil
}

func (d *Desk) Close(ctx context.Context, sessionUUID string) error {
	result, err := d.api.Close(ctx, sessionUUID)
	if err != nil {
		return err
	}
	d.tickets.Apply(result.Session)
	d.notify.Track(ctx, notify.TrackClosed, sessionUUID)
	return nil
}

func (d *Desk) Hold(ctx context.Context, sessionUUID string) error {
	result, err := d.api.Hold(ctx, sessionUUID)
	if err != nil {
		return err
	}
	d.tickets.Apply(result.Session)
	return nil
}

// OpenListView is the "mark as seen by visiting" policy: opening the list
// for a status clears its badge set. Distinct from the notification read
// flag, which only flips on the bell dropdown.
func (d *Desk) OpenListView(ctx context.Context, status domain.SessionStatus) {
	switch status {
	case domain.StatusAssigned:
		d.notify.ClearTracked(ctx, notify.TrackAssigned)
	case domain.StatusClosed:
		d.notify.ClearTracked(ctx, notify.TrackClosed)
	case domain.StatusEscalated:
		d.notify.ClearTracked(ctx, notify.TrackEscalated)
	}
}

// RefreshList fetches one status bucket from the backend and replaces the
// local mirror.
func (d *Desk) RefreshList(ctx context.Context, status domain.SessionStatus, staffUUID string) error {
	page, err := d.api.ListTickets(ctx, api.TicketFilter{Status: status, StaffUUID: staffUUID})
	if err != nil {
		return err
	}
	d.tickets.Replace(status, page.Results)
	return nil
}

func notificationFor(s domain.Session) domain.Notification {
	return domain.Notification{
		ID:          uuid.NewString(),
		SessionUUID: s.UUID,
		CitizenName: s.CitizenName,
		CreatedAt:   s.CreatedAt,
	}
}
