package domain

import "testing"

func TestParseEvent_KnownTypes(t *testing.T) {
	tests := []struct {
		name string
		data string
		want EventType
	}{
		{"session created", `{"type":"session.created","session":{"uuid":"s-1","status":"unassigned"}}`, EventSessionCreated},
		{"session assigned", `{"type":"session.assigned","session":{"uuid":"s-1","status":"assigned"}}`, EventSessionAssigned},
		{"session escalated", `{"type":"session.escalated","session":{"uuid":"s-1","status":"escalated"}}`, EventSessionEscalated},
		{"session rerouted", `{"type":"session.rerouted","session":{"uuid":"s-1"},"department_name":"Obodonlashtirish"}`, EventSessionRerouted},
		{"message created", `{"type":"message.created","message":{"uuid":"m-1","session_uuid":"s-1","text":"salom"}}`, EventMessageCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseEvent: %v", err)
			}
			if ev.Type != tt.want {
				t.Errorf("Type = %s, want %s", ev.Type, tt.want)
			}
		})
	}
}

func TestParseEvent_PopulatesPayloads(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"message.created","session":{"uuid":"s-1","citizen_name":"Aziz"},"message":{"uuid":"m-1","session_uuid":"s-1","text":"salom"}}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Session == nil || ev.Session.UUID != "s-1" || ev.Session.CitizenName != "Aziz" {
		t.Errorf("Session = %+v", ev.Session)
	}
	if ev.Message == nil || ev.Message.UUID != "m-1" || ev.Message.Text != "salom" {
		t.Errorf("Message = %+v", ev.Message)
	}
}

func TestParseEvent_UnknownTypeIsNotAnError(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"session.future_feature","session":{"uuid":"s-1"}}`))
	if err != nil {
		t.Fatalf("unknown type must not error: %v", err)
	}
	if ev.Type != EventUnknown {
		t.Errorf("Type = %s, want unknown", ev.Type)
	}
}

func TestParseEvent_MalformedJSON(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"type":`)); err == nil {
		t.Error("malformed JSON must error so the frame is dropped")
	}
}

func TestParseEvent_MalformedPayload(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"type":"session.created","session":[1,2]}`)); err == nil {
		t.Error("a session payload of the wrong shape must error")
	}
}
