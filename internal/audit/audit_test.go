package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/mq"
)

type memoryStore struct {
	entries []*domain.AuditEntry
	err     error
}

func (m *memoryStore) Insert(_ context.Context, e *domain.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestEntryFromMessage(t *testing.T) {
	sessionID := uuid.New()

	tests := []struct {
		name     string
		msg      *mq.Message
		wantStep string
	}{
		{
			name:     "answer recorded",
			msg:      mq.NewMessage(mq.MessageTypeAnswerRecorded, mq.AnswerRecordedPayload{SessionID: sessionID, StepID: "q1"}),
			wantStep: "q1",
		},
		{
			name:     "moved uses target step",
			msg:      mq.NewMessage(mq.MessageTypeSessionMoved, mq.SessionMovedPayload{SessionID: sessionID, From: "q1", To: "q3", Direction: "next"}),
			wantStep: "q3",
		},
		{
			name:     "completed",
			msg:      mq.NewMessage(mq.MessageTypeSessionCompleted, mq.SessionPayload{SessionID: sessionID, Version: 1}),
			wantStep: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := EntryFromMessage(tt.msg)
			if err != nil {
				t.Fatalf("EntryFromMessage() error = %v", err)
			}
			if entry.ID.String() != tt.msg.ID {
				t.Errorf("ID = %s, want %s", entry.ID, tt.msg.ID)
			}
			if entry.SessionID != sessionID {
				t.Errorf("SessionID = %s, want %s", entry.SessionID, sessionID)
			}
			if entry.Event != string(tt.msg.Type) {
				t.Errorf("Event = %s, want %s", entry.Event, tt.msg.Type)
			}
			if entry.StepID != tt.wantStep {
				t.Errorf("StepID = %q, want %q", entry.StepID, tt.wantStep)
			}
			if entry.Payload["session_id"] != sessionID.String() {
				t.Errorf("Payload[session_id] = %v", entry.Payload["session_id"])
			}
		})
	}
}

func TestEntryFromMessage_Invalid(t *testing.T) {
	if _, err := EntryFromMessage(&mq.Message{ID: "not-a-uuid"}); err == nil {
		t.Error("expected error for invalid message id")
	}

	msg := mq.NewMessage(mq.MessageTypeSessionStarted, map[string]any{"version": 1})
	if _, err := EntryFromMessage(msg); err == nil {
		t.Error("expected error for payload without session_id")
	}
}

func TestConsumer_Handle(t *testing.T) {
	store := &memoryStore{}
	c := &Consumer{store: store, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	msg := mq.NewMessage(mq.MessageTypeSessionStarted, mq.SessionPayload{SessionID: uuid.New()})
	if err := c.Handle(context.Background(), &mq.Delivery{Message: *msg}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(store.entries))
	}

	store.err = errors.New("db down")
	if err := c.Handle(context.Background(), &mq.Delivery{Message: *msg}); err == nil {
		t.Error("Handle() should fail when store fails")
	}
}
