package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "simple text",
			text:    "hello",
			wantErr: nil,
		},
		{
			name:    "unicode text",
			text:    "héllo wörld 👋",
			wantErr: nil,
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: ErrMessageEmpty,
		},
		{
			name:    "at maximum length",
			text:    strings.Repeat("a", MaxMessageLength),
			wantErr: nil,
		},
		{
			name:    "over maximum length",
			text:    strings.Repeat("a", MaxMessageLength+1),
			wantErr: ErrMessageTooLong,
		},
		{
			name:    "invalid utf-8",
			text:    "abc\xff\xfe",
			wantErr: ErrMessageInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateText(tt.text); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateText() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSender(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		wantErr error
	}{
		{
			name:    "empty sender is allowed",
			sender:  "",
			wantErr: nil,
		},
		{
			name:    "normal sender",
			sender:  "alice",
			wantErr: nil,
		},
		{
			name:    "at maximum length",
			sender:  strings.Repeat("a", MaxSenderLength),
			wantErr: nil,
		},
		{
			name:    "over maximum length",
			sender:  strings.Repeat("a", MaxSenderLength+1),
			wantErr: ErrSenderTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSender(tt.sender); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSender() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewModule_Defaults(t *testing.T) {
	m := NewModule(Config{})
	if m.cfg.ReapInterval != 15*time.Minute {
		t.Errorf("ReapInterval = %v, want 15m", m.cfg.ReapInterval)
	}
	if m.cfg.IdleTTL != time.Hour {
		t.Errorf("IdleTTL = %v, want 1h", m.cfg.IdleTTL)
	}
	if m.Name() != "relay" {
		t.Errorf("Name() = %q, want relay", m.Name())
	}
}

func TestModule_CreateAndJoin(t *testing.T) {
	m := NewModule(DefaultConfig())

	info, err := m.CreateRoom("host")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if info.ParticipantCount != 1 {
		t.Errorf("CreateRoom() participant count = %d, want 1", info.ParticipantCount)
	}

	res, err := m.JoinRoom("guest", info.Key)
	if err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}
	if res.Room.ParticipantCount != 2 {
		t.Errorf("JoinRoom() participant count = %d, want 2", res.Room.ParticipantCount)
	}

	if _, err := m.JoinRoom("guest", "00000000"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("JoinRoom() error = %v, want ErrRoomNotFound", err)
	}
	// The failed join leaves the guest where it was.
	if key, ok := m.RoomOf("guest"); !ok || key != info.Key {
		t.Errorf("RoomOf(guest) = %q, %v, want %q, true", key, ok, info.Key)
	}
}

func TestModule_SendMessage(t *testing.T) {
	m := NewModule(DefaultConfig())

	if _, err := m.SendMessage("loner", "hello", ""); !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("SendMessage() error = %v, want ErrNotInRoom", err)
	}

	if _, err := m.CreateRoom("host"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	msg, err := m.SendMessage("host", "hello", "")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.Sender != DefaultSender {
		t.Errorf("sender = %q, want %q for blank sender", msg.Sender, DefaultSender)
	}

	msg, err = m.SendMessage("host", "hello again", "alice")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.Sender != "alice" {
		t.Errorf("sender = %q, want alice", msg.Sender)
	}

	if _, err := m.SendMessage("host", "", "alice"); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("SendMessage() error = %v, want ErrMessageEmpty", err)
	}
}

func TestModule_LeaveRoom(t *testing.T) {
	m := NewModule(DefaultConfig())

	if _, ok := m.LeaveRoom("ghost"); ok {
		t.Error("LeaveRoom() ok = true for idle client")
	}

	info, err := m.CreateRoom("host")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	res, ok := m.LeaveRoom("host")
	if !ok {
		t.Fatal("LeaveRoom() ok = false, want true")
	}
	if !res.Deleted {
		t.Error("LeaveRoom() Deleted = false, want true for last member")
	}
	if _, ok := m.Room(info.Key); ok {
		t.Error("Room() found room after last member left")
	}
}

func TestModule_Lifecycle(t *testing.T) {
	m := NewModule(Config{ReapInterval: 10 * time.Millisecond, IdleTTL: time.Hour})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	health := m.Health(context.Background())
	if !health.Healthy {
		t.Errorf("Health() healthy = false, want true")
	}
	if _, ok := health.Details["active_rooms"]; !ok {
		t.Error("Health() details missing active_rooms")
	}
}
