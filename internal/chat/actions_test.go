package chat

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectActions(t *testing.T) {
	tests := []struct {
		text string
		want []Event
	}{
		{text: "Despesa registada com sucesso", want: []Event{EventSaved}},
		{text: "Goal updated successfully", want: []Event{EventGoalUpdated}},
		{text: "Meta criada: Fundo de emergência", want: []Event{EventGoalUpdated}},
		{text: "Expense ADDED and goal created", want: []Event{EventSaved, EventGoalUpdated}},
		{text: "Receita salva", want: []Event{EventSaved}},
		{text: "O teu saldo é 100", want: nil},
		{text: "Tens 3 metas ativas", want: nil},
		{text: "", want: nil},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, DetectActions(tt.text)); diff != "" {
			t.Errorf("DetectActions(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestReadAttachment(t *testing.T) {
	a, err := ReadAttachment("notas.txt", "text/plain", bytes.NewReader([]byte("olá")))
	if err != nil {
		t.Fatalf("ReadAttachment: %v", err)
	}
	if a.Size != int64(len("olá")) || a.Name != "notas.txt" {
		t.Errorf("attachment = %+v", a)
	}

	big := bytes.NewReader(make([]byte, MaxAttachmentBytes+10))
	if _, err := ReadAttachment("big.bin", "", big); !errors.Is(err, ErrAttachmentTooLarge) {
		t.Errorf("ReadAttachment(big) = %v, want ErrAttachmentTooLarge", err)
	}

	exact := bytes.NewReader(make([]byte, MaxAttachmentBytes))
	if _, err := ReadAttachment("exact.bin", "", exact); err != nil {
		t.Errorf("ReadAttachment(exactly at limit) = %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if got, _ := ParseMode(""); got != ModeAssistant {
		t.Errorf("ParseMode(\"\") = %q, want assistant", got)
	}
	if _, err := ParseMode("oracle"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}
