package http

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"valid", "3", 3, false},
		{"spaces", " 7 ", 7, false},
		{"missing", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-2", 0, true},
		{"not a number", "abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"user_id": {tt.value}}
			r := httptest.NewRequest(http.MethodPost, "/users/select", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			got, err := parseUserID(r, "user_id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("id = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tab\there"},
		{"bell\x07 null\x00", "bell null"},
		{"\x1b[31mred", "[31mred"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func multipartRequest(t *testing.T, message, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("message", message); err != nil {
		t.Fatal(err)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/chat/send", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestParseChatForm(t *testing.T) {
	t.Run("urlencoded", func(t *testing.T) {
		form := url.Values{"message": {"  quanto gastei?  "}}
		r := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		got, err := parseChatForm(httptest.NewRecorder(), r)
		if err != nil {
			t.Fatalf("parseChatForm: %v", err)
		}
		if got.Message != "quanto gastei?" || got.Attachment != nil {
			t.Errorf("form = %+v", got)
		}
	})

	t.Run("multipart with file", func(t *testing.T) {
		r := multipartRequest(t, "importa isto", "extrato.csv", []byte("a,b\n1,2\n"))

		got, err := parseChatForm(httptest.NewRecorder(), r)
		if err != nil {
			t.Fatalf("parseChatForm: %v", err)
		}
		if got.Message != "importa isto" {
			t.Errorf("message = %q", got.Message)
		}
		if got.Attachment == nil {
			t.Fatal("attachment missing")
		}
		if got.Attachment.Name != "extrato.csv" || string(got.Attachment.Data) != "a,b\n1,2\n" {
			t.Errorf("attachment = %+v", got.Attachment)
		}
	})

	t.Run("multipart without file", func(t *testing.T) {
		r := multipartRequest(t, "olá", "", nil)

		got, err := parseChatForm(httptest.NewRecorder(), r)
		if err != nil {
			t.Fatalf("parseChatForm: %v", err)
		}
		if got.Attachment != nil {
			t.Error("no attachment expected")
		}
	})

	t.Run("body over the limit", func(t *testing.T) {
		r := multipartRequest(t, "grande", "big.bin", bytes.Repeat([]byte("x"), maxFormBytes+1))

		_, err := parseChatForm(httptest.NewRecorder(), r)
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			t.Errorf("err = %v, want *http.MaxBytesError", err)
		}
	})
}
