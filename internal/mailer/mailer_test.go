package mailer

import (
	"context"
	"strings"
	"testing"
)

func TestBuildMessagePlainText(t *testing.T) {
	msg := Message{To: "a@b.test", Subject: "Hello", Body: "hi there"}
	out := string(buildMessage("po@shop.test", msg))

	for _, want := range []string{
		"From: po@shop.test\r\n",
		"To: a@b.test\r\n",
		"Subject: Hello\r\n",
		"hi there",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "multipart/mixed") {
		t.Error("plain message should not be multipart")
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	msg := Message{
		To:             "a@b.test",
		Subject:        "Purchase Order PO-1",
		Body:           "attached",
		Attachment:     []byte("%PDF-1.4 fake"),
		AttachmentName: "PO-1.pdf",
	}
	out := string(buildMessage("po@shop.test", msg))

	for _, want := range []string{
		"multipart/mixed",
		"Content-Type: application/pdf",
		"Content-Transfer-Encoding: base64",
		`filename="PO-1.pdf"`,
		"JVBERi0xLjQgZmFrZQ==", // base64 of the attachment bytes
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestBuildMessageWrapsBase64Lines(t *testing.T) {
	msg := Message{To: "a@b.test", Attachment: make([]byte, 600), AttachmentName: "x.pdf"}
	out := string(buildMessage("po@shop.test", msg))
	for _, line := range strings.Split(out, "\r\n") {
		if len(line) > 78 {
			t.Fatalf("line exceeds RFC length: %d chars", len(line))
		}
	}
}

func TestDisabledSender(t *testing.T) {
	err := Disabled{}.Send(context.Background(), Message{To: "a@b.test"})
	if err != ErrNotConfigured {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestConfigConfigured(t *testing.T) {
	if (Config{}).Configured() {
		t.Error("empty config should not be configured")
	}
	if !(Config{Host: "smtp.test", From: "po@shop.test"}).Configured() {
		t.Error("host+from should be configured")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.test")
	t.Setenv("SMTP_FROM", "po@shop.test")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 587 {
		t.Fatalf("port default = %d, want 587", cfg.Port)
	}
	if cfg.Host != "smtp.test" || cfg.From != "po@shop.test" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}
