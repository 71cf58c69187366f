package mailer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"rigcheck/pkg/render"
	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
)

type fakeLinker struct {
	link   string
	marked []string
}

func (f *fakeLinker) Link(context.Context, string) (string, error) {
	return f.link, nil
}

func (f *fakeLinker) MarkNotified(_ context.Context, hash string) error {
	f.marked = append(f.marked, hash)
	return nil
}

type captureSender struct {
	to      []string
	subject string
	body    string
	calls   int
}

func (c *captureSender) Send(_ context.Context, to []string, subject, body string) error {
	c.to = to
	c.subject = subject
	c.body = body
	c.calls++
	return nil
}

func testConsumer(t *testing.T, sender Sender) (*Consumer, *fakeLinker) {
	t.Helper()
	engine, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	linker := &fakeLinker{link: "https://blobs.test/full/abc.zip"}
	return &Consumer{
		linker: linker,
		sender: sender,
		inspectors: checklist.InspectorDirectory{
			"M. Wisniewski": {Emails: []string{"fleet@example.com"}},
		},
		render: engine,
		logger: zerolog.Nop(),
	}, linker
}

func storedEvent(t *testing.T, ev artifacts.StoredEvent) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return data
}

func TestHandleSendsNotification(t *testing.T) {
	sender := &captureSender{}
	c, linker := testConsumer(t, sender)
	hash := strings.Repeat("ab", 32)

	err := c.handle(context.Background(), storedEvent(t, artifacts.StoredEvent{
		ChecklistType: "full",
		ChecklistHash: hash,
		Meta: artifacts.Meta{
			DriverName:    "J. Kowalski",
			InspectorName: "M. Wisniewski",
		},
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("sends = %d, want 1", sender.calls)
	}
	if sender.to[0] != "fleet@example.com" {
		t.Fatalf("to = %v", sender.to)
	}
	if !strings.Contains(sender.body, "https://blobs.test/full/abc.zip") {
		t.Fatalf("body missing link:\n%s", sender.body)
	}
	if !strings.Contains(sender.body, "J. Kowalski") {
		t.Fatalf("body missing driver:\n%s", sender.body)
	}
	if !strings.Contains(sender.body, hash[:12]) {
		t.Fatalf("body missing reference:\n%s", sender.body)
	}
	if len(linker.marked) != 1 || linker.marked[0] != hash {
		t.Fatalf("marked = %v, want [%s]", linker.marked, hash)
	}
}

func TestHandleSkipsAlreadyMailed(t *testing.T) {
	sender := &captureSender{}
	c, linker := testConsumer(t, sender)

	err := c.handle(context.Background(), storedEvent(t, artifacts.StoredEvent{
		ChecklistType: "full",
		ChecklistHash: strings.Repeat("cd", 32),
		EmailSent:     true,
		Meta:          artifacts.Meta{InspectorName: "M. Wisniewski"},
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("sent despite email_sent flag")
	}
	if len(linker.marked) != 0 {
		t.Fatalf("marked without sending: %v", linker.marked)
	}
}

func TestHandleSkipsUnknownInspector(t *testing.T) {
	sender := &captureSender{}
	c, _ := testConsumer(t, sender)

	err := c.handle(context.Background(), storedEvent(t, artifacts.StoredEvent{
		ChecklistType: "reduced",
		ChecklistHash: strings.Repeat("ef", 32),
		Meta:          artifacts.Meta{InspectorName: "Nobody"},
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("sent despite missing recipients")
	}
}

func TestHandleDropsMalformedEvent(t *testing.T) {
	sender := &captureSender{}
	c, _ := testConsumer(t, sender)

	if err := c.handle(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed event should be dropped, got %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("sent for malformed event")
	}
}
