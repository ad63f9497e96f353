package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"
)

type recordingMailer struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return m.err
}

func testStore(t *testing.T) repository.Store {
	t.Helper()
	s, err := repository.NewSQLStore("sqlite", t.TempDir()+"/test.db", repository.SQLOptions{}, nil)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func addUser(t *testing.T, s repository.Store, u model.User) *model.User {
	t.Helper()
	u.PasswordHash = "h"
	if err := s.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", u.Email, err)
	}
	return &u
}

func TestNotifyVolunteers(t *testing.T) {
	s := testStore(t)
	donor := addUser(t, s, model.User{Email: "donor@example.com", FirstName: "Dana", LastName: "Donor", Role: model.RoleDonor, IsActive: true, NotificationsEnabled: true})
	addUser(t, s, model.User{Email: "v1@example.com", Role: model.RoleVolunteer, IsActive: true, NotificationsEnabled: true})
	addUser(t, s, model.User{Email: "v2@example.com", Role: model.RoleVolunteer, IsActive: true, NotificationsEnabled: true})
	addUser(t, s, model.User{Email: "muted@example.com", Role: model.RoleVolunteer, IsActive: true})
	addUser(t, s, model.User{Email: "gone@example.com", Role: model.RoleVolunteer, NotificationsEnabled: true})
	addUser(t, s, model.User{Email: "r@example.com", Role: model.RoleRecipient, IsActive: true, NotificationsEnabled: true})

	expiry, _ := model.ParseDate("2025-03-01")
	item := model.Item{
		ID:          7,
		Name:        "Paneer tikka",
		Quantity:    4,
		Description: "Fresh <b>today</b>",
		Address:     "MG Road",
		ExpiryDate:  expiry,
		DonorID:     donor.ID,
		CreatedAt:   time.Date(2025, 2, 27, 18, 30, 0, 0, time.UTC),
	}

	mailer := &recordingMailer{}
	n := New(s, mailer, "noreply@shareplate.local", nil)
	if err := n.NotifyVolunteers(context.Background(), item); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(mailer.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mailer.msgs))
	}
	msg := mailer.msgs[0]
	if msg.Subject != "New Donation Available: Paneer tikka" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if strings.Join(msg.BCC, ",") != "v1@example.com,v2@example.com" {
		t.Errorf("bcc = %v", msg.BCC)
	}
	for _, want := range []string{"Quantity: 4", "Pickup Location: MG Road", "Expiry Date: 2025-03-01", "Donor: Dana Donor", "February 27, 2025 at 06:30 PM"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q", want)
		}
	}
	if !strings.Contains(msg.HTML, "Fresh &lt;b&gt;today&lt;/b&gt;") {
		t.Error("html body does not escape the description")
	}
}

func TestNotifyNoVolunteers(t *testing.T) {
	s := testStore(t)
	mailer := &recordingMailer{}

	if err := New(s, mailer, "x@example.com", nil).NotifyVolunteers(context.Background(), model.Item{Name: "Soup"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(mailer.msgs) != 0 {
		t.Errorf("sent %d messages with no volunteers", len(mailer.msgs))
	}
}

func TestNotifyMailerError(t *testing.T) {
	s := testStore(t)
	addUser(t, s, model.User{Email: "v@example.com", Role: model.RoleVolunteer, IsActive: true, NotificationsEnabled: true})
	mailer := &recordingMailer{err: errors.New("connection refused")}

	err := New(s, mailer, "x@example.com", nil).NotifyVolunteers(context.Background(), model.Item{Name: "Soup", DonorEmail: "d@example.com"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v", err)
	}
}

func TestLogMailer(t *testing.T) {
	if err := NewLogMailer(nil).Send(context.Background(), Message{Subject: "hi"}); err != nil {
		t.Errorf("log mailer: %v", err)
	}
}
