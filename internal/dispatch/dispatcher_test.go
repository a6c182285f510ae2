package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/swarmbot/internal/apicall"
	"github.com/edgard/swarmbot/internal/config"
	"github.com/edgard/swarmbot/internal/database"
	"github.com/edgard/swarmbot/internal/dispatch"
	"github.com/edgard/swarmbot/internal/telegram"
)

const (
	testToken       = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw1"
	minionTestToken = "987654321:BBHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw2"
)

// fakeRegistrar records webhook registrations and can be told to fail.
type fakeRegistrar struct {
	err   error
	calls []string
}

func (f *fakeRegistrar) RegisterWebhook(_ context.Context, _ *telegram.Handle, callbackURL string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, callbackURL)
	return nil
}

// fakeStore serves canned activity rows.
type fakeStore struct {
	database.Store

	minions []database.Instance
	err     error
}

func (f *fakeStore) ListMinions(context.Context) ([]database.Instance, error) {
	return f.minions, f.err
}

func newDeps(reg *fakeRegistrar, store *fakeStore) dispatch.HandlerDeps {
	return dispatch.HandlerDeps{
		Config: &config.Config{
			Web: config.WebConfig{PublicURL: "https://bots.example.com"},
		},
		Registrar: reg,
		Store:     store,
	}
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1001,
		Message: &models.Message{
			ID:   7,
			Text: text,
			Chat: models.Chat{ID: 42},
			From: &models.User{ID: 99, Username: "someone"},
		},
	}
}

// fieldText extracts the text value of a named call field.
func fieldText(t *testing.T, call *apicall.Call, name string) string {
	t.Helper()

	for _, f := range call.Fields() {
		if f.Name == name {
			text, ok := f.Value.(apicall.Text)
			if !ok {
				t.Fatalf("field %q has value type %T, want apicall.Text", name, f.Value)
			}
			return string(text)
		}
	}
	t.Fatalf("call has no field %q", name)
	return ""
}

func assertSendMessage(t *testing.T, call *apicall.Call, wantText string) {
	t.Helper()

	if call == nil {
		t.Fatal("handler produced no call")
	}
	if call.Method != "sendMessage" {
		t.Fatalf("call method = %q, want sendMessage", call.Method)
	}
	if got := fieldText(t, call, "chat_id"); got != "42" {
		t.Errorf("chat_id = %q, want 42", got)
	}
	if got := fieldText(t, call, "text"); got != wantText {
		t.Errorf("text = %q, want %q", got, wantText)
	}
}

func newHandle(t *testing.T) *telegram.Handle {
	t.Helper()

	h, err := telegram.NewHandle(testToken, nil)
	if err != nil {
		t.Fatalf("NewHandle() error = %v", err)
	}
	return h
}

func TestDispatchReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		role     dispatch.Role
		text     string
		wantText string
	}{
		{
			name:     "main start",
			role:     dispatch.RoleMain,
			text:     "/start",
			wantText: "Hello, create new minion with /add_minion <TOKEN>",
		},
		{
			name:     "add_minion without arguments",
			role:     dispatch.RoleMain,
			text:     "/add_minion",
			wantText: "No token provided, usage /add_minion <TOKEN>",
		},
		{
			name:     "add_minion with malformed token",
			role:     dispatch.RoleMain,
			text:     "/add_minion BADTOKEN",
			wantText: "Invalid token",
		},
		{
			name:     "minion start",
			role:     dispatch.RoleMinion,
			text:     "/start",
			wantText: "Hello, world!",
		},
		{
			name:     "main echoes plain text",
			role:     dispatch.RoleMain,
			text:     "just some words",
			wantText: "just some words",
		},
		{
			name:     "minion echoes plain text",
			role:     dispatch.RoleMinion,
			text:     "ping",
			wantText: "ping",
		},
		{
			name:     "unknown command falls through to echo",
			role:     dispatch.RoleMain,
			text:     "/frobnicate now",
			wantText: "/frobnicate now",
		},
		{
			name:     "minion does not know add_minion",
			role:     dispatch.RoleMinion,
			text:     "/add_minion " + minionTestToken,
			wantText: "/add_minion " + minionTestToken,
		},
		{
			name:     "command addressed to a specific bot",
			role:     dispatch.RoleMain,
			text:     "/start@swarm_main_bot",
			wantText: "Hello, create new minion with /add_minion <TOKEN>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := dispatch.NewDispatcher(newDeps(&fakeRegistrar{}, &fakeStore{}))

			call, err := d.Dispatch(context.Background(), newHandle(t), tt.role, textUpdate(tt.text))
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			assertSendMessage(t, call, tt.wantText)
		})
	}
}

func TestDispatchNoAction(t *testing.T) {
	t.Parallel()

	d := dispatch.NewDispatcher(newDeps(&fakeRegistrar{}, &fakeStore{}))
	h := newHandle(t)

	tests := []struct {
		name   string
		update *models.Update
	}{
		{name: "nil update", update: nil},
		{name: "update without message", update: &models.Update{ID: 5}},
		{name: "message without text", update: textUpdate("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			call, err := d.Dispatch(context.Background(), h, dispatch.RoleMain, tt.update)
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if call != nil {
				t.Errorf("Dispatch() = %+v, want no action", call)
			}
		})
	}
}

func TestAddMinionRegistersWebhook(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	d := dispatch.NewDispatcher(newDeps(reg, &fakeStore{}))

	call, err := d.Dispatch(context.Background(), newHandle(t), dispatch.RoleMain,
		textUpdate("/add_minion "+minionTestToken))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	assertSendMessage(t, call, "Minion added")

	wantURL := "https://bots.example.com/webhook/telegram/" + minionTestToken
	if len(reg.calls) != 1 || reg.calls[0] != wantURL {
		t.Errorf("registered webhooks = %v, want [%s]", reg.calls, wantURL)
	}
}

func TestAddMinionRegistrationFailure(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{err: errors.New("telegram rejected token")}
	d := dispatch.NewDispatcher(newDeps(reg, &fakeStore{}))

	call, err := d.Dispatch(context.Background(), newHandle(t), dispatch.RoleMain,
		textUpdate("/add_minion "+minionTestToken))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	assertSendMessage(t, call, "Invalid token")
}

func TestMinionsReport(t *testing.T) {
	t.Parallel()

	lastSeen := time.Date(2025, 8, 30, 12, 30, 0, 0, time.UTC)

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		d := dispatch.NewDispatcher(newDeps(&fakeRegistrar{}, &fakeStore{}))
		call, err := d.Dispatch(context.Background(), newHandle(t), dispatch.RoleMain, textUpdate("/minions"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		assertSendMessage(t, call, "No minions seen yet")
	})

	t.Run("one minion", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{minions: []database.Instance{
			{Token: minionTestToken, Role: database.RoleMinion, LastSeen: lastSeen, UpdateCount: 3},
		}}
		d := dispatch.NewDispatcher(newDeps(&fakeRegistrar{}, store))

		call, err := d.Dispatch(context.Background(), newHandle(t), dispatch.RoleMain, textUpdate("/minions"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		assertSendMessage(t, call, "Known minions:\n98765432...: 3 updates, last seen 2025-08-30 12:30\n")
	})

	t.Run("store failure is a user-visible reply", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{err: errors.New("db gone")}
		d := dispatch.NewDispatcher(newDeps(&fakeRegistrar{}, store))

		call, err := d.Dispatch(context.Background(), newHandle(t), dispatch.RoleMain, textUpdate("/minions"))
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		assertSendMessage(t, call, "An error occurred. Please try again later.")
	})
}
