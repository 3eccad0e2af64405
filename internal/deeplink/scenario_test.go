package deeplink_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/circlapp/circl-link-agent/internal/deeplink"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/circlapi"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/memory"
	"github.com/circlapp/circl-link-agent/internal/repository"
	"github.com/circlapp/circl-link-agent/internal/session"
	"github.com/circlapp/circl-link-agent/internal/usecase"
)

// fakeCircl answers resolve_invite with circle 42 and records join bodies.
type fakeCircl struct {
	mu    sync.Mutex
	joins []string
}

func (f *fakeCircl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/circles/resolve_invite/ABCD1234/":
		_, _ = io.WriteString(w, `{"circle_id": 42}`)
	case "/api/circles/join_circle/":
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.joins = append(f.joins, string(data))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeCircl) joinBodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.joins...)
}

type scenario struct {
	backend  *fakeCircl
	sess     *session.Session
	receiver *deeplink.Receiver
}

func newScenario(t *testing.T, userID string) *scenario {
	t.Helper()
	backend := &fakeCircl{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	prefs := memory.NewPreferenceRepository()
	if userID != "" {
		if err := prefs.Set(context.Background(), repository.KeyUserID, userID); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := circlapi.New(srv.URL+"/api", 5*time.Second)
	sess := session.New()
	invites := usecase.NewInviteUsecase(client, prefs, sess, logger)
	checkIns := usecase.NewCheckInUsecase(client, prefs, logger)
	return &scenario{
		backend:  backend,
		sess:     sess,
		receiver: deeplink.NewReceiver(deeplink.NewParser("circl", "circlapp.online"), invites, checkIns, logger),
	}
}

func TestScenario_LoggedInUserJoinsOnce(t *testing.T) {
	sc := newScenario(t, "7")

	if _, err := sc.receiver.Open(context.Background(), "circl://invite/ABCD1234"); err != nil {
		t.Fatalf("open: %v", err)
	}
	sc.receiver.Wait()

	joins := sc.backend.joinBodies()
	if len(joins) != 1 {
		t.Fatalf("join POSTs = %d, want 1", len(joins))
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(joins[0]), &body); err != nil {
		t.Fatalf("decode join body: %v", err)
	}
	if body["circle_id"] != 42.0 || body["user_id"] != 7.0 || body["via_invite"] != true {
		t.Errorf("join body = %s, want circle_id 42, user_id 7, via_invite true", joins[0])
	}
	if sc.sess.Pending() != nil {
		t.Errorf("pending slot = %d, want empty", *sc.sess.Pending())
	}
}

func TestScenario_LoggedOutUserDefers(t *testing.T) {
	sc := newScenario(t, "0")

	if _, err := sc.receiver.Open(context.Background(), "circl://invite/ABCD1234"); err != nil {
		t.Fatalf("open: %v", err)
	}
	sc.receiver.Wait()

	if n := len(sc.backend.joinBodies()); n != 0 {
		t.Fatalf("join POSTs = %d, want 0", n)
	}
	if p := sc.sess.Pending(); p == nil || *p != 42 {
		t.Fatalf("pending = %v, want 42", p)
	}
}

func TestScenario_UnresolvableTokenNoJoin(t *testing.T) {
	sc := newScenario(t, "7")

	if _, err := sc.receiver.Continue(context.Background(), "https://circlapp.online/invite/UNKNOWN/", false); err != nil {
		t.Fatalf("continue: %v", err)
	}
	sc.receiver.Wait()

	if n := len(sc.backend.joinBodies()); n != 0 {
		t.Fatalf("join POSTs = %d, want 0", n)
	}
}
