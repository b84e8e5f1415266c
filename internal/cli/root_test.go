package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ravello-tools/ravello-rtc/internal/clock"
	"github.com/ravello-tools/ravello-rtc/internal/config"
	"github.com/ravello-tools/ravello-rtc/internal/ravello"
)

// rtcService is a minimal fake of the remote API, just enough to run
// the command end to end: login, list, get, update, publishUpdates.
type rtcService struct {
	app      *ravello.Application
	puts     int
	publishs int
}

func startService(t *testing.T, app *ravello.Application) (*rtcService, *httptest.Server) {
	svc := &rtcService{app: app}
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if u, p, ok := r.BasicAuth(); !ok || u != "admin" || p != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok"})
	})
	mux.HandleFunc("/applications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]ravello.Application{{ID: svc.app.ID, Name: svc.app.Name, Published: svc.app.Published}})
	})
	mux.HandleFunc("/applications/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/applications/")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(rest, "/publishUpdates"):
			svc.publishs++
		case r.Method == http.MethodGet && !strings.Contains(rest, "/"):
			json.NewEncoder(w).Encode(svc.app)
		case r.Method == http.MethodPut && !strings.Contains(rest, "/"):
			svc.puts++
			var in ravello.Application
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			*svc.app = in
			json.NewEncoder(w).Encode(svc.app)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return svc, srv
}

func demoApp(published bool) *ravello.Application {
	return &ravello.Application{
		ID:        42,
		Name:      "demo",
		Published: published,
		Design: ravello.Design{VMs: []ravello.VM{
			{ID: 101, Name: "web"},
			{ID: 102, Name: "db"},
		}},
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvNATSURL, "")
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunUpdatesAllVMsAndRepublishes(t *testing.T) {
	svc, srv := startService(t, demoApp(true))
	out, err := execute(t,
		"-u", "admin", "-p", "secret", "--url", srv.URL,
		"--absolute", "1700000000", "demo")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "republished") {
		t.Fatalf("output should mention republish: %q", out)
	}
	if svc.puts != 2 {
		t.Fatalf("update must be submitted exactly twice, got %d", svc.puts)
	}
	if svc.publishs != 1 {
		t.Fatalf("expected exactly one publishUpdates call, got %d", svc.publishs)
	}
	want := ravello.AbsoluteRTC(1700000000)
	for _, vm := range svc.app.Design.VMs {
		if vm.RTC == nil || *vm.RTC != want {
			t.Fatalf("vm %q rtc = %+v, want %+v", vm.Name, vm.RTC, want)
		}
	}
}

func TestRunSingleVMWithoutRepublish(t *testing.T) {
	svc, srv := startService(t, demoApp(false))
	out, err := execute(t,
		"-u", "admin", "-p", "secret", "--url", srv.URL,
		"--relative", "-3600", "demo", "db")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Contains(out, "republished") {
		t.Fatalf("output must not mention republish: %q", out)
	}
	if svc.publishs != 0 {
		t.Fatalf("publishUpdates must not be called, got %d", svc.publishs)
	}
	want := ravello.RelativeRTC(-3600)
	for _, vm := range svc.app.Design.VMs {
		if vm.Name == "db" {
			if vm.RTC == nil || *vm.RTC != want {
				t.Fatalf("target rtc = %+v, want %+v", vm.RTC, want)
			}
		} else if vm.RTC != nil {
			t.Fatalf("vm %q must be untouched, got %+v", vm.Name, vm.RTC)
		}
	}
}

func TestRunApplicationNotFound(t *testing.T) {
	svc, srv := startService(t, demoApp(false))
	_, err := execute(t,
		"-u", "admin", "-p", "secret", "--url", srv.URL,
		"--absolute", "1", "ghost")
	var nf *clock.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("error should name the identifier: %v", err)
	}
	if svc.puts != 0 || svc.publishs != 0 {
		t.Fatalf("no update/publish calls expected, got %d/%d", svc.puts, svc.publishs)
	}
}

func TestRunBadCredentialsSurfaceRemoteError(t *testing.T) {
	_, srv := startService(t, demoApp(false))
	_, err := execute(t,
		"-u", "admin", "-p", "wrong", "--url", srv.URL,
		"--absolute", "1", "demo")
	var apiErr *ravello.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}

func TestAbsoluteAndRelativeAreMutuallyExclusive(t *testing.T) {
	_, err := execute(t, "-u", "a", "-p", "b",
		"--absolute", "1", "--relative", "1", "demo")
	if err == nil {
		t.Fatal("expected a flag grammar error")
	}
}

func TestOneOfAbsoluteOrRelativeIsRequired(t *testing.T) {
	_, err := execute(t, "-u", "a", "-p", "b", "demo")
	if err == nil {
		t.Fatal("expected a flag grammar error")
	}
}

func TestMissingCredentialsIsValidationError(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvPassword, "")
	_, err := execute(t, "--absolute", "1", "demo")
	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
