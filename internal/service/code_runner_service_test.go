package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const helloSource = "public class Hello {\n  public static void main(String[] args) {\n    System.out.println(\"hi\");\n  }\n}"

func noToolchain(string) (string, error) {
	return "", errors.New("not found")
}

func newTestRunner(judge config.Judge0Config) *CodeRunnerService {
	s := NewCodeRunnerService(judge, config.RunnerConfig{LocalTimeoutSeconds: 2})
	s.lookPath = noToolchain
	return s
}

func TestRunSimulatedWithoutCredentialsOrToolchain(t *testing.T) {
	res := newTestRunner(config.Judge0Config{}).Run(context.Background(), "class X { public static void main(String[] a) { System.out.println(1); } }")
	if res.Status != model.ExecSuccess || res.Runner != model.RunnerSimulated {
		t.Fatalf("want success/simulated got %s/%s", res.Status, res.Runner)
	}
	if res.Stdout != "Simulated execution success." {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	for _, want := range []string{"remote judge skipped", "local toolchain skipped", "simulated"} {
		if !strings.Contains(res.Note, want) {
			t.Fatalf("note %q missing %q", res.Note, want)
		}
	}
}

func TestSimulationHints(t *testing.T) {
	res := simulate("public class Main { public static void main(String[] a) { try { int x = 1 / 0; } catch (Exception e) {} finally {} } }")
	want := "Simulated execution success. Detected try-catch block. Detected finally block. Possible exception path identified."
	if res.Stdout != want {
		t.Fatalf("want=%q got=%q", want, res.Stdout)
	}

	res = simulate("System.out.println(1);")
	if res.Status != model.ExecError || !strings.Contains(res.Stderr, "class/main method not found") {
		t.Fatalf("missing class must be an error, got %+v", res)
	}
}

func TestPlaceholderCredentialsSkipRemote(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	for _, key := range []string{"your-rapidapi-key", "changeme", "None", "null", ""} {
		res := newTestRunner(config.Judge0Config{URL: srv.URL, APIKey: key, Host: "judge0.example.com"}).Run(context.Background(), helloSource)
		if res.Runner != model.RunnerSimulated {
			t.Fatalf("key %q: want simulated got %s", key, res.Runner)
		}
	}
	res := newTestRunner(config.Judge0Config{URL: srv.URL, APIKey: "real", Host: "your-judge0-host"}).Run(context.Background(), helloSource)
	if res.Runner != model.RunnerSimulated {
		t.Fatalf("placeholder host: want simulated got %s", res.Runner)
	}
	if called {
		t.Fatalf("remote judge must not be contacted with placeholder credentials")
	}
}

func TestRemoteJudge(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus string
		wantStderr string
		wantJudge  string
	}{
		{"accepted", `{"stdout":"hi\n","stderr":null,"status":{"id":3,"description":"Accepted"}}`, model.ExecSuccess, "", "Accepted"},
		{"compile error", `{"stdout":null,"stderr":null,"compile_output":"Main.java:1: error","status":{"id":6,"description":"Compilation Error"}}`, model.ExecError, "Main.java:1: error", "Compilation Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/submissions" || r.URL.Query().Get("wait") != "true" || r.URL.Query().Get("base64_encoded") != "false" {
					t.Errorf("unexpected url %s", r.URL.String())
				}
				if r.Header.Get("X-RapidAPI-Key") != "key" || r.Header.Get("X-RapidAPI-Host") != "judge0.example.com" {
					t.Errorf("missing rapidapi headers")
				}
				var sub judgeSubmission
				json.NewDecoder(r.Body).Decode(&sub)
				if sub.LanguageID != 62 || sub.SourceCode != helloSource {
					t.Errorf("unexpected submission %+v", sub)
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := newTestRunner(config.Judge0Config{URL: srv.URL + "/", APIKey: "key", Host: "judge0.example.com", LanguageID: 62}).Run(context.Background(), helloSource)
			if res.Runner != model.RunnerRemote || res.Status != tt.wantStatus {
				t.Fatalf("want %s/remote got %s/%s", tt.wantStatus, res.Status, res.Runner)
			}
			if res.Stderr != tt.wantStderr || res.JudgeStatus != tt.wantJudge {
				t.Fatalf("want stderr=%q judge=%q got stderr=%q judge=%q", tt.wantStderr, tt.wantJudge, res.Stderr, res.JudgeStatus)
			}
		})
	}
}

func TestRemoteHTTPErrorFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := newTestRunner(config.Judge0Config{URL: srv.URL, APIKey: "key", Host: "judge0.example.com"}).Run(context.Background(), helloSource)
	if res.Runner != model.RunnerSimulated {
		t.Fatalf("want simulated got %s", res.Runner)
	}
	if !strings.Contains(res.Note, "remote judge HTTP error (500)") {
		t.Fatalf("note must explain the remote failure, got %q", res.Note)
	}
}

func TestRunnerTagAlwaysPresent(t *testing.T) {
	runner := newTestRunner(config.Judge0Config{})
	for _, src := range []string{"", "garbage", helloSource} {
		res := runner.Run(context.Background(), src)
		if res.Runner == "" || res.Note == "" {
			t.Fatalf("source %q: runner=%q note=%q", src, res.Runner, res.Note)
		}
		if res.Status != model.ExecSuccess && res.Status != model.ExecError {
			t.Fatalf("source %q: unexpected status %q", src, res.Status)
		}
	}
}

func TestPublicClassName(t *testing.T) {
	m := publicClassName.FindStringSubmatch(helloSource)
	if len(m) != 2 || m[1] != "Hello" {
		t.Fatalf("want Hello got %v", m)
	}
}
