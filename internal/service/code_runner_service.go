package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/pkg/fallback"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/tracing"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	judgeStatusAccepted = 3
	defaultJavaLanguage = 62
)

var publicClassName = regexp.MustCompile(`public\s+class\s+([A-Za-z_][A-Za-z0-9_]*)`)

// CodeRunnerService 三级执行：远程判题 -> 本地 javac/java -> 静态模拟
type CodeRunnerService struct {
	mu       sync.RWMutex
	judge    config.Judge0Config
	runner   config.RunnerConfig
	client   *http.Client
	lookPath func(string) (string, error)
}

func NewCodeRunnerService(judge config.Judge0Config, runner config.RunnerConfig) *CodeRunnerService {
	return &CodeRunnerService{
		judge:    judge,
		runner:   runner,
		client:   &http.Client{},
		lookPath: exec.LookPath,
	}
}

// UpdateConfig 配置热更新
func (s *CodeRunnerService) UpdateConfig(judge config.Judge0Config, runner config.RunnerConfig) {
	s.mu.Lock()
	s.judge = judge
	s.runner = runner
	s.mu.Unlock()
}

func (s *CodeRunnerService) snapshot() (config.Judge0Config, config.RunnerConfig) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.judge, s.runner
}

// Run 总会返回结果，Runner 与 Note 标明执行层级及降级原因
func (s *CodeRunnerService) Run(ctx context.Context, source string) *model.ExecutionResult {
	ctx, span := tracing.Tracer.Start(ctx, "runner.Run")
	defer span.End()

	judge, runner := s.snapshot()
	steps := []fallback.Step[*model.ExecutionResult]{
		{Name: model.RunnerRemote, Try: func(ctx context.Context) (*model.ExecutionResult, error) {
			return s.runRemote(ctx, judge, source)
		}},
		{Name: model.RunnerLocal, Try: func(ctx context.Context) (*model.ExecutionResult, error) {
			return s.runLocal(ctx, runner, source)
		}},
	}
	result := fallback.Resolve(ctx, steps, fallback.Terminal[*model.ExecutionResult]{
		Name: model.RunnerSimulated,
		Run: func(_ context.Context, notes []string) *model.ExecutionResult {
			return simulate(source)
		},
	})

	res := result.Value
	res.Runner = result.Tier
	res.Note = runnerNote(result.Tier, result.Notes)

	span.SetAttributes(attribute.String("runner", res.Runner), attribute.String("status", res.Status))
	monitoring.CodeRunnerResults.WithLabelValues(res.Runner, res.Status).Inc()
	if len(result.Notes) > 0 {
		logger.Log.Info("Code runner fell through",
			zap.String("runner", res.Runner),
			zap.Strings("notes", result.Notes))
	}
	return res
}

func runnerNote(tier string, notes []string) string {
	var tail string
	switch tier {
	case model.RunnerRemote:
		tail = "Executed by remote judge."
	case model.RunnerLocal:
		tail = "Executed locally using javac/java."
	default:
		tail = "Switched to simulated execution."
	}
	if len(notes) == 0 {
		return tail
	}
	return strings.Join(notes, "; ") + ". " + tail
}

type judgeSubmission struct {
	LanguageID int    `json:"language_id"`
	SourceCode string `json:"source_code"`
}

type judgeResponse struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Status        *struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

func (s *CodeRunnerService) runRemote(ctx context.Context, cfg config.Judge0Config, source string) (*model.ExecutionResult, error) {
	if strings.TrimSpace(cfg.URL) == "" || isPlaceholder(cfg.APIKey) || isPlaceholder(cfg.Host) {
		return nil, errors.New("remote judge skipped: credentials not configured")
	}
	languageID := cfg.LanguageID
	if languageID == 0 {
		languageID = defaultJavaLanguage
	}

	body, err := json.Marshal(judgeSubmission{LanguageID: languageID, SourceCode: source})
	if err != nil {
		return nil, fmt.Errorf("remote judge encode error: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	url := strings.TrimRight(cfg.URL, "/") + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote judge request error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", cfg.Host)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote judge network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("remote judge HTTP error (%d)", resp.StatusCode)
	}

	var payload judgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("remote judge decode error: %v", err)
	}

	res := &model.ExecutionResult{
		Status:      model.ExecError,
		Stdout:      deref(payload.Stdout),
		Stderr:      deref(payload.Stderr),
		JudgeStatus: "unknown",
	}
	if res.Stderr == "" {
		res.Stderr = deref(payload.CompileOutput)
	}
	if payload.Status != nil {
		if payload.Status.ID == judgeStatusAccepted {
			res.Status = model.ExecSuccess
		}
		if payload.Status.Description != "" {
			res.JudgeStatus = payload.Status.Description
		}
	}
	return res, nil
}

func (s *CodeRunnerService) runLocal(ctx context.Context, cfg config.RunnerConfig, source string) (*model.ExecutionResult, error) {
	javac, errC := s.lookPath("javac")
	java, errJ := s.lookPath("java")
	if errC != nil || errJ != nil {
		return nil, errors.New("local toolchain skipped: javac/java not found")
	}

	className := "Main"
	if m := publicClassName.FindStringSubmatch(source); len(m) == 2 {
		className = m[1]
	}

	dir, err := os.MkdirTemp("", "adaptive_java_")
	if err != nil {
		return nil, fmt.Errorf("local toolchain skipped: %v", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, className+".java")
	if err := os.WriteFile(file, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("local toolchain skipped: %v", err)
	}

	stdout, stderr, code, err := execBounded(ctx, cfg, dir, javac, file)
	if err != nil {
		return localFailure(err), nil
	}
	if code != 0 {
		if stderr == "" {
			stderr = "Compilation failed."
		}
		return &model.ExecutionResult{Status: model.ExecError, Stdout: stdout, Stderr: stderr, JudgeStatus: "local_compile_error"}, nil
	}

	stdout, stderr, code, err = execBounded(ctx, cfg, dir, java, "-cp", dir, className)
	if err != nil {
		return localFailure(err), nil
	}
	res := &model.ExecutionResult{Status: model.ExecSuccess, Stdout: stdout, Stderr: stderr, JudgeStatus: "local_success"}
	if code != 0 {
		res.Status = model.ExecError
		res.JudgeStatus = "local_runtime_error"
	}
	return res, nil
}

var errLocalTimeout = errors.New("execution timed out")

// execBounded 返回进程输出和退出码，超时或无法启动时返回 error
func execBounded(ctx context.Context, cfg config.RunnerConfig, dir, bin string, args ...string) (string, string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.LocalTimeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout.String(), stderr.String(), -1, errLocalTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return "", "", -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}

func localFailure(err error) *model.ExecutionResult {
	if errors.Is(err, errLocalTimeout) {
		return &model.ExecutionResult{Status: model.ExecError, Stderr: "Execution timed out.", JudgeStatus: "local_timeout"}
	}
	return &model.ExecutionResult{Status: model.ExecError, Stderr: "Local execution failed: " + err.Error(), JudgeStatus: "local_error"}
}

// simulate 根据源码中的结构特征给出模拟输出
func simulate(source string) *model.ExecutionResult {
	res := &model.ExecutionResult{JudgeStatus: "simulation"}
	if !validStarterCode(source) {
		res.Status = model.ExecError
		res.Stderr = "Simulated compile error: class/main method not found."
		return res
	}

	var hints []string
	if strings.Contains(source, "try") && strings.Contains(source, "catch") {
		hints = append(hints, "Detected try-catch block.")
	}
	if strings.Contains(source, "finally") {
		hints = append(hints, "Detected finally block.")
	}
	if strings.Contains(source, "/ 0") || strings.Contains(source, "throw new") {
		hints = append(hints, "Possible exception path identified.")
	}

	res.Status = model.ExecSuccess
	res.Stdout = strings.Join(append([]string{"Simulated execution success."}, hints...), " ")
	return res
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
