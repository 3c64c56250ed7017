package classifier

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/ayusman/waveoff/internal/detector"
)

// ErrNoModel is returned when a Service is configured without a model file.
var ErrNoModel = errors.New("classifier model not configured")

// ServiceConfig describes a model host subprocess.
type ServiceConfig struct {
	// Name identifies the classifier in logs.
	Name string
	// Model is the trained model file passed to the helper.
	Model string
	// Script is the helper script. Empty searches the usual install locations.
	Script string
	// Python is the interpreter. Empty prefers a local virtual environment.
	Python string
	// Dim is the expected feature length; zero disables the check.
	Dim int
	// IdleTimeout stops the helper after a period without requests.
	IdleTimeout time.Duration
}

// Service classifies feature vectors with a trained model hosted in a helper
// process. Requests are `{"features":[...]}` lines on stdin; the helper
// answers `{"id":n}` or `{"error":"..."}` on stdout.
type Service struct {
	config    ServiceConfig
	script    string
	python    string
	logger    *slog.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

type serviceRequest struct {
	Features []float64 `json:"features"`
}

type serviceResponse struct {
	ID    *int   `json:"id"`
	Error string `json:"error"`
}

// NewService validates config. The helper is started lazily.
func NewService(config ServiceConfig, logger *slog.Logger) (*Service, error) {
	if config.Model == "" {
		return nil, ErrNoModel
	}
	if _, err := os.Stat(config.Model); err != nil {
		return nil, fmt.Errorf("classifier model: %w", err)
	}

	script := config.Script
	if script == "" {
		script = detector.FindScript("classifier_service.py")
	}
	if script == "" {
		return nil, fmt.Errorf("classifier_service.py not found")
	}

	python := config.Python
	if python == "" {
		python = detector.FindVenvPython()
	}
	if python == "" {
		python = "python3"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Name == "" {
		config.Name = "classifier"
	}

	return &Service{
		config: config,
		script: script,
		python: python,
		logger: logger.With("component", config.Name),
	}, nil
}

// Classify sends features to the helper and returns the class id. A
// cancelled context stops the helper so the next call starts clean.
func (s *Service) Classify(ctx context.Context, features []float64) (int, error) {
	if s.config.Dim > 0 && len(features) != s.config.Dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(features), s.config.Dim)
	}

	payload, err := json.Marshal(serviceRequest{Features: features})
	if err != nil {
		return 0, fmt.Errorf("encode features: %w", err)
	}
	payload = append(payload, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ensureStarted(); err != nil {
		return 0, err
	}

	type reply struct {
		id  int
		err error
	}
	done := make(chan reply, 1)
	go func() {
		id, err := s.exchange(payload)
		done <- reply{id: id, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			s.logger.Warn("classifier exchange failed, restarting helper", "error", r.err)
			_ = s.shutdown()
			return 0, r.err
		}
		s.resetIdleTimer()
		return r.id, nil
	case <-ctx.Done():
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-done
		_ = s.shutdown()
		return 0, ctx.Err()
	}
}

func (s *Service) exchange(payload []byte) (int, error) {
	if _, err := s.stdin.Write(payload); err != nil {
		return 0, fmt.Errorf("write request: %w", err)
	}

	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var response serviceResponse
	if err := json.Unmarshal(line, &response); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return 0, fmt.Errorf("%s: %s", s.config.Name, response.Error)
	}
	if response.ID == nil {
		return 0, fmt.Errorf("%s: response missing id", s.config.Name)
	}
	return *response.ID, nil
}

// Close stops the helper process.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *Service) ensureStarted() error {
	if s.started {
		return nil
	}

	s.cmd = exec.Command(s.python, s.script, "--model", s.config.Model)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.config.Name, err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	s.logger.Info("classifier helper started", "model", s.config.Model, "pid", s.cmd.Process.Pid)
	return nil
}

func (s *Service) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	s.logger.Info("classifier helper stopped")
	return err
}

func (s *Service) resetIdleTimer() {
	if s.config.IdleTimeout <= 0 {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.config.IdleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown()
	})
}
