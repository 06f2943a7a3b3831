// internal/api/service.go

// Package api to granica między rdzeniem a UI: jedna metoda na intencję
// użytkownika, każda zwraca Result i nigdy nie panikuje.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sftpTerm/internal/config"
	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/files"
	"sftpTerm/internal/models"
	"sftpTerm/internal/privileged"
	"sftpTerm/internal/session"
	"sftpTerm/internal/ssh"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
)

// Result to jednolity kształt odpowiedzi. Kind zawiera typ błędu
// (np. "permission_denied"), na podstawie którego UI proponuje sudo.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	// Space wskazuje stronę, po której wystąpił błąd; Local wyklucza sudo
	Space models.Space `json:"space,omitempty"`
	// HostKey jest ustawiony, gdy połączenie czeka na akceptację klucza hosta
	HostKey *HostKeyPrompt `json:"hostKey,omitempty"`

	Files       []models.FileEntry `json:"files,omitempty"`
	Data        []byte             `json:"data,omitempty"`
	Path        string             `json:"path,omitempty"`
	Profile     *models.Profile    `json:"profile,omitempty"`
	Profiles    []models.Profile   `json:"profiles,omitempty"`
	Output      string             `json:"output,omitempty"`
	ExitCode    int                `json:"exitCode,omitempty"`
	WindowState json.RawMessage    `json:"windowState,omitempty"`
}

type HostKeyPrompt struct {
	Host        string `json:"host"`
	Fingerprint string `json:"fingerprint"`
}

// NeedsSudo mówi, czy operację można ponowić z eskalacją. Błędy po
// stronie lokalnej nigdy się nie kwalifikują.
func (r Result) NeedsSudo() bool {
	return !r.Success && r.Kind == apperr.PermissionDenied.String() && r.Space != models.Local
}

func ok() Result {
	return Result{Success: true}
}

func fail(err error) Result {
	res := Result{
		Success: false,
		Error:   err.Error(),
		Kind:    apperr.TypeOf(err).String(),
	}
	var local *files.LocalError
	if errors.As(err, &local) {
		res.Space = models.Local
	}
	var unknown *ssh.HostKeyVerificationRequired
	if errors.As(err, &unknown) {
		res.HostKey = &HostKeyPrompt{Host: unknown.Host, Fingerprint: unknown.Fingerprint}
	}
	return res
}

// HostKeyTrust zapisuje klucz hosta zaakceptowany przez użytkownika
type HostKeyTrust interface {
	AcceptPending(host, fingerprint string) error
}

type Option func(*Service)

func WithHostKeys(trust HostKeyTrust) Option {
	return func(s *Service) {
		s.hostKeys = trust
	}
}

type Service struct {
	session  *session.Manager
	files    *files.Coordinator
	executor *privileged.Executor
	registry *config.Manager
	hostKeys HostKeyTrust
	logger   *zap.Logger
}

func New(sess *session.Manager, coord *files.Coordinator, executor *privileged.Executor, registry *config.Manager, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		session:  sess,
		files:    coord,
		executor: executor,
		registry: registry,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// guard zamienia panikę w wynik z błędem
func (s *Service) guard(op string, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in boundary call", zap.String("op", op), zap.Any("panic", r))
			res = fail(apperr.New(apperr.TransportError, fmt.Sprintf("%s: internal error", op), fmt.Errorf("%v", r)))
		}
	}()
	res = fn()
	if !res.Success {
		s.logger.Debug("boundary call failed",
			zap.String("op", op),
			zap.String("kind", res.Kind),
			zap.String("error", res.Error))
	}
	return res
}

func (s *Service) simple(op string, fn func() error) Result {
	return s.guard(op, func() Result {
		if err := fn(); err != nil {
			return fail(err)
		}
		return ok()
	})
}

// --- sesja ---

func (s *Service) Connect(ctx context.Context, creds models.Credentials) Result {
	return s.simple("connect", func() error { return s.session.Connect(ctx, creds) })
}

// ConnectSaved łączy się z zapisanym profilem
func (s *Service) ConnectSaved(ctx context.Context, id string) Result {
	return s.guard("connectSaved", func() Result {
		p, err := s.registry.GetConnection(id)
		if err != nil {
			return fail(err)
		}
		if err := s.session.Connect(ctx, p.Credentials()); err != nil {
			return fail(err)
		}
		return Result{Success: true, Profile: &p}
	})
}

// AcceptHostKey zapisuje odrzucony wcześniej klucz hosta, jeśli odcisk
// zgadza się z tym, który zobaczył użytkownik
func (s *Service) AcceptHostKey(host, fingerprint string) Result {
	return s.simple("acceptHostKey", func() error {
		if s.hostKeys == nil {
			return apperr.New(apperr.ValidationError, "host key acceptance is not available", nil)
		}
		if err := s.hostKeys.AcceptPending(host, fingerprint); err != nil {
			return apperr.New(apperr.ValidationError, fmt.Sprintf("cannot accept host key for %s", host), err)
		}
		return nil
	})
}

func (s *Service) Disconnect(ctx context.Context) Result {
	return s.simple("disconnect", func() error { return s.session.Disconnect(ctx) })
}

// ResetClient porzuca oba adaptery (SFTP i powłokę)
func (s *Service) ResetClient() Result {
	return s.simple("resetClient", func() error {
		s.session.Reset()
		return nil
	})
}

func (s *Service) Connected() bool {
	return s.session.Connected()
}

// --- pliki ---

func (s *Service) List(ctx context.Context, path string) Result {
	return s.listSpace(ctx, models.Remote, path)
}

func (s *Service) ListLocal(ctx context.Context, path string) Result {
	return s.listSpace(ctx, models.Local, path)
}

func (s *Service) listSpace(ctx context.Context, space models.Space, path string) Result {
	return s.guard("list", func() Result {
		entries, err := s.files.List(ctx, space, path)
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Files: entries, Path: path}
	})
}

func (s *Service) Get(ctx context.Context, path string, useSudo bool) Result {
	return s.guard("get", func() Result {
		data, err := s.files.Get(ctx, path, useSudo)
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Data: data, Path: path}
	})
}

func (s *Service) Put(ctx context.Context, localPath, remotePath string, useSudo bool) Result {
	return s.simple("put", func() error { return s.files.Put(ctx, localPath, remotePath, useSudo) })
}

// Download pobiera plik zdalny do katalogu lokalnego
func (s *Service) Download(ctx context.Context, remotePath, localDir string, useSudo bool) Result {
	return s.guard("download", func() Result {
		target, err := s.files.Download(ctx, remotePath, localDir, useSudo)
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Path: target}
	})
}

func (s *Service) DeleteLocal(ctx context.Context, path string, isDir bool) Result {
	return s.simple("deleteLocal", func() error { return s.files.Delete(ctx, models.Local, path, isDir, false) })
}

func (s *Service) DeleteRemote(ctx context.Context, path string, isDir, useSudo bool) Result {
	return s.simple("deleteRemote", func() error { return s.files.Delete(ctx, models.Remote, path, isDir, useSudo) })
}

func (s *Service) CreateLocalFile(ctx context.Context, path string) Result {
	return s.simple("createLocalFile", func() error { return s.files.CreateFile(ctx, models.Local, path, false) })
}

func (s *Service) CreateRemoteFile(ctx context.Context, path string, useSudo bool) Result {
	return s.simple("createRemoteFile", func() error { return s.files.CreateFile(ctx, models.Remote, path, useSudo) })
}

func (s *Service) CreateLocalFolder(ctx context.Context, path string) Result {
	return s.simple("createLocalFolder", func() error { return s.files.CreateFolder(ctx, models.Local, path, false) })
}

func (s *Service) CreateRemoteFolder(ctx context.Context, path string, useSudo bool) Result {
	return s.simple("createRemoteFolder", func() error { return s.files.CreateFolder(ctx, models.Remote, path, useSudo) })
}

// SaveFile zapisuje dane w miejscu wybranym przez użytkownika. Pusty Path
// przy sukcesie oznacza anulowanie.
func (s *Service) SaveFile(ctx context.Context, data []byte, name string) Result {
	return s.guard("saveFile", func() Result {
		target, err := s.files.SaveToDisk(ctx, data, name)
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Path: target}
	})
}

func (s *Service) GetDesktopPath(ctx context.Context) Result {
	return s.pathResult("getDesktopPath", func() (string, error) { return s.files.DesktopPath(ctx) })
}

func (s *Service) GetCurrentDirectory() Result {
	return s.pathResult("getCurrentDirectory", s.files.CurrentDirectory)
}

func (s *Service) GetLocalHome(ctx context.Context) Result {
	return s.pathResult("getLocalHome", func() (string, error) { return s.files.LocalHome(ctx) })
}

func (s *Service) GetRemoteHome(ctx context.Context) Result {
	return s.pathResult("getRemoteHome", func() (string, error) { return s.files.RemoteHome(ctx) })
}

func (s *Service) pathResult(op string, fn func() (string, error)) Result {
	return s.guard(op, func() Result {
		p, err := fn()
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Path: p}
	})
}

// --- rejestr połączeń ---

func (s *Service) SaveConnection(profile models.Profile) Result {
	return s.guard("saveConnection", func() Result {
		saved, err := s.registry.SaveConnection(profile)
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Profile: &saved}
	})
}

func (s *Service) GetSavedConnections() Result {
	return s.guard("getSavedConnections", func() Result {
		return Result{Success: true, Profiles: s.registry.GetConnections()}
	})
}

func (s *Service) GetSavedConnection(id string) Result {
	return s.guard("getSavedConnection", func() Result {
		p, err := s.registry.GetConnection(id)
		if err != nil {
			return fail(err)
		}
		return Result{Success: true, Profile: &p}
	})
}

func (s *Service) DeleteConnection(id string) Result {
	return s.simple("deleteConnection", func() error { return s.registry.DeleteConnection(id) })
}

func (s *Service) WindowState() Result {
	return s.guard("windowState", func() Result {
		return Result{Success: true, WindowState: s.registry.WindowState()}
	})
}

func (s *Service) SaveWindowState(state json.RawMessage) Result {
	return s.simple("saveWindowState", func() error { return s.registry.SetWindowState(state) })
}

// --- powłoka ---

func (s *Service) WriteShell(data []byte) Result {
	return s.simple("writeShell", func() error { return s.session.WriteShell(data) })
}

func (s *Service) ResizeShell(width, height int) Result {
	return s.simple("resizeShell", func() error { return s.session.ResizeShell(width, height) })
}

// SubscribeShell zwraca strumień wyjścia powłoki związany z bieżącym
// połączeniem. Kanał zamyka się przy rozłączeniu.
func (s *Service) SubscribeShell() (Result, <-chan []byte, func()) {
	var (
		out    <-chan []byte
		cancel func()
	)
	res := s.guard("subscribeShell", func() Result {
		ch, c, err := s.session.Subscribe()
		if err != nil {
			return fail(err)
		}
		out, cancel = ch, c
		return ok()
	})
	if cancel == nil {
		cancel = func() {}
	}
	return res, out, cancel
}

// ExecuteSudoCommand uruchamia polecenie przez sudo na osobnym połączeniu.
// Success odpowiada kodowi wyjścia 0.
func (s *Service) ExecuteSudoCommand(ctx context.Context, name string, args ...string) Result {
	return s.guard("executeSudoCommand", func() Result {
		out, err := s.executor.Execute(ctx, privileged.Operation{
			Kind:    privileged.RunCommand,
			Command: transport.Command{Name: name, Args: args},
		}, true)
		if err != nil {
			return fail(err)
		}
		res := Result{
			Success:  out.Exec.Success(),
			Output:   string(out.Exec.Output),
			ExitCode: out.Exec.ExitCode,
		}
		if !res.Success {
			res.Error = fmt.Sprintf("command exited with status %d", out.Exec.ExitCode)
			res.Kind = apperr.TransportError.String()
		}
		return res
	})
}
