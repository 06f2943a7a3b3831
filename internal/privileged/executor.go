// internal/privileged/executor.go

// Package privileged wykonuje operacje na plikach zdalnych z dwufazową
// eskalacją: najpierw zwykła próba, a po zgodzie użytkownika ścieżka sudo.
package privileged

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/logging"
	"sftpTerm/internal/models"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
)

// worldWritable to tryb ustawiany na celu zapisu z eskalacją
const worldWritable = 0o777

type Kind int

const (
	ReadFile Kind = iota
	WriteFile
	Delete
	CreateFolder
	CreateFile
	RunCommand
)

func (k Kind) String() string {
	switch k {
	case ReadFile:
		return "read-file"
	case WriteFile:
		return "write-file"
	case Delete:
		return "delete"
	case CreateFolder:
		return "create-folder"
	case CreateFile:
		return "create-file"
	case RunCommand:
		return "command"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operation opisuje jedną operację. Data dotyczy zapisu, Recursive usuwania
// katalogów, Command uruchamiania polecenia.
type Operation struct {
	Kind      Kind
	Path      string
	Data      []byte
	Recursive bool
	Command   transport.Command
}

// Outcome to wynik operacji; Data dla odczytu, Exec dla polecenia
type Outcome struct {
	Data []byte
	Exec transport.ExecResult
}

// Session dostarcza adapter SFTP i dane logowania aktywnej sesji
type Session interface {
	Files() (transport.FileSystem, models.Credentials, error)
}

// Executor nigdy nie używa interaktywnej powłoki sesji: każde polecenie
// z eskalacją idzie przez runner na osobnym połączeniu.
type Executor struct {
	session Session
	runner  transport.ElevatedRunner
	logger  *zap.Logger
}

type Option func(*Executor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New tworzy executor. runner może być nil - wtedy eskalacja wymagająca
// poleceń zwraca błąd.
func New(session Session, runner transport.ElevatedRunner, opts ...Option) *Executor {
	e := &Executor{session: session, runner: runner, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute wykonuje operację. Przy escalate=false odmowa dostępu kończy się
// błędem PermissionDenied bez ponowienia; decyzja o eskalacji należy do
// wywołującego.
func (e *Executor) Execute(ctx context.Context, op Operation, escalate bool) (Outcome, error) {
	if op.Kind != RunCommand && op.Path == "" {
		return Outcome{}, apperr.New(apperr.ValidationError, "path cannot be empty", nil)
	}

	fsys, creds, err := e.session.Files()
	if err != nil {
		return Outcome{}, err
	}

	log := e.logger.With(
		zap.Stringer("op", op.Kind),
		logging.Path(op.Path),
		zap.Bool("escalate", escalate))

	var out Outcome
	if escalate {
		out, err = e.elevated(ctx, fsys, creds, op)
	} else {
		out, err = e.base(ctx, fsys, op)
	}
	if err != nil {
		err = apperr.Classify(fmt.Sprintf("%s %s", op.Kind, op.Path), err)
		if apperr.Is(err, apperr.PermissionDenied) && !escalate {
			log.Info("permission denied, escalation required")
		} else {
			log.Warn("operation failed", zap.Error(err))
		}
		return out, err
	}
	log.Debug("operation completed")
	return out, nil
}

func (e *Executor) base(ctx context.Context, fsys transport.FileSystem, op Operation) (Outcome, error) {
	switch op.Kind {
	case ReadFile:
		data, err := fsys.Get(ctx, op.Path, transport.GetOptions{})
		return Outcome{Data: data}, err
	case WriteFile:
		return Outcome{}, fsys.Put(ctx, op.Data, op.Path, transport.PutOptions{})
	case Delete:
		if op.Recursive {
			return Outcome{}, fsys.RemoveAll(ctx, op.Path)
		}
		return Outcome{}, fsys.Remove(ctx, op.Path)
	case CreateFolder:
		return Outcome{}, fsys.Mkdir(ctx, op.Path)
	case CreateFile:
		return Outcome{}, fsys.Put(ctx, nil, op.Path, transport.PutOptions{Exclusive: true})
	case RunCommand:
		return Outcome{}, apperr.New(apperr.ValidationError, "commands always run elevated", nil)
	}
	return Outcome{}, apperr.New(apperr.ValidationError, fmt.Sprintf("unknown operation %s", op.Kind), nil)
}

func (e *Executor) elevated(ctx context.Context, fsys transport.FileSystem, creds models.Credentials, op Operation) (Outcome, error) {
	switch op.Kind {
	case ReadFile:
		return e.elevatedRead(ctx, fsys, creds, op.Path)

	case WriteFile:
		// touch + chmod są idempotentne, więc ponowienie jest bezpieczne
		if err := e.run(ctx, creds, "touch", "--", op.Path); err != nil {
			return Outcome{}, err
		}
		if err := e.run(ctx, creds, "chmod", fmt.Sprintf("%o", worldWritable), "--", op.Path); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, fsys.Put(ctx, op.Data, op.Path, transport.PutOptions{Mode: worldWritable})

	case Delete:
		// rm -f nie zgłasza braku celu, więc sprawdzamy go wcześniej
		if err := e.ensurePresent(ctx, fsys, op.Path); err != nil {
			return Outcome{}, err
		}
		flag := "-f"
		if op.Recursive {
			flag = "-rf"
		}
		return Outcome{}, e.run(ctx, creds, "rm", flag, "--", op.Path)

	case CreateFolder:
		if err := e.ensureAbsent(ctx, fsys, op.Path); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, e.run(ctx, creds, "mkdir", "--", op.Path)

	case CreateFile:
		if err := e.ensureAbsent(ctx, fsys, op.Path); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, e.run(ctx, creds, "touch", "--", op.Path)

	case RunCommand:
		if op.Command.Name == "" {
			return Outcome{}, apperr.New(apperr.ValidationError, "command cannot be empty", nil)
		}
		if e.runner == nil {
			return Outcome{}, apperr.New(apperr.ValidationError, "no elevated runner configured", nil)
		}
		res, err := e.runner.RunElevated(ctx, creds, op.Command)
		if err != nil {
			return Outcome{}, err
		}
		// Niezerowy kod wyjścia to wynik polecenia, nie błąd executora
		return Outcome{Exec: res}, nil
	}
	return Outcome{}, apperr.New(apperr.ValidationError, fmt.Sprintf("unknown operation %s", op.Kind), nil)
}

// elevatedRead próbuje najpierw odczytu z flagami tylko do odczytu, potem
// "cat" przez sudo
func (e *Executor) elevatedRead(ctx context.Context, fsys transport.FileSystem, creds models.Credentials, p string) (Outcome, error) {
	data, err := fsys.Get(ctx, p, transport.GetOptions{Elevated: true})
	if err == nil {
		return Outcome{Data: data}, nil
	}
	if !apperr.Is(apperr.Classify("read", err), apperr.PermissionDenied) || e.runner == nil {
		return Outcome{}, err
	}

	res, err := e.exec(ctx, creds, "cat", "--", p)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Data: res.Stdout}, nil
}

func (e *Executor) ensureAbsent(ctx context.Context, fsys transport.FileSystem, p string) error {
	_, err := fsys.Stat(ctx, p)
	if err == nil {
		return apperr.New(apperr.AlreadyExists, fmt.Sprintf("%s already exists", path.Base(p)), nil)
	}
	if apperr.Is(apperr.Classify("stat", err), apperr.NotFound) {
		return nil
	}
	// Brak prawa do stat rodzica nie przesądza o istnieniu celu - decyduje sudo
	if apperr.Is(apperr.Classify("stat", err), apperr.PermissionDenied) {
		return nil
	}
	return err
}

// ensurePresent zwraca NotFound, gdy cel nie istnieje; odmowa stat
// zostawia decyzję sudo
func (e *Executor) ensurePresent(ctx context.Context, fsys transport.FileSystem, p string) error {
	_, err := fsys.Stat(ctx, p)
	if err == nil {
		return nil
	}
	classified := apperr.Classify("stat", err)
	if apperr.Is(classified, apperr.PermissionDenied) {
		return nil
	}
	if apperr.Is(classified, apperr.NotFound) {
		return apperr.New(apperr.NotFound, fmt.Sprintf("%s not found", path.Base(p)), err)
	}
	return err
}

func (e *Executor) run(ctx context.Context, creds models.Credentials, name string, args ...string) error {
	_, err := e.exec(ctx, creds, name, args...)
	return err
}

// exec uruchamia polecenie pomocnicze; niezerowy kod wyjścia jest klasyfikowany
// na podstawie wyjścia polecenia
func (e *Executor) exec(ctx context.Context, creds models.Credentials, name string, args ...string) (transport.ExecResult, error) {
	if e.runner == nil {
		return transport.ExecResult{}, apperr.New(apperr.PermissionDenied, "elevation unavailable: no runner configured", nil)
	}
	res, err := e.runner.RunElevated(ctx, creds, transport.Command{Name: name, Args: args})
	if err != nil {
		return res, err
	}
	if !res.Success() {
		msg := strings.TrimSpace(string(res.Output))
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return res, apperr.Classify(fmt.Sprintf("sudo %s", name), errors.New(msg))
	}
	return res, nil
}
