// internal/api/bootstrap.go

package api

import (
	"sftpTerm/internal/config"
	"sftpTerm/internal/crypto"
	"sftpTerm/internal/files"
	"sftpTerm/internal/local"
	"sftpTerm/internal/privileged"
	"sftpTerm/internal/session"
	"sftpTerm/internal/settings"
	"sftpTerm/internal/ssh"
	"sftpTerm/internal/transport"

	"go.uber.org/zap"
)

// Options to zależności potrzebne do zbudowania serwisu
type Options struct {
	Settings settings.Settings
	Logger   *zap.Logger
	// Picker obsługuje SaveFile; nil wyłącza zapis przez okno wyboru
	Picker files.SavePicker
	// ShellSize to początkowy rozmiar terminala zdalnego
	ShellWidth  int
	ShellHeight int
}

// Bootstrap składa wszystkie komponenty i wczytuje rejestr połączeń
func Bootstrap(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := opts.Settings

	hostKeys := ssh.NewHostKeyStore(s.KnownHosts, s.AcceptNewHosts, logger.Named("hostkeys"))
	dialer := ssh.NewDialer(
		ssh.WithTimeout(s.ConnectTimeout),
		ssh.WithKeepAlive(s.KeepAlive),
		ssh.WithHostKeys(hostKeys),
		ssh.WithLogger(logger.Named("ssh")),
	)

	sess := session.New(dialer, dialer,
		session.WithLogger(logger.Named("session")),
		session.WithShellOptions(transport.ShellOptions{
			Term:   s.Term,
			Width:  opts.ShellWidth,
			Height: opts.ShellHeight,
		}))

	executor := privileged.New(sess, dialer, privileged.WithLogger(logger.Named("privileged")))

	fileOpts := []files.Option{files.WithLogger(logger.Named("files"))}
	if opts.Picker != nil {
		fileOpts = append(fileOpts, files.WithSavePicker(opts.Picker))
	}
	if s.PathLocks {
		fileOpts = append(fileOpts, files.WithPathLocks())
	}
	coord := files.New(local.New(logger.Named("local")), sess, executor, fileOpts...)

	var secrets crypto.SecretStore = crypto.PlainSecrets{}
	if s.Passphrase != "" {
		cipherStore, err := crypto.NewCipherSecrets(s.Passphrase)
		if err != nil {
			return nil, err
		}
		secrets = cipherStore
	}
	registry := config.NewManager(s.StatePath,
		config.WithSecretStore(secrets),
		config.WithLogger(logger.Named("config")))
	if err := registry.Load(); err != nil {
		return nil, err
	}

	return New(sess, coord, executor, registry, logger.Named("api"), WithHostKeys(hostKeys)), nil
}
