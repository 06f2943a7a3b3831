package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sftpTerm/internal/api"
	"sftpTerm/internal/files"
	"sftpTerm/internal/logging"
	"sftpTerm/internal/settings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var exit = os.Exit

const logFileName = "sftpterm.log"

// app trzyma stan współdzielony przez komendy jednego wywołania
type app struct {
	v        *viper.Viper
	cfgFile  string
	settings settings.Settings
	// picker obsługuje zapis plików w TUI; CLI go nie ustawia
	picker files.SavePicker
	shellW int
	shellH int
}

// Execute uruchamia drzewo komend i kończy proces przy błędzie
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal error: %v\n", r)
			exit(1)
		}
	}()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			_ = logging.Sync()
			exit(exitErr.code)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
	_ = logging.Sync()
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: settings.New()}

	root := &cobra.Command{
		Use:           "sftpterm",
		Short:         "Dual-pane SFTP browser with a remote shell",
		Long:          "sftpterm browses local and remote files side by side over SFTP,\nruns a remote shell and retries denied operations with sudo.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Root() == cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "settings file (default is <config-dir>/config.yaml)")
	flags.String("config-dir", "", "directory holding state.json and known_hosts (default ~/.config/sftpterm)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json or console")
	flags.String("log-file", "", "log output path (the TUI logs to <config-dir>/sftpterm.log by default)")
	flags.Duration("timeout", 0, "SSH connect timeout")
	flags.Bool("path-locks", false, "serialize concurrent writes to the same path")
	flags.Bool("accept-new-hosts", true, "trust unknown host keys on first use")

	_ = a.v.BindPFlag(settings.KeyConfigDir, flags.Lookup("config-dir"))
	_ = a.v.BindPFlag(settings.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(settings.KeyLogFormat, flags.Lookup("log-format"))
	_ = a.v.BindPFlag(settings.KeyLogFile, flags.Lookup("log-file"))
	_ = a.v.BindPFlag(settings.KeyConnectTimeout, flags.Lookup("timeout"))
	_ = a.v.BindPFlag(settings.KeyPathLocks, flags.Lookup("path-locks"))
	_ = a.v.BindPFlag(settings.KeyAcceptNewHosts, flags.Lookup("accept-new-hosts"))

	root.AddCommand(
		newConnectionsCmd(a),
		newLsCmd(a),
		newGetCmd(a),
		newPutCmd(a),
		newSudoCmd(a),
		newKnownHostsCmd(a),
	)
	return root
}

// init wczytuje ustawienia i konfiguruje logger. TUI zajmuje terminal,
// więc domyślnie loguje do pliku.
func (a *app) init(tui bool) error {
	s, err := settings.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = s

	output := s.LogFile
	if output == "" && tui {
		if err := os.MkdirAll(s.ConfigDir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		output = filepath.Join(s.ConfigDir, logFileName)
	}
	if err := logging.Init(logging.Config{
		Level:      s.LogLevel,
		Format:     s.LogFormat,
		OutputPath: output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logging.L().Debug("settings loaded",
		zap.String("config_dir", s.ConfigDir),
		zap.Duration("connect_timeout", s.ConnectTimeout),
		zap.Bool("path_locks", s.PathLocks))
	return nil
}

func (a *app) service() (*api.Service, error) {
	return api.Bootstrap(api.Options{
		Settings:    a.settings,
		Logger:      logging.L(),
		Picker:      a.picker,
		ShellWidth:  a.shellW,
		ShellHeight: a.shellH,
	})
}
