// Package cli implements the mudra command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/store"
)

// env is the state shared by every command once the config is loaded.
type env struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
	closers []io.Closer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	e := &env{v: config.New(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:          "mudra",
		Short:        "Mudra recognizes sign language gestures from the camera",
		SilenceUsage: true, // don't print usage on operational errors
		Long: `Mudra watches the camera, matches the hand pose against a library of
recorded gestures and turns sequences of gestures into phrases.

Data lives in ~/.mudra unless --data-dir says otherwise.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return e.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.cfgFile, "config", "", "config file (default <data-dir>/"+config.FileName+")")
	flags.String("data-dir", "", "directory holding gestures, phrases and config")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	e.v.BindPFlag("dataDir", flags.Lookup("data-dir"))
	e.v.BindPFlag("logLevel", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(e),
		newGesturesCmd(e),
		newPhrasesCmd(e),
		newRecognizeCmd(e),
		newVersionCmd(),
	)
	return root
}

// Execute is called by main.go.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.v, e.cfgFile)
	if err != nil {
		return err
	}
	e.cfg = cfg

	log, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	e.log = log
	e.closers = append(e.closers, closer)
	return nil
}

func (e *env) close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}

// openBackend opens the configured storage backend. It is closed with the env.
func (e *env) openBackend() (store.Backend, error) {
	var backend store.Backend
	switch e.cfg.Storage.Type {
	case config.StorageSQLite:
		s, err := store.New(e.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		backend = s
	default:
		backend = store.NewRecordFiles(e.cfg.Storage.GestureFile, e.cfg.Storage.PhraseFile)
	}
	e.closers = append(e.closers, backend)
	return backend, nil
}

// openLibrary opens the backend and loads the gesture library and phrases.
func (e *env) openLibrary() (*store.Library, *store.Phrases, error) {
	backend, err := e.openBackend()
	if err != nil {
		return nil, nil, err
	}

	library := store.NewLibrary(backend, e.log)
	library.Load()
	phrases := store.NewPhrases(backend, e.log)
	phrases.Load()
	return library, phrases, nil
}
