// Package cli implements the caseload command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/internal/client"
	"github.com/mesh-intelligence/caseload/internal/logging"
	"github.com/mesh-intelligence/caseload/internal/paths"
	"github.com/mesh-intelligence/caseload/internal/registry"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	baseURL   string
	token     string
	logLevel  string
	jsonMode  bool
}

// app is the per-invocation state shared by subcommands. The session is
// built in the root pre-run and attached on first use.
type app struct {
	flags     rootFlags
	configDir string
	dataDir   string
	v         *viper.Viper
	log       *zap.Logger
	sess      *client.Session
	attached  bool
}

// NewRootCmd creates the top-level "caseload" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "caseload",
		Short: "Cached CRUD access to the shelter API",
		Long: "caseload reads and writes shelter API entities (jenjang, kelas, anak, ...)\n" +
			"through a time-windowed local cache that survives between runs.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/caseload)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "snapshot directory (default: $XDG_DATA_HOME/caseload)")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "API root, overrides base_url")
	pf.StringVar(&a.flags.token, "token", "", "bearer token, overrides token")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level, overrides log.level")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newEntitiesCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newDropdownCmd(a),
		newStatsCmd(a),
		newInvokeCmd(a),
		newValidateCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newCacheCmd(a),
	)
	return root, a
}

// Execute runs the root command against os.Args and returns the process
// exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, in io.Reader, out, errOut io.Writer) int {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	// Post-run hooks are skipped when a command fails.
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps failures the user cannot fix by changing arguments, such as
// an unreachable API, to exitSysError.
func exitCode(err error) int {
	var terr *types.TransportError
	if errors.As(err, &terr) && terr.Status == 0 {
		return exitSysError
	}
	return exitUserError
}

// setup loads configuration, builds the logger and the session.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return err
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if a.flags.baseURL != "" {
		v.Set(cfgKeyBaseURL, a.flags.baseURL)
	}
	if a.flags.token != "" {
		v.Set(cfgKeyToken, a.flags.token)
	}
	if a.flags.logLevel != "" {
		v.Set(cfgKeyLogLevel, a.flags.logLevel)
	}

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return err
	}

	logFile := v.GetString(cfgKeyLogFile)
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(dataDir, logFile)
	}
	log, err := logging.New(logging.Options{
		Mode:   v.GetString(cfgKeyLogMode),
		Level:  v.GetString(cfgKeyLogLevel),
		File:   logFile,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	reg := registry.Default()
	if p := v.GetString(cfgKeyDescriptors); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(configDir, p)
		}
		if reg, err = registry.LoadFile(reg, p); err != nil {
			return err
		}
	}

	a.configDir = configDir
	a.dataDir = dataDir
	a.v = v
	a.log = log
	a.sess = client.New(client.WithRegistry(reg), client.WithLogger(log))
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	return a.close()
}

// close detaches the session and flushes the logger. Safe to call twice.
func (a *app) close() error {
	if a.log != nil {
		defer func() { _ = a.log.Sync() }()
	}
	if a.sess == nil || !a.attached {
		return nil
	}
	a.attached = false
	return a.sess.Detach()
}

// session attaches on first call. Commands that never touch the API, like
// validate, skip the base URL requirement.
func (a *app) session() (*client.Session, error) {
	if a.attached {
		return a.sess, nil
	}
	cfg := sessionConfig(a.v, a.dataDir)
	if err := a.sess.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	a.attached = true
	return a.sess, nil
}

// entity attaches and returns the façade for entityType.
func (a *app) entity(entityType string) (types.Entity, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	return s.Entity(entityType)
}
