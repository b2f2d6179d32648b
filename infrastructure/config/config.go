package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/ubixnet/ubixd/dagconfig"
	"github.com/ubixnet/ubixd/infrastructure/logger"
	"github.com/ubixnet/ubixd/version"
)

const (
	defaultConfigFilename = "ubixd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "ubixd.log"
	defaultErrLogFilename = "ubixd_err.log"

	defaultMainDagIndexStep     = 100
	defaultMainDagPagesInMemory = 10
	defaultMaxBlocksInv         = 500

	// dbMainDagIndexDirname is the fixed subdirectory of the data dir
	// that holds the main DAG index store.
	dbMainDagIndexDirname = "maindagindex"

	// dbBlockInfoDirname is the fixed subdirectory of the data dir that
	// holds persisted block metadata.
	dbBlockInfoDirname = "blockinfo"
)

// DefaultHomeDir is the default home directory for ubixd.
var DefaultHomeDir = appDataDir("ubixd")

var (
	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// Flags defines the configuration options for ubixd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion          bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile           string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir              string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir               string `long:"logdir" description:"Directory to log output."`
	DebugLevel           string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	Testnet              bool   `long:"testnet" description:"Use the test network"`
	Simnet               bool   `long:"simnet" description:"Use the simulation test network"`
	MainDagIndexStep     uint64 `long:"maindagstep" description:"Number of consecutive block heights covered by a single main DAG index page"`
	MainDagPagesInMemory int    `long:"maindagpagesinmemory" description:"Maximum number of main DAG index pages held in memory"`
	MaxBlocksInv         int    `long:"maxblocksinv" description:"Maximum number of block hashes listed in a single inventory response"`
	DropMainDagIndex     bool   `long:"dropmaindagindex" description:"Destroy the main DAG index store on startup and re-index from block metadata"`
}

// Config defines the configuration options for ubixd.
type Config struct {
	*Flags
	NetParams *dagconfig.Params
}

// DefaultFlags returns the default configuration flags for ubixd.
func DefaultFlags() *Flags {
	return &Flags{
		ConfigFile:           defaultConfigFile,
		DataDir:              defaultDataDir,
		LogDir:               defaultLogDir,
		DebugLevel:           defaultLogLevel,
		MainDagIndexStep:     defaultMainDagIndexStep,
		MainDagPagesInMemory: defaultMainDagPagesInMemory,
		MaxBlocksInv:         defaultMaxBlocksInv,
	}
}

// MainDagIndexDBPath returns the directory of the main DAG index store.
func (cfg *Config) MainDagIndexDBPath() string {
	return filepath.Join(cfg.DataDir, dbMainDagIndexDirname)
}

// BlockInfoDBPath returns the directory of the block metadata store.
func (cfg *Config) BlockInfoDBPath() string {
	return filepath.Join(cfg.DataDir, dbBlockInfoDirname)
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, error) {
	cfgFlags := DefaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		return nil, err
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(cfgFlags, flags.Default)
	if fileExists(preCfg.ConfigFile) {
		err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
		}
	} else if preCfg.ConfigFile != defaultConfigFile {
		return nil, errors.Errorf("config file %s does not exist", preCfg.ConfigFile)
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.Parse()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.resolveNetwork()
	if err != nil {
		return nil, err
	}

	if cfg.MainDagIndexStep < 2 {
		return nil, errors.Errorf("maindagstep must be at least 2 -- parsed [%d]", cfg.MainDagIndexStep)
	}
	if cfg.MainDagPagesInMemory < 1 {
		return nil, errors.Errorf("maindagpagesinmemory must be at least 1 -- parsed [%d]", cfg.MainDagPagesInMemory)
	}
	if cfg.MaxBlocksInv < 1 {
		return nil, errors.Errorf("maxblocksinv must be at least 1 -- parsed [%d]", cfg.MaxBlocksInv)
	}

	// Create the data directory if it doesn't already exist.
	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", cfg.DataDir)
	}

	// Initialize log rotation. After the log rotation has been initialized,
	// the logger variables may be used.
	logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrLogFilename))

	// Parse, validate, and set debug log level(s).
	err = logger.ParseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing debuglevel")
	}

	return cfg, nil
}

func (cfg *Config) resolveNetwork() error {
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	cfg.NetParams = &dagconfig.MainnetParams
	if cfg.Testnet {
		numNets++
		cfg.NetParams = &dagconfig.TestnetParams
	}
	if cfg.Simnet {
		numNets++
		cfg.NetParams = &dagconfig.SimnetParams
	}
	if numNets > 1 {
		return errors.New("the testnet and simnet params can't be used together -- choose one of them")
	}

	// Segregate per-network data and logs.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams.Name)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.NetParams.Name)
	return nil
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// appDataDir returns an operating system specific directory to be used for
// storing application data for ubixd.
func appDataDir(appName string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, strings.Title(appName))
		}
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", strings.Title(appName))
	}

	return filepath.Join(homeDir, "."+appName)
}
