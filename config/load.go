// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/ubilog/ubilog/database"
	"github.com/ubilog/ubilog/log"
	"github.com/ubilog/ubilog/metrics"
	"github.com/ubilog/ubilog/params"
	"github.com/ubilog/ubilog/services/blkmgr"
	"github.com/ubilog/ubilog/services/miner"
)

const (
	defaultConfigFilename = "ubilog.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "ubilog.log"
	defaultDbType         = "leveldb"
	defaultMaxPeers       = 256
)

var (
	defaultHomeDir    = btcutil.AppDataDir("ubilogd", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// ErrShowVersion is returned by LoadConfig when --version was given.
var ErrShowVersion = errors.New("show version")

// Default returns the configuration before any file or flag is applied.
func Default() Config {
	return Config{
		HomeDir:         defaultHomeDir,
		ConfigFile:      defaultConfigFile,
		DebugLevel:      defaultLogLevel,
		DataDir:         defaultDataDir,
		LogDir:          defaultLogDir,
		DbType:          defaultDbType,
		MaxPeers:        defaultMaxPeers,
		MaxAttempts:     miner.DefaultMaxAttempts,
		GossipInterval:  blkmgr.DefaultGossipInterval,
		RequestInterval: blkmgr.DefaultRequestInterval,
		SaveInterval:    blkmgr.DefaultSaveInterval,
		MineInterval:    miner.DefaultMineInterval,
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options. On success the active network is selected and
// logging is set up.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := Default()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}
	if preCfg.ShowVersion {
		return nil, nil, ErrShowVersion
	}

	// Update the home directory if specified. Since the home directory is
	// updated, other variables need to be updated to reflect the new
	// changes.
	if preCfg.HomeDir != defaultHomeDir {
		cfg.HomeDir, _ = filepath.Abs(preCfg.HomeDir)
		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir, defaultConfigFilename)
		} else {
			cfg.ConfigFile = preCfg.ConfigFile
		}
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		}
	} else {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	// Load additional config from file.
	var configFileError error
	parser := newConfigParser(&cfg, flags.Default&^flags.PrintErrors)
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, nil, errors.Wrap(err, "parse config file")
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	funcName := "loadConfig"

	// Create the home directory if it doesn't already exist.
	if err := os.MkdirAll(cfg.HomeDir, 0700); err != nil {
		return nil, nil, errors.Wrapf(err, "%s: failed to create home directory", funcName)
	}

	// Multiple networks can't be selected simultaneously.
	if cfg.TestNet && cfg.PrivNet {
		return nil, nil, fmt.Errorf("%s: the testnet and privnet params "+
			"can't be used together -- choose one", funcName)
	}
	params.ActiveNetParams = &params.MainNetParams
	if cfg.TestNet {
		params.ActiveNetParams = &params.TestNetParams
	}
	if cfg.PrivNet {
		params.ActiveNetParams = &params.PrivNetParams
	}
	defaultPort := strconv.Itoa(int(params.ActiveNetParams.DefaultPort))

	if cfg.Listener == "" {
		cfg.Listener = net.JoinHostPort("", defaultPort)
	} else {
		cfg.Listener = normalizeAddress(cfg.Listener, defaultPort)
	}
	cfg.AddPeers = normalizeAddresses(cfg.AddPeers, defaultPort)
	for _, addr := range cfg.AddPeers {
		host, _, _ := net.SplitHostPort(addr)
		if net.ParseIP(host) == nil {
			return nil, nil, fmt.Errorf("%s: peer %q must be an IP "+
				"address", funcName, addr)
		}
	}

	if !validDbType(cfg.DbType) {
		return nil, nil, fmt.Errorf("%s: the specified database type [%v] "+
			"is invalid -- supported types %v", funcName, cfg.DbType,
			database.SupportedDrivers())
	}

	if cfg.MaxOrphans < 0 {
		return nil, nil, fmt.Errorf("%s: maxorphans may not be negative", funcName)
	}
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"gossipinterval", cfg.GossipInterval},
		{"requestinterval", cfg.RequestInterval},
		{"saveinterval", cfg.SaveInterval},
		{"mineinterval", cfg.MineInterval},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return nil, nil, fmt.Errorf("%s: %s must be positive", funcName, iv.name)
		}
	}

	if cfg.SecretKey != "" {
		key, err := hex.DecodeString(strings.TrimPrefix(cfg.SecretKey, "0x"))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s: secretkey", funcName)
		}
		cfg.secretKey = key
	}

	// Namespace the data and log directories per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), params.ActiveNetParams.Name)
	if !cfg.NoFileLogging {
		cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), params.ActiveNetParams.Name)

		// Initialize log rotation.  After log rotation has been initialized, the
		// logger variables may be used.
		log.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	}

	if err := ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, nil, fmt.Errorf("%s: %v", funcName, err)
	}
	if cfg.PrintOrigins {
		log.PrintOrigins(true)
	}
	if cfg.Metrics {
		metrics.Enabled = true
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid
	// options.  Note this should go directly before the return.
	if configFileError != nil {
		log.Warn("missing config file", "error", configFileError)
	}

	return &cfg, remainingArgs, nil
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *Config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// ParseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func ParseAndSetDebugLevels(debugLevel string) error {
	if err := log.SetLevel(debugLevel); err != nil {
		return fmt.Errorf("the specified debug level [%v] is invalid", debugLevel)
	}
	return nil
}

func validDbType(dbType string) bool {
	for _, t := range database.SupportedDrivers() {
		if t == dbType {
			return true
		}
	}
	return false
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// normalizeAddress returns addr with the passed default port appended if
// there is not already a port specified.
func normalizeAddress(addr, defaultPort string) string {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

// normalizeAddresses returns a new slice with all the passed peer addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, addr := range addrs {
		addr = normalizeAddress(addr, defaultPort)
		if _, ok := seen[addr]; !ok {
			result = append(result, addr)
			seen[addr] = struct{}{}
		}
	}
	return result
}
