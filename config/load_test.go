package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/ubilog/ubilog/database/ldb"
	"github.com/ubilog/ubilog/params"
)

func baseArgs(t *testing.T) (string, []string) {
	home := t.TempDir()
	return home, []string{"--appdata=" + home, "--nofilelogging"}
}

func TestLoadDefaults(t *testing.T) {
	home, args := baseArgs(t)
	cfg, remaining, err := LoadConfig(args)
	require.NoError(t, err)
	require.Empty(t, remaining)

	require.Equal(t, &params.MainNetParams, params.ActiveNetParams)
	require.Equal(t, ":16936", cfg.Listener)
	require.Equal(t, filepath.Join(home, defaultDataDirname, "mainnet"), cfg.DataDir)
	require.Equal(t, filepath.Join(home, defaultConfigFilename), cfg.ConfigFile)
	require.Equal(t, "leveldb", cfg.DbType)
	require.Equal(t, time.Second, cfg.GossipInterval)
	require.Nil(t, cfg.SecretKeyBytes())
}

func TestLoadFlags(t *testing.T) {
	_, args := baseArgs(t)
	args = append(args, "--privnet", "--addpeer=127.0.0.1", "--addpeer=127.0.0.1:36936",
		"--addpeer=10.0.0.1:9", "--listen=127.0.0.1", "--secretkey=0x0102",
		"--gossipinterval=2s", "--generate")
	cfg, _, err := LoadConfig(args)
	require.NoError(t, err)
	defer func() { params.ActiveNetParams = &params.MainNetParams }()

	require.Equal(t, &params.PrivNetParams, params.ActiveNetParams)
	require.Equal(t, []string{"127.0.0.1:36936", "10.0.0.1:9"}, cfg.AddPeers)
	require.Equal(t, "127.0.0.1:36936", cfg.Listener)
	require.Equal(t, []byte{1, 2}, cfg.SecretKeyBytes())
	require.Equal(t, 2*time.Second, cfg.GossipInterval)
	require.True(t, cfg.Generate)
}

func TestLoadConfigFile(t *testing.T) {
	home, args := baseArgs(t)
	conf := "[Application Options]\ndbtype=leveldb\nmaxorphans=12\ntestnet=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, defaultConfigFilename), []byte(conf), 0600))

	cfg, _, err := LoadConfig(append(args, "--maxorphans=7"))
	require.NoError(t, err)
	defer func() { params.ActiveNetParams = &params.MainNetParams }()

	// The command line wins over the file.
	require.Equal(t, 7, cfg.MaxOrphans)
	require.Equal(t, &params.TestNetParams, params.ActiveNetParams)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"two networks", []string{"--testnet", "--privnet"}},
		{"unknown db", []string{"--dbtype=nosuchdb"}},
		{"hostname peer", []string{"--addpeer=example.com"}},
		{"bad key", []string{"--secretkey=zz"}},
		{"bad level", []string{"--debuglevel=loud"}},
		{"zero interval", []string{"--saveinterval=0s"}},
		{"unknown flag", []string{"--nosuchflag"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, args := baseArgs(t)
			_, _, err := LoadConfig(append(args, test.args...))
			require.Error(t, err)
		})
	}
	params.ActiveNetParams = &params.MainNetParams
}

func TestShowVersion(t *testing.T) {
	_, _, err := LoadConfig([]string{"-V"})
	require.Equal(t, ErrShowVersion, err)
}
