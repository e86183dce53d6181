package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/weave-identity/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

const tendermintGenesis = `{
  "genesis_time": "2019-05-01T10:00:00Z",
  "chain_id": "test-chain-LgVOZ0",
  "validators": [{"power": "10", "name": ""}],
  "app_hash": ""
}`

// setupHome creates a home directory holding a genesis file in the shape
// `tendermint init` produces.
func setupHome(t *testing.T, genesis string) (string, func()) {
	t.Helper()
	home, err := ioutil.TempDir("", "identityd-cmd")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(home, "config"), 0755))
	genFile := filepath.Join(home, "config", "genesis.json")
	require.NoError(t, ioutil.WriteFile(genFile, []byte(genesis), 0600))
	return home, func() { os.RemoveAll(home) }
}

func staticOptions(state string) GenOptions {
	return func(args []string) (json.RawMessage, error) {
		return json.RawMessage(state), nil
	}
}

func readGenesis(t *testing.T, home string) GenesisDoc {
	t.Helper()
	bz, err := ioutil.ReadFile(filepath.Join(home, "config", "genesis.json"))
	require.NoError(t, err)
	var doc GenesisDoc
	require.NoError(t, json.Unmarshal(bz, &doc))
	return doc
}

func TestInit(t *testing.T) {
	home, cleanup := setupHome(t, tendermintGenesis)
	defer cleanup()

	logger := log.NewNopLogger()
	err := InitCmd(staticOptions(`{"cash":[]}`), logger, home, nil)
	require.NoError(t, err)

	doc := readGenesis(t, home)
	// keep old values, and add our values
	assert.EqualValues(t, []byte(`"test-chain-LgVOZ0"`), doc["chain_id"])
	assert.NotEmpty(t, doc["validators"])
	assert.JSONEq(t, `{"cash":[]}`, string(doc[appStateKey]))

	// a second run must not silently replace the state
	err = InitCmd(staticOptions(`{"cash":null}`), logger, home, nil)
	require.Error(t, err)
	assert.True(t, errors.ErrState.Is(err))

	err = InitCmd(staticOptions(`{"cash":null}`), logger, home, []string{"-i"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cash":null}`, string(readGenesis(t, home)[appStateKey]))
}

func TestInitFailures(t *testing.T) {
	cases := map[string]struct {
		genesis string
		args    []string
		gen     GenOptions
		wantErr *errors.Error
	}{
		"missing genesis file": {
			genesis: "",
			gen:     staticOptions(`{}`),
			wantErr: errors.ErrNotFound,
		},
		"broken genesis file": {
			genesis: `{"chain_id": `,
			gen:     staticOptions(`{}`),
			wantErr: errors.ErrInput,
		},
		"unknown flag": {
			genesis: tendermintGenesis,
			args:    []string{"-nope"},
			gen:     staticOptions(`{}`),
			wantErr: errors.ErrInput,
		},
		"generator failure": {
			genesis: tendermintGenesis,
			gen: func([]string) (json.RawMessage, error) {
				return nil, errors.Wrap(errors.ErrEmpty, "no accounts")
			},
			wantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			home, cleanup := setupHome(t, tc.genesis)
			defer cleanup()
			if tc.genesis == "" {
				require.NoError(t, os.Remove(filepath.Join(home, "config", "genesis.json")))
			}

			err := InitCmd(tc.gen, log.NewNopLogger(), home, tc.args)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestGenerateCoinKey(t *testing.T) {
	a, err := GenerateCoinKey()
	require.NoError(t, err)
	b, err := GenerateCoinKey()
	require.NoError(t, err)
	require.NoError(t, a.Validate())
	assert.NotEqual(t, a, b)
}
