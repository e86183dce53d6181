package server

import (
	"testing"

	"github.com/iov-one/weave-identity/errors"
	"github.com/stretchr/testify/assert"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

func TestParseStartFlags(t *testing.T) {
	cases := map[string]struct {
		args      []string
		wantAddr  string
		wantDebug bool
		wantErr   *errors.Error
	}{
		"defaults": {
			wantAddr: "tcp://localhost:46658",
		},
		"custom bind and debug": {
			args:      []string{"-bind", "unix://identityd.sock", "-debug"},
			wantAddr:  "unix://identityd.sock",
			wantDebug: true,
		},
		"empty bind": {
			args:    []string{"-bind", ""},
			wantErr: errors.ErrEmpty,
		},
		"unknown flag": {
			args:    []string{"-min_fee", "1 IOV"},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f, err := parseStartFlags(tc.args)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, tc.wantAddr, f.addr)
			assert.Equal(t, tc.wantDebug, f.debug)
		})
	}
}

func TestStartGeneratorFailure(t *testing.T) {
	var got *Options
	gen := func(opts *Options) (abci.Application, error) {
		got = opts
		return nil, errors.Wrap(errors.ErrDatabase, "locked")
	}
	err := StartCmd(gen, log.NewNopLogger(), "/tmp/identityd", []string{"-debug"})
	if !errors.ErrDatabase.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	if assert.NotNil(t, got) {
		assert.Equal(t, "/tmp/identityd", got.Home)
		assert.True(t, got.Debug)
	}
}
