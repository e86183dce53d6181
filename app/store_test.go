package app

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store/iavl"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
)

// rawQuery returns the value stored under the requested key.
type rawQuery struct{}

func (rawQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrap(errors.ErrInput, "only key queries")
	}
	v, err := db.Get(data)
	if err != nil || v == nil {
		return nil, err
	}
	return []weave.Model{weave.Pair(data, v)}, nil
}

// genesisWriter stores the "greeting" genesis value under the "hello" key.
type genesisWriter struct{}

func (genesisWriter) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var greeting string
	if err := opts.ReadOptions("greeting", &greeting); err != nil {
		return err
	}
	return db.Set([]byte("hello"), []byte(greeting))
}

// setHandler writes the serialized message under the message path.
type setHandler struct{}

func (setHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return &weave.CheckResult{GasAllocated: 1}, nil
}

func (setHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	raw, err := msg.Marshal()
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: raw}, db.Set([]byte(msg.Path()), raw)
}

func newTestApp(t *testing.T) BaseApp {
	t.Helper()
	qr := weave.NewQueryRouter()
	qr.Register("/raw", rawQuery{})

	store := NewStoreApp("testapp", iavl.MockCommitStore(), qr, context.Background()).
		WithInit(genesisWriter{})

	router := NewRouter()
	router.Handle("set", setHandler{})

	decoder := func(raw []byte) (weave.Tx, error) {
		if len(raw) == 0 {
			return nil, errors.Wrap(errors.ErrInput, "empty tx")
		}
		return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "set", Serialized: raw}}, nil
	}
	return NewBaseApp(store, decoder, router, false)
}

func queryRaw(t *testing.T, app BaseApp, key string) []weave.Model {
	t.Helper()
	res := app.Query(abci.RequestQuery{Path: "/raw", Data: []byte(key)})
	require.Equal(t, uint32(0), res.Code, res.Log)

	var keys, values ResultSet
	require.NoError(t, keys.Unmarshal(res.Key))
	require.NoError(t, values.Unmarshal(res.Value))
	models, err := JoinResults(&keys, &values)
	require.NoError(t, err)
	return models
}

func TestStoreAppLifecycle(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, "", app.GetChainID())

	info := app.Info(abci.RequestInfo{})
	assert.Equal(t, "testapp", info.Data)
	assert.Equal(t, int64(0), info.LastBlockHeight)

	app.InitChain(abci.RequestInitChain{
		ChainId:       "test-chain",
		AppStateBytes: []byte(`{"greeting": "world"}`),
	})
	assert.Equal(t, "test-chain", app.GetChainID())

	// genesis can only be loaded once
	assert.Panics(t, func() {
		app.InitChain(abci.RequestInitChain{ChainId: "other-chain", AppStateBytes: []byte(`{}`)})
	})

	app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 1, ChainID: "test-chain"}})
	height, _ := weave.GetHeight(app.BlockContext())
	assert.Equal(t, int64(1), height)

	check := app.CheckTx([]byte("payload"))
	assert.Equal(t, uint32(0), check.Code, check.Log)
	deliver := app.DeliverTx([]byte("payload"))
	assert.Equal(t, uint32(0), deliver.Code, deliver.Log)
	assert.Equal(t, []byte("payload"), deliver.Data)

	bad := app.DeliverTx(nil)
	assert.Equal(t, errors.ErrInput.ABCICode(), bad.Code)

	// nothing is visible to queries before commit
	assert.Empty(t, queryRaw(t, app, "set"))

	app.EndBlock(abci.RequestEndBlock{Height: 1})
	commit := app.Commit()
	assert.NotEmpty(t, commit.Data)

	info = app.Info(abci.RequestInfo{})
	assert.Equal(t, int64(1), info.LastBlockHeight)
	assert.Equal(t, commit.Data, info.LastBlockAppHash)

	models := queryRaw(t, app, "set")
	require.Len(t, models, 1)
	assert.Equal(t, []byte("payload"), models[0].Value)

	models = queryRaw(t, app, "hello")
	require.Len(t, models, 1)
	assert.Equal(t, []byte("world"), models[0].Value)

	missing := app.Query(abci.RequestQuery{Path: "/unknown"})
	assert.Equal(t, errors.ErrNotFound.ABCICode(), missing.Code)

	prefix := app.Query(abci.RequestQuery{Path: "/raw?prefix", Data: []byte("h")})
	assert.Equal(t, errors.ErrInput.ABCICode(), prefix.Code)
}

func TestChainIDPersistence(t *testing.T) {
	db, cleanup := weavetest.CommitKVStore(t)
	defer cleanup()

	s := NewStoreApp("testapp", db, weave.NewQueryRouter(), context.Background())
	s.InitChain(abci.RequestInitChain{ChainId: "persisted", AppStateBytes: []byte(`{}`)})
	s.Commit()

	restarted := NewStoreApp("testapp", db, weave.NewQueryRouter(), context.Background())
	assert.Equal(t, "persisted", restarted.GetChainID())
	assert.Equal(t, "persisted", weave.GetChainID(restarted.BlockContext()))
}

func TestSaveChainID(t *testing.T) {
	cases := map[string]struct {
		chainID string
		preset  string
		wantErr *errors.Error
	}{
		"valid":         {chainID: "my-chain"},
		"too short":     {chainID: "abc", wantErr: errors.ErrInput},
		"invalid chars": {chainID: "my chain!", wantErr: errors.ErrInput},
		"already set":   {chainID: "my-chain", preset: "old-chain", wantErr: errors.ErrImmutable},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			cs, err := NewCommitStore(iavl.MockCommitStore())
			require.NoError(t, err)
			db := cs.deliver
			if tc.preset != "" {
				require.NoError(t, saveChainID(db, tc.preset))
			}
			err = saveChainID(db, tc.chainID)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				got, err := loadChainID(db)
				require.NoError(t, err)
				assert.Equal(t, tc.chainID, got)
			}
		})
	}
}
