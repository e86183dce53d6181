/*
Package identityd links together all the various components
to construct the identity chain application.
*/
package identityd

import (
	"context"
	"path/filepath"
	"strings"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/app"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store/iavl"
	"github.com/iov-one/weave-identity/x"
	"github.com/iov-one/weave-identity/x/batch"
	"github.com/iov-one/weave-identity/x/cash"
	"github.com/iov-one/weave-identity/x/identity"
	"github.com/iov-one/weave-identity/x/sigs"
	"github.com/iov-one/weave-identity/x/utils"
)

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// batching, tagging, logging and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		batch.NewDecorator(),
		utils.NewActionTagger(),
		// on DeliverTx, bad tx will increment the signer sequence
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns the router dispatching all messages of the application.
// Execution requests addressed to an identity are dispatched through the
// same router, decoding the payload with DecodeMsg.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	ctrl := cash.NewController(cash.NewBucket())
	cash.RegisterRoutes(r, authFn, ctrl)
	sigs.RegisterRoutes(r, authFn)
	identity.RegisterRoutes(r, authFn, ctrl, identity.NewRouterResolver(r, DecodeMsg))
	return r
}

// QueryRouter returns a default query router, allowing access to
// "/wallets", "/auth", "/identities", "/execrequests", "/approvalsets"
// and "/idevents"
func QueryRouter() weave.QueryRouter {
	r := weave.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		sigs.RegisterQuery,
		identity.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() weave.Handler {
	return Chain().WithHandler(Router(Authenticator()))
}

// Initializers returns the genesis initializers of every extension.
func Initializers() weave.Initializer {
	return weave.ChainInitializers{
		cash.Initializer{},
		identity.Initializer{},
	}
}

// Application constructs a basic ABCI application with
// the given arguments. If you are not sure what to use
// for the Handler, just use Stack().
func Application(name string, h weave.Handler, tx weave.TxDecoder, dbPath string, debug bool) (app.BaseApp, error) {
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, errors.Wrap(err, "cannot create database instance")
	}
	store := app.NewStoreApp(name, kv, QueryRouter(), context.Background())
	return app.NewBaseApp(store, tx, h, debug), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (weave.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name: %s", dbPath)
	}

	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}
