package identityd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/coin"
	"github.com/iov-one/weave-identity/commands/server"
	"github.com/iov-one/weave-identity/crypto"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/x/cash"
	"github.com/iov-one/weave-identity/x/identity"
	abci "github.com/tendermint/tendermint/abci/types"
)

const appName = "identityd"

type genesisState struct {
	Cash       []cash.GenesisAccount      `json:"cash"`
	Identities []identity.GenesisIdentity `json:"identity"`
	Conf       map[string]json.RawMessage `json:"conf"`
}

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode.
//
// Optional arguments are the ticker (default IOV) and the address of the
// account. Without an address a key is generated and printed.
// The account also manages a single genesis identity and owns the
// identity configuration.
func GenInitOptions(args []string) (json.RawMessage, error) {
	ticker := "IOV"
	if len(args) > 0 {
		ticker = args[0]
		if !coin.IsCC(ticker) {
			return nil, errors.Wrapf(errors.ErrCurrency, "invalid ticker %s", ticker)
		}
	}

	var addr weave.Address
	if len(args) > 1 {
		a, err := weave.ParseAddress(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "address")
		}
		if a.IsZero() {
			return nil, errors.Wrap(errors.ErrEmpty, "address")
		}
		addr = a
	} else {
		a, keys, err := GenerateCoinKey()
		if err != nil {
			return nil, err
		}
		addr = a
		fmt.Println(keys)
	}

	conf, err := json.Marshal(identity.Configuration{
		Metadata:       &weave.Metadata{Schema: 1},
		Owner:          addr,
		MaxKeys:        32,
		MaxPayloadSize: 4096,
	})
	if err != nil {
		return nil, errors.Wrap(err, "identity configuration")
	}

	state := genesisState{
		Cash: []cash.GenesisAccount{
			{Address: addr, Coins: coin.Coins{coin.NewCoinp(123456789, 0, ticker)}},
		},
		Identities: []identity.GenesisIdentity{
			{
				Keys: []*identity.Key{
					{Address: addr, Purposes: []identity.Purpose{identity.ManagementPurpose, identity.ExecutionPurpose}},
				},
				ManagementThreshold: 1,
				ExecutionThreshold:  1,
			},
		},
		Conf: map[string]json.RawMessage{"identity": conf},
	}
	return json.MarshalIndent(state, "", "  ")
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(options *server.Options) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if options.Home != "" {
		dbPath = filepath.Join(options.Home, "identity.db")
	}

	application, err := Application(appName, Stack(), TxDecoder, dbPath, options.Debug)
	if err != nil {
		return nil, err
	}
	application.WithInit(Initializers())

	// set the logger and return
	application.WithLogger(options.Logger)
	return application, nil
}

type output struct {
	Address weave.Address      `json:"address"`
	Pubkey  *crypto.PublicKey  `json:"pub_key"`
	Secret  *crypto.PrivateKey `json:"secret"`
}

// GenerateCoinKey returns the address of a public key,
// along with a json representation of the keys.
// You can give coins to this address and
// import the keys in a client to use them
func GenerateCoinKey() (weave.Address, string, error) {
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	addr := pubKey.Address()

	out := output{Address: addr, Pubkey: pubKey, Secret: privKey}
	keys, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, "", errors.Wrap(err, "cannot serialize keys")
	}
	return addr, string(keys), nil
}
