package x

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/iov-one/weave-identity/weavetest/assert"
)

func TestChainAuth(t *testing.T) {
	signer := weavetest.NewCondition()
	cosigner := weavetest.NewCondition()
	self := weave.NewCondition("identity", "self", weavetest.SequenceID(1))
	outsider := weavetest.NewCondition()

	selfAuth := &weavetest.CtxAuth{Key: "identity"}
	otherAuth := &weavetest.CtxAuth{Key: "multisig"}

	cases := map[string]struct {
		ctx        weave.Context
		auth       Authenticator
		wantMain   weave.Condition
		wantAll    []weave.Condition
		wantAbsent weave.Condition
	}{
		"nothing signed": {
			ctx:        context.Background(),
			auth:       ChainAuth(&weavetest.Auth{}),
			wantAbsent: signer,
		},
		"signatures come first": {
			ctx: selfAuth.SetConditions(context.Background(), self),
			auth: ChainAuth(
				&weavetest.Auth{Signers: []weave.Condition{signer, cosigner}},
				selfAuth,
			),
			wantMain:   signer,
			wantAll:    []weave.Condition{signer, cosigner, self},
			wantAbsent: outsider,
		},
		"duplicates are reported once": {
			ctx: selfAuth.SetConditions(context.Background(), self, signer),
			auth: ChainAuth(
				&weavetest.Auth{Signer: signer},
				selfAuth,
			),
			wantMain:   signer,
			wantAll:    []weave.Condition{signer, self},
			wantAbsent: cosigner,
		},
		"context key must match": {
			ctx:        selfAuth.SetConditions(context.Background(), self),
			auth:       ChainAuth(otherAuth),
			wantAbsent: self,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.wantMain, MainSigner(tc.ctx, tc.auth))
			assert.Equal(t, tc.wantAll, tc.auth.GetConditions(tc.ctx))
			for _, c := range tc.wantAll {
				if !tc.auth.HasAddress(tc.ctx, c.Address()) {
					t.Fatalf("address of %s not found", c)
				}
			}
			if tc.auth.HasAddress(tc.ctx, tc.wantAbsent.Address()) {
				t.Fatalf("unexpected address of %s", tc.wantAbsent)
			}
		})
	}
}
