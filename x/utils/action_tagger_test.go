package utils

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-identity"
	"github.com/iov-one/weave-identity/errors"
	"github.com/iov-one/weave-identity/store"
	"github.com/iov-one/weave-identity/weavetest"
	"github.com/iov-one/weave-identity/weavetest/assert"
	"github.com/tendermint/tendermint/libs/common"
)

func stringTag(key, value string) common.KVPair {
	return common.KVPair{
		Key:   []byte(key),
		Value: []byte(value),
	}
}

func TestActionTagger(t *testing.T) {
	cases := map[string]struct {
		handler weave.Handler
		tx      weave.Tx
		wantErr *errors.Error
		tags    []common.KVPair
	}{
		"simple call": {
			handler: &weavetest.Handler{},
			tx:      &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "identity/submit"}},
			tags:    []common.KVPair{stringTag(ActionKey, "identity/submit")},
		},
		"passes through error": {
			handler: &weavetest.Handler{DeliverErr: errors.ErrHuman},
			tx:      &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "identity/submit"}},
			wantErr: errors.ErrHuman,
		},
		"tags are additive": {
			handler: &weavetest.Handler{
				DeliverResult: weave.DeliverResult{Tags: []common.KVPair{stringTag(ActionKey, "random")}},
			},
			tx:   &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "identity/approve"}},
			tags: []common.KVPair{stringTag(ActionKey, "random"), stringTag(ActionKey, "identity/approve")},
		},
		"broken transaction": {
			handler: &weavetest.Handler{},
			tx:      &weavetest.Tx{Err: errors.ErrMsg},
			wantErr: errors.ErrMsg,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			stack := weavetest.Decorate(tc.handler, NewActionTagger())
			res, err := stack.Deliver(context.Background(), store.MemStore(), tc.tx)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, len(tc.tags), len(res.Tags))
			for i := range tc.tags {
				assert.Equal(t, string(tc.tags[i].Key), string(res.Tags[i].Key))
				assert.Equal(t, string(tc.tags[i].Value), string(res.Tags[i].Value))
			}
		})
	}
}
