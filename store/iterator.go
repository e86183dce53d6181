package store

import (
	"bytes"

	"github.com/iov-one/weave-identity/errors"
)

// cacheIterator combines the items written to a cache wrap with the
// iterator of the store below it. Items from the cache take precedence and
// deleted items hide the parent value.
type cacheIterator struct {
	items   []keyer
	parent  Iterator
	reverse bool

	// head of the parent iterator
	pkey, pvalue []byte
	pLoaded      bool
	pDone        bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []keyer, parent Iterator, reverse bool) *cacheIterator {
	return &cacheIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
}

func (c *cacheIterator) loadParent() error {
	if c.pLoaded || c.pDone {
		return nil
	}
	key, value, err := c.parent.Next()
	if errors.ErrIteratorDone.Is(err) {
		c.pDone = true
		return nil
	}
	if err != nil {
		return err
	}
	c.pkey, c.pvalue, c.pLoaded = key, value, true
	return nil
}

// Next returns the next key value pair from either the cache or the parent.
func (c *cacheIterator) Next() (key, value []byte, err error) {
	for {
		if err := c.loadParent(); err != nil {
			return nil, nil, err
		}

		if len(c.items) == 0 {
			if c.pDone {
				return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache iterator")
			}
			c.pLoaded = false
			return c.pkey, c.pvalue, nil
		}

		head := c.items[0]
		if !c.pDone {
			cmp := bytes.Compare(head.Key(), c.pkey)
			if c.reverse {
				cmp = -cmp
			}
			if cmp > 0 {
				c.pLoaded = false
				return c.pkey, c.pvalue, nil
			}
			if cmp == 0 {
				// Cache overwrites the parent value.
				c.pLoaded = false
			}
		}

		c.items = c.items[1:]
		if item, ok := head.(setItem); ok {
			return item.key, item.value, nil
		}
		// deleted, look further
	}
}

// Release releases the Iterator.
func (c *cacheIterator) Release() {
	c.items = nil
	c.parent.Release()
}
