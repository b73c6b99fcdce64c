package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps a mock rueidis client. Addresses only feed error messages.
func NewStoreForTest(c rueidis.Client, addrs ...string) *Store {
	if len(addrs) == 0 {
		addrs = []string{"mock:6379"}
	}
	return &Store{client: c, addrs: addrs}
}
