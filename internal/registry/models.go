package registry

import (
	"time"

	id "namegate/pkg/domain"
)

// Claim records ownership of one node.
type Claim struct {
	Node      id.Node
	Parent    id.Node
	Label     string
	Owner     id.Address
	CreatedAt time.Time
}

// AddressRecord binds a coin-type-scoped address to a node.
type AddressRecord struct {
	CoinType uint32
	Addr     []byte
}
