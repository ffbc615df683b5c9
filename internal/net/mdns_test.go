package net

import (
	stdnet "net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
)

func TestEntryURL(t *testing.T) {
	assert.Equal(t, "", entryURL(nil))
	assert.Equal(t, "", entryURL(&mdns.ServiceEntry{Port: 3001}))
	assert.Equal(t, "", entryURL(&mdns.ServiceEntry{AddrV4: stdnet.IPv4(10, 0, 0, 2)}))
	assert.Equal(t, "http://10.0.0.2:3001", entryURL(&mdns.ServiceEntry{AddrV4: stdnet.IPv4(10, 0, 0, 2), Port: 3001}))
}
