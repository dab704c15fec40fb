package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBodyLimit(t *testing.T) {
	assert.Equal(t, 8*1024*1024, parseBodyLimit(""))
	assert.Equal(t, 8*1024*1024, parseBodyLimit("garbage"))
	assert.Equal(t, 8*1024*1024, parseBodyLimit("-1M"))

	assert.Equal(t, 512, parseBodyLimit("512"))
	assert.Equal(t, 16*1024, parseBodyLimit("16K"))
	assert.Equal(t, 4*1024*1024, parseBodyLimit("4M"))
	assert.Equal(t, 1024*1024*1024, parseBodyLimit("1G"))
	assert.Equal(t, 2*1024*1024, parseBodyLimit(" 2m "))
}

func TestCacheSkipPath(t *testing.T) {
	assert.True(t, cacheSkipPath("/tenants/acme/events"))
	assert.True(t, cacheSkipPath("/tenants/acme/session/qr"))
	assert.True(t, cacheSkipPath("/tenants/acme/session"),
		"session state changes faster than the cache TTL during pairing")

	assert.False(t, cacheSkipPath("/tenants/acme/chats"))
	assert.False(t, cacheSkipPath("/tenants/acme/chats/123@s.whatsapp.net/messages"))
	assert.False(t, cacheSkipPath("/"))
}
