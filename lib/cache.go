package lib

import (
	"context"

	"github.com/99designs/keyring"
	msalcache "github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	log "github.com/sirupsen/logrus"
)

const tokenCacheKey = "msal-token-cache"

// keyringTokenCache persists the MSAL token cache in the OS keyring so
// silent acquisition keeps working across process restarts. It implements
// msal's cache.ExportReplace.
type keyringTokenCache struct {
	kr keyring.Keyring
}

func newKeyringTokenCache(kr keyring.Keyring) *keyringTokenCache {
	return &keyringTokenCache{kr: kr}
}

func (c *keyringTokenCache) Replace(ctx context.Context, cache msalcache.Unmarshaler, hints msalcache.ReplaceHints) error {
	item, err := c.kr.Get(tokenCacheKey)
	if err == keyring.ErrKeyNotFound {
		log.Debug("no token cache in keyring yet")
		return nil
	}
	if err != nil {
		return err
	}
	return cache.Unmarshal(item.Data)
}

func (c *keyringTokenCache) Export(ctx context.Context, cache msalcache.Marshaler, hints msalcache.ExportHints) error {
	data, err := cache.Marshal()
	if err != nil {
		return err
	}

	return c.kr.Set(keyring.Item{
		Key:                         tokenCacheKey,
		Data:                        data,
		Label:                       "azure-redis token cache",
		KeychainNotTrustApplication: false,
	})
}
