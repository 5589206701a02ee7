package router

import (
	"github.com/localbase/localbase-backend/config"
	"golang.org/x/crypto/acme/autocert"
)

// AutoTLS returns a certificate manager for the configured domains, or nil
// when the server should listen on plain HTTP.
func AutoTLS(cfg *config.ServerConfig) *autocert.Manager {
	if len(cfg.TLSDomains) == 0 {
		return nil
	}
	return &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
		Cache:      autocert.DirCache(cfg.TLSCacheDir),
	}
}
