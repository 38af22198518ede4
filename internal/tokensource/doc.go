// Package tokensource manages the upstream API key and turns it into an
// authenticated HTTP transport.
//
// The key can live in an environment variable, a mode-0600 file or the OS
// keyring; every backend implements TokenStore. NewTransport adapts a store
// to an oauth2.Transport so the upstream sees a standard bearer Authorization
// header:
//
//	store := &tokensource.KeyringStore{Service: "amelie-proxy", User: "upstream-api-key"}
//	transport := tokensource.NewTransport(http.DefaultTransport, store)
//	client := &http.Client{Transport: transport}
package tokensource
