// Package cache implements a request-deduplicating result cache with lazy TTL expiry.
//
// Concurrent callers for the same key coalesce into a single upstream fetch
// (singleflight); successful results are served from memory until their TTL
// passes. Failures are never cached, so a transient upstream outage cannot
// poison an entry for the full TTL window.
package cache
