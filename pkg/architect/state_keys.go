package architect

// State data keys for the architect's stateData map.
const (
	StateKeyScopeReused = "scope_reused"   // bool - an existing project scope was kept
	StateKeyURLCount    = "url_count"      // int - URLs discovered
	StateKeyPrunedURLs  = "pruned_urls"    // []string - URLs removed after probing
	StateKeyUnknownURLs = "unknown_urls"   // []string - URLs whose probe failed
	StateKeyProbeStatus = "probe_statuses" // map[string]int - status code per probed URL
)
