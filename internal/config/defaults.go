package config

import "github.com/spf13/viper"

// setDefaults sets every default value on a fresh viper.Viper before any
// file or environment layer is applied.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", "0.0.0.0:30333")
	v.SetDefault("server.standalone", false)

	v.SetDefault("peer.max_peers", 40)
	v.SetDefault("peer.peer_private", false)

	v.SetDefault("topology.row_neighbors", 4)
	v.SetDefault("topology.column_neighbors", 4)

	// AggressionConfig defaults straight from spec.md §4.8.
	v.SetDefault("aggression.l1_threshold", 16)
	v.SetDefault("aggression.l2_threshold", 28)
	v.SetDefault("aggression.resend_unfinalized_period", 8)

	// REPUTATION_CHANGE_INTERVAL, spec.md §5.
	v.SetDefault("reputation.flush_interval", "30s")
	v.SetDefault("reputation.costs", map[string]int32{
		"unexpected_message":             -100,
		"duplicate_message":              -100,
		"assignment_too_far_in_future":   -150,
		"invalid_message":                -500,
		"oversized_bitfield":             -500,
	})
	v.SetDefault("reputation.benefits", map[string]int32{
		"valid_message":       10,
		"valid_message_first": 20,
	})

	v.SetDefault("batching.max_notification_size", 8192)

	v.SetDefault("validators.validators", []string{})
	v.SetDefault("validators.threshold", 0)

	v.SetDefault("diagnostics.debug_logfile", "")
	v.SetDefault("diagnostics.lag_warn_threshold", 8)
}
