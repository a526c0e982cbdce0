package config

import "fmt"

// ValidateConfig checks the loaded configuration for internally
// inconsistent values, run after defaults, file, and environment layers
// have all been merged.
func ValidateConfig(c *Config) error {
	if c.Peer.MaxPeers < 0 {
		return fmt.Errorf("peer.max_peers must be >= 0, got %d", c.Peer.MaxPeers)
	}
	if c.Topology.RowNeighbors < 0 || c.Topology.ColumnNeighbors < 0 {
		return fmt.Errorf("topology row/column neighbor hints must be >= 0")
	}
	if c.Aggression.L1Threshold == 0 {
		return fmt.Errorf("aggression.l1_threshold must be > 0")
	}
	if c.Aggression.L2Threshold <= c.Aggression.L1Threshold {
		return fmt.Errorf("aggression.l2_threshold (%d) must exceed l1_threshold (%d)",
			c.Aggression.L2Threshold, c.Aggression.L1Threshold)
	}
	if c.Reputation.FlushInterval <= 0 {
		return fmt.Errorf("reputation.flush_interval must be > 0")
	}
	if c.Batching.MaxNotificationSize <= 0 {
		return fmt.Errorf("batching.max_notification_size must be > 0")
	}
	if c.Validators.Threshold < 0 || c.Validators.Threshold > len(c.Validators.Validators) {
		return fmt.Errorf("validators.threshold (%d) out of range for %d validators",
			c.Validators.Threshold, len(c.Validators.Validators))
	}
	return nil
}
