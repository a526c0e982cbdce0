// Package config loads and validates approvald's configuration surface:
// defaults, then a TOML file, then environment variables, then validation.
package config

import "time"

// Config is the complete approvald configuration, grouped into named
// sections (SPEC_FULL.md §C).
type Config struct {
	Server      ServerConfig      `toml:"server" mapstructure:"server"`
	Peer        PeerConfig        `toml:"peer" mapstructure:"peer"`
	Topology    TopologyConfig    `toml:"topology" mapstructure:"topology"`
	Aggression  AggressionConfig  `toml:"aggression" mapstructure:"aggression"`
	Reputation  ReputationConfig  `toml:"reputation" mapstructure:"reputation"`
	Batching    BatchingConfig    `toml:"batching" mapstructure:"batching"`
	Validators  ValidatorsConfig  `toml:"validators" mapstructure:"validators"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics" mapstructure:"diagnostics"`

	// configPath records where this Config was loaded from, for ConfigPath.
	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig is where the node listens for peer connections. The
// Network Bridge itself is an external collaborator (spec.md §1), but the
// node still needs a local bind address for its side of that bridge.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr" mapstructure:"listen_addr"`
	Standalone bool   `toml:"standalone" mapstructure:"standalone"`
}

// PeerConfig bounds the node's peer set and its visibility to others.
type PeerConfig struct {
	MaxPeers    int  `toml:"max_peers" mapstructure:"max_peers"`
	PeerPrivate bool `toml:"peer_private" mapstructure:"peer_private"`
}

// TopologyConfig holds grid-shape hints. They are validated but not read by
// the node: until NewGossipTopology arrives, routing stays
// RoutingPendingTopology, and the real topology always comes from the
// network event (spec.md §4.4).
type TopologyConfig struct {
	RowNeighbors    int `toml:"row_neighbors" mapstructure:"row_neighbors"`
	ColumnNeighbors int `toml:"column_neighbors" mapstructure:"column_neighbors"`
}

// AggressionConfig is directly spec.md §4.8's AggressionConfig, made
// configurable instead of hard-coded.
type AggressionConfig struct {
	L1Threshold             uint32 `toml:"l1_threshold" mapstructure:"l1_threshold"`
	L2Threshold             uint32 `toml:"l2_threshold" mapstructure:"l2_threshold"`
	ResendUnfinalizedPeriod uint32 `toml:"resend_unfinalized_period" mapstructure:"resend_unfinalized_period"`
}

// ReputationConfig carries the reputation flush interval (default 30s,
// matching REPUTATION_CHANGE_INTERVAL) and a table of the deltas of
// spec.md §6. Only FlushInterval is applied; Costs and Benefits are loaded
// but not read, and the node always applies the fixed deltas declared in
// internal/approval/reputation.go.
type ReputationConfig struct {
	FlushInterval time.Duration    `toml:"flush_interval" mapstructure:"flush_interval"`
	Costs         map[string]int32 `toml:"costs" mapstructure:"costs"`
	Benefits      map[string]int32 `toml:"benefits" mapstructure:"benefits"`
}

// BatchingConfig drives the max(1, MAX_NOTIFICATION_SIZE/entry_size/3)
// batch-size computation of spec.md §6.
type BatchingConfig struct {
	MaxNotificationSize int `toml:"max_notification_size" mapstructure:"max_notification_size"`
}

// ValidatorsConfig lists validator authority identifiers and a threshold.
// ValidateConfig checks the threshold against the list; nothing else reads
// either field, and grid topologies are built only from NewGossipTopology.
type ValidatorsConfig struct {
	Validators []string `toml:"validators" mapstructure:"validators"`
	Threshold  int      `toml:"threshold" mapstructure:"threshold"`
}

// DiagnosticsConfig names a debug log file and an ApprovalCheckingLagUpdate
// warning threshold. Both are loaded but not read: log output is not
// mirrored to a file, and the event loop stores the lag without logging a
// warning for it.
type DiagnosticsConfig struct {
	DebugLogfile     string `toml:"debug_logfile" mapstructure:"debug_logfile"`
	LagWarnThreshold uint32 `toml:"lag_warn_threshold" mapstructure:"lag_warn_threshold"`
}

// ConfigPath returns the file this Config was loaded from, if any.
func (c *Config) ConfigPath() string { return c.configPath }
