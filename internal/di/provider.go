package di

import (
	"github.com/parachain/approval-distribution/internal/approval"
	"github.com/parachain/approval-distribution/internal/config"
	"github.com/parachain/approval-distribution/internal/wire"
)

// Provider configures and registers services in the container: a thin
// layer that registers builders lazily rather than constructing the whole
// dependency graph eagerly.
type Provider struct {
	container *Container
	config    *config.Config
}

// NewProvider creates a new service provider bound to cfg.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{container: container, config: cfg}
}

// RegisterAll registers every service this binary needs: the config
// itself, a Logger, the approval-distribution State, and its cooperative
// event Loop.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)
	p.registerLogger()
	p.registerApprovalState()
	p.registerApprovalLoop()
	return nil
}

func (p *Provider) registerLogger() {
	p.container.RegisterBuilder(ServiceLogger, func(c *Container) (interface{}, error) {
		return approval.NewDefaultLogger(true), nil
	})
}

// registerApprovalState builds the top-level State (spec.md §3), wired to
// a wire.Sink (which performs the version down-conversion and
// MAX_NOTIFICATION_SIZE batching of spec.md §6 before handing frames to a
// Transport) over a wire.LoggingTransport, and an accepting Approval
// Voting client: the real Network Bridge and Approval Voting are external
// collaborators out of scope for this subsystem (spec.md §1); a
// deployment that owns a real peer-to-peer transport supplies its own
// wire.Transport/ApprovalVotingClient before calling RegisterAll, by
// Register-ing ServiceState ahead of time.
func (p *Provider) registerApprovalState() {
	p.container.RegisterBuilder(ServiceState, func(c *Container) (interface{}, error) {
		logger := c.MustGet(ServiceLogger).(approval.Logger)
		transport := wire.LoggingTransport{Logger: logger}
		sink := wire.NewSink(transport)
		sink.MaxNotificationSize = p.config.Batching.MaxNotificationSize
		voting := approval.AcceptingApprovalVotingClient{}

		state := approval.NewState(sink, voting, logger, nil)
		sink.Metrics = state.Metrics
		state.Aggression = approval.AggressionConfig{
			L1Threshold:             p.config.Aggression.L1Threshold,
			L2Threshold:             p.config.Aggression.L2Threshold,
			ResendUnfinalizedPeriod: p.config.Aggression.ResendUnfinalizedPeriod,
		}
		return state, nil
	})
}

func (p *Provider) registerApprovalLoop() {
	p.container.RegisterBuilder(ServiceLoop, func(c *Container) (interface{}, error) {
		state := c.MustGet(ServiceState).(*approval.State)
		return approval.NewLoop(state, p.config.Reputation.FlushInterval), nil
	})
}
