package handlers

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Dashboard *DashboardHandler
	Agent     *AgentHandler
	Channel   *ChannelHandler
	Auth      *AuthHandler
}

// NewProvider groups the constructed handlers.
func NewProvider(dashboard *DashboardHandler, agent *AgentHandler, channel *ChannelHandler, auth *AuthHandler) *Provider {
	return &Provider{
		Dashboard: dashboard,
		Agent:     agent,
		Channel:   channel,
		Auth:      auth,
	}
}
