package gateways

import (
	"github.com/ochairo/slime/internal/domain/interfaces/gateways"
)

// compositeRemoteGateway implements the RemoteGateway interface by composing
// the individual backend gateways together
type compositeRemoteGateway struct {
	gateways.FindingGateway
	gateways.ProjectGateway
	gateways.SummaryGateway
	gateways.AssistantGateway
}

// NewHTTPRemoteGateway creates the backend gateway with all HTTP sub-gateways
// sharing one transport
func NewHTTPRemoteGateway(opts Options) (gateways.RemoteGateway, error) {
	client, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return &compositeRemoteGateway{
		FindingGateway:   &findingGateway{http: client},
		ProjectGateway:   &projectGateway{http: client},
		SummaryGateway:   &summaryGateway{http: client},
		AssistantGateway: &assistantGateway{http: client},
	}, nil
}

// NewCompositeRemoteGatewayWithDeps creates a composite gateway with custom dependencies
// This is useful for testing or when you want to inject specific implementations
func NewCompositeRemoteGatewayWithDeps(
	findings gateways.FindingGateway,
	projects gateways.ProjectGateway,
	summaries gateways.SummaryGateway,
	assistant gateways.AssistantGateway,
) gateways.RemoteGateway {
	return &compositeRemoteGateway{
		FindingGateway:   findings,
		ProjectGateway:   projects,
		SummaryGateway:   summaries,
		AssistantGateway: assistant,
	}
}
