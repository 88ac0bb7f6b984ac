package queries

import (
	"context"
	"fmt"

	"github.com/oriolvila/clinicore-go/internal/application/auth"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	"github.com/oriolvila/clinicore-go/internal/domain/charge"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// GetProposalQuery fetches a charge proposal. Practitioners may only read
// proposals anchored to their own encounters.
type GetProposalQuery struct {
	ProposalID string
	Actor      shared.Actor
}

// GetProposalResponse is the proposal read model
type GetProposalResponse struct {
	Proposal    *charge.Proposal
	TotalAmount string
}

// GetProposalHandler handles the GetProposal query
type GetProposalHandler struct {
	scope common.TransactionScope
	guard *auth.Guard
}

// NewGetProposalHandler creates a new GetProposalHandler
func NewGetProposalHandler(scope common.TransactionScope, guard *auth.Guard) *GetProposalHandler {
	return &GetProposalHandler{scope: scope, guard: guard}
}

// Handle executes the GetProposal query
func (h *GetProposalHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetProposalQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetProposalQuery")
	}

	var resp *GetProposalResponse
	err := h.scope.Execute(ctx, func(ctx context.Context, repos *common.Repositories) error {
		proposal, err := repos.Proposals.FindByID(ctx, query.ProposalID)
		if err != nil {
			return err
		}
		if err := h.guard.RequireOwn(query.Actor, auth.PermProposalView, proposal.PractitionerID()); err != nil {
			return err
		}
		resp = &GetProposalResponse{
			Proposal:    proposal,
			TotalAmount: proposal.TotalAmount().StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
