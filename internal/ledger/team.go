package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

var hundred = decimal.NewFromInt(100)

type TeamMemberParams struct {
	Name             string
	Role             string
	PayoutType       PayoutType
	PayoutAmount     *decimal.Decimal
	PayoutPercentage *decimal.Decimal
}

// normalize validates the payout terms and clears the field that does not
// apply to the chosen payout type.
func (p TeamMemberParams) normalize() (TeamMemberParams, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Role = strings.TrimSpace(p.Role)

	if p.Name == "" {
		return p, apperror.InvalidArgument("Name is required")
	}

	if p.Role == "" {
		return p, apperror.InvalidArgument("Role is required")
	}

	switch p.PayoutType {
	case PayoutFixed:
		if p.PayoutAmount == nil {
			return p, apperror.InvalidArgument("Payout amount is required for fixed payouts")
		}

		if p.PayoutAmount.IsNegative() {
			return p, apperror.InvalidArgument("Amount must be positive")
		}

		p.PayoutPercentage = nil
	case PayoutPercentage:
		if p.PayoutPercentage == nil {
			return p, apperror.InvalidArgument("Payout percentage is required for percentage payouts")
		}

		if p.PayoutPercentage.IsNegative() || p.PayoutPercentage.GreaterThan(hundred) {
			return p, apperror.InvalidArgument("Payout percentage must be between 0 and 100")
		}

		p.PayoutAmount = nil
	default:
		return p, apperror.InvalidArgument("Payout type must be fixed or percentage")
	}

	return p, nil
}

func (s *Service) CreateTeamMember(ctx context.Context, actor access.Actor, params TeamMemberParams) (*TeamMember, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	params, err := params.normalize()
	if err != nil {
		return nil, err
	}

	m := &TeamMember{
		CompanyID:        actor.CompanyID,
		Name:             params.Name,
		Role:             params.Role,
		PayoutType:       params.PayoutType,
		PayoutAmount:     params.PayoutAmount,
		PayoutPercentage: params.PayoutPercentage,
	}
	if err := s.repo.CreateTeamMember(ctx, m); err != nil {
		return nil, apperror.Store(err)
	}

	s.publish(ctx, actor.CompanyID, event.EntityTeamMember, event.ActionCreated, m.ID, nil)

	return m, nil
}

func (s *Service) GetTeamMember(ctx context.Context, actor access.Actor, id uuid.UUID) (*TeamMember, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	m, err := s.repo.GetTeamMember(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, classify(err, "Team member not found")
	}

	return m, nil
}

// ListTeamMembers returns the company's team, newest first.
func (s *Service) ListTeamMembers(ctx context.Context, actor access.Actor) ([]*TeamMember, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	members, err := s.repo.ListTeamMembers(ctx, actor.CompanyID)
	if err != nil {
		return nil, apperror.Store(err)
	}

	return members, nil
}

func (s *Service) UpdateTeamMember(ctx context.Context, actor access.Actor, id uuid.UUID, params TeamMemberParams) (*TeamMember, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	params, err := params.normalize()
	if err != nil {
		return nil, err
	}

	m, err := s.repo.GetTeamMember(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, classify(err, "Team member not found")
	}

	m.Name = params.Name
	m.Role = params.Role
	m.PayoutType = params.PayoutType
	m.PayoutAmount = params.PayoutAmount
	m.PayoutPercentage = params.PayoutPercentage

	if err := s.repo.UpdateTeamMember(ctx, m); err != nil {
		return nil, classify(err, "Team member not found")
	}

	s.publish(ctx, actor.CompanyID, event.EntityTeamMember, event.ActionUpdated, m.ID, nil)

	return m, nil
}

// DeleteTeamMember removes the member. Recorded team expenses stay on the
// ledger with their member reference cleared.
func (s *Service) DeleteTeamMember(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := actor.RequireMutate(); err != nil {
		return err
	}

	if err := s.repo.DeleteTeamMember(ctx, actor.CompanyID, id); err != nil {
		return classify(err, "Team member not found")
	}

	s.publish(ctx, actor.CompanyID, event.EntityTeamMember, event.ActionDeleted, id, nil)

	return nil
}
