package users

import (
	"context"
	"fmt"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

type usersRepository interface {
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// Service exposes the participant directory used to pick counterparties.
type Service interface {
	ListByRole(ctx context.Context, role enums.UserRole) ([]UserDTO, error)
}

type service struct {
	repo usersRepository
}

// NewService builds the directory service.
func NewService(repo usersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByRole(ctx context.Context, role enums.UserRole) ([]UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid role")
	}
	rows, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
