package query

import (
	"context"

	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/models"
	"github.com/stutxi/paytm/internal/repository"
)

type UserQueryService struct {
	readRepo *repository.UserReadRepository
}

func NewUserQueryService(readRepo *repository.UserReadRepository) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

// SearchUsers returns public views of users matching the filter. This backs
// the recipient picker in the client, so it exposes no balances and no
// credential material.
func (s *UserQueryService) SearchUsers(q cqrs.SearchUsersQuery) ([]models.UserView, error) {
	return s.readRepo.Search(context.Background(), q.Filter)
}
