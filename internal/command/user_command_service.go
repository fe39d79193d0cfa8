package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/events"
	"github.com/stutxi/paytm/internal/ledger"
	"github.com/stutxi/paytm/internal/models"
	"github.com/stutxi/paytm/internal/repository"
	"github.com/stutxi/paytm/internal/utils"
)

// UserCommandService writes user state and keeps the Redis read model up to
// date. Signup also provisions the user's single ledger account.
type UserCommandService struct {
	writeRepo *repository.UserWriteRepository
	readRepo  *repository.UserReadRepository
	store     ledger.Store
	publisher EventPublisher
}

func NewUserCommandService(
	writeRepo *repository.UserWriteRepository,
	readRepo *repository.UserReadRepository,
	store ledger.Store,
	publisher EventPublisher,
) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		store:     store,
		publisher: publisher,
	}
}

// CreateUser registers a user and opens their account with a randomised
// signup bonus. One account per user: the unique index on accounts.user_id
// backstops this.
func (s *UserCommandService) CreateUser(cmd cqrs.CreateUserCommand) (*models.User, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.writeRepo.Create(user); err != nil {
		return nil, err
	}

	ctx := context.Background()
	account := &ledger.Account{
		AccountNumber: utils.GenerateAccountNumber(),
		UserID:        user.ID,
		Balance:       utils.SignupBonus(),
		Currency:      ledger.DefaultCurrency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	if s.readRepo != nil {
		s.readRepo.CacheUserView(ctx, userToView(user))
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
			UserID:    user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		}); err != nil {
			log.Printf("Failed to publish user.created event: %v", err)
		}
	}
	return user, nil
}

// UpdateUser applies the optional profile fields; empty fields are left
// unchanged.
func (s *UserCommandService) UpdateUser(cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	user, err := s.writeRepo.GetByID(cmd.UserID)
	if err != nil {
		return nil, err
	}
	if cmd.Password != "" {
		passwordHash, err := utils.HashPassword(cmd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = passwordHash
	}
	if cmd.FirstName != "" {
		user.FirstName = cmd.FirstName
	}
	if cmd.LastName != "" {
		user.LastName = cmd.LastName
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.writeRepo.Update(user); err != nil {
		return nil, err
	}

	ctx := context.Background()
	view := userToView(user)
	if s.readRepo != nil {
		s.readRepo.CacheUserView(ctx, view)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
			UserID: user.ID,
		}); err != nil {
			log.Printf("Failed to publish user.updated event: %v", err)
		}
	}
	return view, nil
}

// userToView converts the write model to a read view model.
func userToView(u *models.User) *models.UserView {
	return &models.UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}
