package usecase

import (
	"context"
	"fmt"
	"time"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/dto/request"
	"boardroom-booking/internal/dto/response"
	"boardroom-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)

	// Admin
	GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	UpdateRole(ctx context.Context, actorID uuid.UUID, userID string, req *request.UpdateRoleRequest) (*response.UserResponse, error)
	DeleteUser(ctx context.Context, actorID uuid.UUID, userID string) error
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := us.repo.User.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get profile")
	}
	if user == nil {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	normalizePage(req)

	users, err := us.repo.User.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		us.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage))
		return nil, fmt.Errorf("failed to get users")
	}

	total, err := us.repo.User.CountAll(ctx)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("failed to count users")
	}

	data := make([]response.UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, response.UserToResponse(u))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (us *userService) UpdateRole(ctx context.Context, actorID uuid.UUID, userID string, req *request.UpdateRoleRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID")
	}
	if id == actorID {
		return nil, fmt.Errorf("cannot change your own role")
	}

	user, err := us.repo.User.FindByID(ctx, id)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to update role")
	}
	if user == nil {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}

	user.Role = entity.UserRole(req.Role)
	user.UpdatedAt = time.Now()

	if err := us.repo.User.Update(ctx, user); err != nil {
		us.log.Error("Failed to update role", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to update role")
	}

	us.log.Info("User role updated",
		zap.String("user_id", userID),
		zap.String("role", req.Role),
		zap.String("by", actorID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) DeleteUser(ctx context.Context, actorID uuid.UUID, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID")
	}
	if id == actorID {
		return fmt.Errorf("cannot delete your own account")
	}

	user, err := us.repo.User.FindByID(ctx, id)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("failed to delete user")
	}
	if user == nil {
		return fmt.Errorf("user %w", ErrNotFound)
	}

	if err := us.repo.User.Delete(ctx, id); err != nil {
		us.log.Error("Failed to delete user", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("failed to delete user")
	}

	// Existing sessions die with the account
	if err := us.repo.Session.RevokeAllUserSessions(ctx, id); err != nil {
		us.log.Warn("Failed to revoke sessions of deleted user", zap.Error(err), zap.String("user_id", userID))
	}

	us.log.Info("User deleted", zap.String("user_id", userID), zap.String("by", actorID.String()))
	return nil
}

func normalizePage(req *request.PaginatedRequest) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}
	if req.PerPage > 100 {
		req.PerPage = 100
	}
}
