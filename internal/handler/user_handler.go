package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/middleware"
	"github.com/stutxi/paytm/internal/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(cqrs.CreateUserCommand) (*models.User, error)
	UpdateUser(cqrs.UpdateUserCommand) (*models.UserView, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	SearchUsers(cqrs.SearchUsersQuery) ([]models.UserView, error)
}

// TokenIssuer signs a session token for a new user, so signup logs the
// user straight in.
type TokenIssuer interface {
	IssueToken(userID, email string) (string, error)
}

// UserHandler handles registration, profile updates and recipient search.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
	tokens   TokenIssuer
}

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required,max=30"`
	LastName  string `json:"lastName" validate:"omitempty,max=30"`
}

type SignupResponse struct {
	User  *models.UserView `json:"user"`
	Token string           `json:"token"`
}

type UpdateUserRequest struct {
	Password  string `json:"password" validate:"omitempty,min=6"`
	FirstName string `json:"firstName" validate:"omitempty,max=30"`
	LastName  string `json:"lastName" validate:"omitempty,max=30"`
}

type SearchUsersResponse struct {
	Users []models.UserView `json:"users"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier, tokens TokenIssuer) *UserHandler {
	return &UserHandler{commands: commands, queries: queries, tokens: tokens}
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.CreateUser(cqrs.CreateUserCommand{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if err.Error() == "email already exists" {
			middleware.RespondWithError(c, http.StatusConflict, "Email already taken")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := h.tokens.IssueToken(user.ID, user.Email)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		User: &models.UserView{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			CreatedAt: user.CreatedAt,
		},
		Token: token,
	})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.UpdateUser(cqrs.UpdateUserCommand{
		UserID:    userID,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if err.Error() == "user not found" {
			middleware.RespondWithError(c, http.StatusNotFound, "User not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	filter := c.Query("filter")

	views, err := h.queries.SearchUsers(cqrs.SearchUsersQuery{Filter: filter})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to search users")
		return
	}
	if views == nil {
		views = []models.UserView{}
	}

	c.JSON(http.StatusOK, SearchUsersResponse{Users: views})
}
