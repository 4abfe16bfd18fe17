package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/lucasmbarros/contracts-api/internal/domain/models"
	"github.com/lucasmbarros/contracts-api/internal/gateway"
	"github.com/lucasmbarros/contracts-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserInput is the createUser/updateUser payload. Every field tracks
// presence, so an omitted key and an explicit empty value are distinct.
type UserInput struct {
	Name     gateway.Field[string] `json:"name"`
	Email    gateway.Field[string] `json:"email"`
	Password gateway.Field[string] `json:"password"`
}

type userStore struct {
	storage Storage
}

func (s userStore) Get(ctx context.Context, id int) (models.User, error) {
	return s.storage.UserByID(ctx, id)
}

func (s userStore) Insert(ctx context.Context, user models.User) (models.User, error) {
	return s.storage.SaveUser(ctx, user)
}

func (s userStore) Update(ctx context.Context, user models.User) error {
	return s.storage.UpdateUser(ctx, user)
}

func (s userStore) Delete(ctx context.Context, id int) error {
	return s.storage.DeleteUser(ctx, id)
}

func newUserGateway(st Storage) *gateway.Gateway[models.User, UserInput] {
	return gateway.New(gateway.Config[models.User, UserInput]{
		Store: userStore{storage: st},
		Build: func(ctx context.Context, in UserInput) (models.User, *gateway.Error) {
			if !in.Name.Set || !in.Email.Set {
				return models.User{}, gateway.Validation("name and email are required.")
			}
			user := models.User{Name: in.Name.Value, Email: in.Email.Value}
			if in.Password.Set {
				hash, err := bcrypt.GenerateFromPassword([]byte(in.Password.Value), bcrypt.DefaultCost)
				if err != nil {
					return models.User{}, gateway.Unexpected(err)
				}
				user.PasswordHash = string(hash)
			}
			return user, nil
		},
		Apply: func(user *models.User, in UserInput) *gateway.Error {
			if in.Name.Set {
				user.Name = in.Name.Value
			}
			if in.Email.Set {
				user.Email = in.Email.Value
			}
			if in.Password.Set {
				hash, err := bcrypt.GenerateFromPassword([]byte(in.Password.Value), bcrypt.DefaultCost)
				if err != nil {
					return gateway.Unexpected(err)
				}
				user.PasswordHash = string(hash)
			}
			return nil
		},
		CheckConflict: func(ctx context.Context, user models.User) *gateway.Error {
			existing, err := st.UserByEmail(ctx, user.Email)
			if err == nil {
				return gateway.AlreadyExists("User with this email already exists.", existing.Name)
			}
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return gateway.Unexpected(err)
		},
		CheckDependents: func(ctx context.Context, id int) *gateway.Error {
			count, err := st.CountContractsByUser(ctx, id)
			if err != nil {
				return gateway.Unexpected(err)
			}
			if count > 0 {
				return gateway.HasDependents("User has associated contracts and cannot be deleted.")
			}
			return nil
		},
		NotFoundMessage: "User not found.",
		DeletedMessage:  "User deleted successfully.",
	})
}

type userView struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type operationError struct {
	Message  string `json:"message"`
	UserName string `json:"user_name,omitempty"`
}

type userResponse struct {
	ID    *int            `json:"id"`
	Name  *string         `json:"name"`
	Email *string         `json:"email"`
	Error *operationError `json:"error"`
}

func userSuccess(user models.User) userResponse {
	return userResponse{ID: &user.ID, Name: &user.Name, Email: &user.Email}
}

func userFailure(gerr *gateway.Error) userResponse {
	return userResponse{Error: &operationError{Message: gerr.Message, UserName: gerr.ConflictName}}
}

func (s *APIServer) createUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UserInput
		if err := decodeBody(r, &in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		user, gerr := s.users.Create(r.Context(), in)
		if gerr != nil {
			s.logUnexpected("createUser", gerr)
			s.writeJSON(w, userFailure(gerr))
			return
		}

		s.writeJSON(w, userSuccess(user))
	}
}

func (s *APIServer) updateUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var in UserInput
		if err := decodeBody(r, &in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		user, gerr := s.users.Patch(r.Context(), id, in)
		if gerr != nil {
			s.logUnexpected("updateUser", gerr)
			s.writeJSON(w, userFailure(gerr))
			return
		}

		s.writeJSON(w, userSuccess(user))
	}
}

func (s *APIServer) deleteUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		result, gerr := s.users.Delete(r.Context(), id)
		if gerr != nil {
			s.logUnexpected("deleteUser", gerr)
			s.writeJSON(w, gateway.Result{Success: false, Message: gerr.Message})
			return
		}

		s.writeJSON(w, result)
	}
}

func (s *APIServer) getUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		user, err := s.storage.UserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.writeJSON(w, (*userView)(nil))
				return
			}
			s.logger.Error("Failed to load user", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, userView{ID: user.ID, Name: user.Name, Email: user.Email})
	}
}

func (s *APIServer) usersHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.storage.Users(r.Context())
		if err != nil {
			s.logger.Error("Failed to list users", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		views := make([]userView, 0, len(users))
		for _, user := range users {
			views = append(views, userView{ID: user.ID, Name: user.Name, Email: user.Email})
		}

		s.writeJSON(w, views)
	}
}
