package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lucasmbarros/contracts-api/internal/domain/models"
	"github.com/lucasmbarros/contracts-api/internal/gateway"
	"github.com/lucasmbarros/contracts-api/internal/storage"
)

// Timestamp formats are fixed: ISO-like on input, space-separated on output.
const (
	createdAtInputLayout   = "2006-01-02T15:04:05"
	createdAtDisplayLayout = "2006-01-02 15:04:05"
)

type ContractInput struct {
	Description gateway.Field[string]  `json:"description"`
	UserID      gateway.Field[int]     `json:"user_id"`
	CreatedAt   gateway.Field[string]  `json:"created_at"`
	Fidelity    gateway.Field[int]     `json:"fidelity"`
	Amount      gateway.Field[float64] `json:"amount"`
}

type contractStore struct {
	storage Storage
}

func (s contractStore) Get(ctx context.Context, id int) (models.Contract, error) {
	return s.storage.ContractByID(ctx, id)
}

func (s contractStore) Insert(ctx context.Context, contract models.Contract) (models.Contract, error) {
	return s.storage.SaveContract(ctx, contract)
}

func (s contractStore) Update(ctx context.Context, contract models.Contract) error {
	return s.storage.UpdateContract(ctx, contract)
}

func (s contractStore) Delete(ctx context.Context, id int) error {
	return s.storage.DeleteContract(ctx, id)
}

func newContractGateway(st Storage) *gateway.Gateway[models.Contract, ContractInput] {
	return gateway.New(gateway.Config[models.Contract, ContractInput]{
		Store: contractStore{storage: st},
		Build: func(ctx context.Context, in ContractInput) (models.Contract, *gateway.Error) {
			if !in.Description.Set || !in.UserID.Set || !in.CreatedAt.Set || !in.Fidelity.Set || !in.Amount.Set {
				return models.Contract{}, gateway.Validation("description, user_id, created_at, fidelity and amount are required.")
			}
			createdAt, err := time.Parse(createdAtInputLayout, in.CreatedAt.Value)
			if err != nil {
				return models.Contract{}, gateway.Validation("created_at must be in YYYY-MM-DDTHH:MM:SS format.")
			}
			return models.Contract{
				Description: in.Description.Value,
				UserID:      in.UserID.Value,
				CreatedAt:   createdAt,
				Fidelity:    in.Fidelity.Value,
				Amount:      in.Amount.Value,
			}, nil
		},
		Apply: func(contract *models.Contract, in ContractInput) *gateway.Error {
			if in.Description.Set {
				contract.Description = in.Description.Value
			}
			if in.UserID.Set {
				contract.UserID = in.UserID.Value
			}
			if in.CreatedAt.Set {
				createdAt, err := time.Parse(createdAtInputLayout, in.CreatedAt.Value)
				if err != nil {
					return gateway.Validation("created_at must be in YYYY-MM-DDTHH:MM:SS format.")
				}
				contract.CreatedAt = createdAt
			}
			if in.Fidelity.Set {
				contract.Fidelity = in.Fidelity.Value
			}
			if in.Amount.Set {
				contract.Amount = in.Amount.Value
			}
			return nil
		},
		NotFoundMessage: "Contract not found.",
		DeletedMessage:  "Contract deleted successfully.",
	})
}

type contractView struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	UserID      int     `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	Fidelity    int     `json:"fidelity"`
	Amount      float64 `json:"amount"`
}

func newContractView(contract models.Contract) contractView {
	return contractView{
		ID:          contract.ID,
		Description: contract.Description,
		UserID:      contract.UserID,
		CreatedAt:   contract.CreatedAt.Format(createdAtDisplayLayout),
		Fidelity:    contract.Fidelity,
		Amount:      contract.Amount,
	}
}

type createContractResponse struct {
	ID          *int            `json:"id"`
	Description *string         `json:"description"`
	UserID      *int            `json:"user_id"`
	CreatedAt   *string         `json:"created_at"`
	Fidelity    *int            `json:"fidelity"`
	Amount      *float64        `json:"amount"`
	Error       *operationError `json:"error"`
}

type updateContractResponse struct {
	Contract *contractView   `json:"contract"`
	Error    *operationError `json:"error"`
}

// contractDetail is the getContract view: the contract with its user
// resolved. contract_id duplicates id, matching the exposed shape.
type contractDetail struct {
	ContractID  int       `json:"contract_id"`
	ID          int       `json:"id"`
	Description string    `json:"description"`
	UserID      int       `json:"user_id"`
	CreatedAt   string    `json:"created_at"`
	Fidelity    int       `json:"fidelity"`
	Amount      float64   `json:"amount"`
	User        *userView `json:"user"`
}

type contractsByUserResponse struct {
	Contracts []contractView `json:"contracts"`
	NextToken *string        `json:"nextToken"`
}

func (s *APIServer) createContractHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ContractInput
		if err := decodeBody(r, &in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		contract, gerr := s.contracts.Create(r.Context(), in)
		if gerr != nil {
			s.logUnexpected("createContract", gerr)
			s.writeJSON(w, createContractResponse{Error: &operationError{Message: gerr.Message}})
			return
		}

		view := newContractView(contract)
		s.writeJSON(w, createContractResponse{
			ID:          &view.ID,
			Description: &view.Description,
			UserID:      &view.UserID,
			CreatedAt:   &view.CreatedAt,
			Fidelity:    &view.Fidelity,
			Amount:      &view.Amount,
		})
	}
}

func (s *APIServer) updateContractHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var in ContractInput
		if err := decodeBody(r, &in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		contract, gerr := s.contracts.Patch(r.Context(), id, in)
		if gerr != nil {
			s.logUnexpected("updateContract", gerr)
			s.writeJSON(w, updateContractResponse{Error: &operationError{Message: gerr.Message}})
			return
		}

		view := newContractView(contract)
		s.writeJSON(w, updateContractResponse{Contract: &view})
	}
}

func (s *APIServer) deleteContractHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		result, gerr := s.contracts.Delete(r.Context(), id)
		if gerr != nil {
			s.logUnexpected("deleteContract", gerr)
			s.writeJSON(w, gateway.Result{Success: false, Message: gerr.Message})
			return
		}

		s.writeJSON(w, result)
	}
}

func (s *APIServer) getContractHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		contract, err := s.storage.ContractByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.writeJSON(w, (*contractDetail)(nil))
				return
			}
			s.logger.Error("Failed to load contract", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		detail := contractDetail{
			ContractID:  contract.ID,
			ID:          contract.ID,
			Description: contract.Description,
			UserID:      contract.UserID,
			CreatedAt:   contract.CreatedAt.Format(createdAtDisplayLayout),
			Fidelity:    contract.Fidelity,
			Amount:      contract.Amount,
		}

		user, err := s.storage.UserByID(r.Context(), contract.UserID)
		if err == nil {
			detail.User = &userView{ID: user.ID, Name: user.Name, Email: user.Email}
		} else if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Failed to load contract owner", "error", err)
		}

		s.writeJSON(w, detail)
	}
}

func (s *APIServer) contractsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		contracts, err := s.storage.Contracts(r.Context())
		if err != nil {
			s.logger.Error("Failed to list contracts", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		views := make([]contractView, 0, len(contracts))
		for _, contract := range contracts {
			views = append(views, newContractView(contract))
		}

		s.writeJSON(w, views)
	}
}

func (s *APIServer) contractsByUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		contracts, err := s.storage.ContractsByUser(r.Context(), id)
		if err != nil {
			s.logger.Error("Failed to list contracts by user", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		views := make([]contractView, 0, len(contracts))
		for _, contract := range contracts {
			views = append(views, newContractView(contract))
		}

		// nextToken stays null until pagination lands.
		s.writeJSON(w, contractsByUserResponse{Contracts: views})
	}
}
