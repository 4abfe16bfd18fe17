package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lucasmbarros/contracts-api/internal/config"
	"github.com/lucasmbarros/contracts-api/internal/domain/models"
	"github.com/lucasmbarros/contracts-api/internal/gateway"
	"github.com/lucasmbarros/contracts-api/internal/lib/jwt"
	"github.com/lucasmbarros/contracts-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Storage is the persistence surface the server needs. The postgres
// implementation satisfies it; tests use in-memory fakes.
type Storage interface {
	SaveUser(ctx context.Context, user models.User) (models.User, error)
	UserByID(ctx context.Context, id int) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id int) error

	SaveContract(ctx context.Context, contract models.Contract) (models.Contract, error)
	ContractByID(ctx context.Context, id int) (models.Contract, error)
	Contracts(ctx context.Context) ([]models.Contract, error)
	ContractsByUser(ctx context.Context, userID int) ([]models.Contract, error)
	CountContractsByUser(ctx context.Context, userID int) (int, error)
	UpdateContract(ctx context.Context, contract models.Contract) error
	DeleteContract(ctx context.Context, id int) error
}

type APIServer struct {
	config    *config.Config
	logger    *slog.Logger
	server    *http.Server
	storage   Storage
	users     *gateway.Gateway[models.User, UserInput]
	contracts *gateway.Gateway[models.Contract, ContractInput]
}

func New(config *config.Config, logger *slog.Logger, storage Storage) *APIServer {
	return &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		storage:   storage,
		users:     newUserGateway(storage),
		contracts: newContractGateway(storage),
	}
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("port", strconv.Itoa(s.config.ApiPort)))

	s.configureRouter()

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()
	router.HandleFunc("/api/auth", s.authHandler()).Methods("POST")

	router.HandleFunc("/api/users", s.authenticate(s.createUserHandler())).Methods("POST")
	router.HandleFunc("/api/users", s.authenticate(s.usersHandler())).Methods("GET")
	router.HandleFunc("/api/users/{id:[0-9]+}", s.authenticate(s.getUserHandler())).Methods("GET")
	router.HandleFunc("/api/users/{id:[0-9]+}", s.authenticate(s.updateUserHandler())).Methods("PATCH")
	router.HandleFunc("/api/users/{id:[0-9]+}", s.authenticate(s.deleteUserHandler())).Methods("DELETE")
	router.HandleFunc("/api/users/{id:[0-9]+}/contracts", s.authenticate(s.contractsByUserHandler())).Methods("GET")

	router.HandleFunc("/api/contracts", s.authenticate(s.createContractHandler())).Methods("POST")
	router.HandleFunc("/api/contracts", s.authenticate(s.contractsHandler())).Methods("GET")
	router.HandleFunc("/api/contracts/{id:[0-9]+}", s.authenticate(s.getContractHandler())).Methods("GET")
	router.HandleFunc("/api/contracts/{id:[0-9]+}", s.authenticate(s.updateContractHandler())).Methods("PATCH")
	router.HandleFunc("/api/contracts/{id:[0-9]+}", s.authenticate(s.deleteContractHandler())).Methods("DELETE")

	s.server.Handler = router
}

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

func (s *APIServer) authHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		user, err := s.storage.UserByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.writeAuthError(w, "invalid credentials")
				return
			}
			s.logger.Error("Failed to load user for auth", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			s.writeAuthError(w, "invalid credentials")
			return
		}

		token, err := jwt.NewToken(&user, s.config.Auth.JwtSecret, s.config.Auth.TokenTtl)
		if err != nil {
			s.logger.Error("Failed to sign token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		s.writeJSON(w, AuthResponse{Token: token})
	}
}

// authenticate gates an operation behind either the static API key header
// or a bearer token. Rejections short-circuit with a 401 JSON body before
// the handler runs.
func (s *APIServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-API-Key"); key != "" {
			if s.config.Auth.ApiKey != "" && key == s.config.Auth.ApiKey {
				next(w, r)
				return
			}
			s.writeAuthError(w, "invalid API key")
			return
		}

		tokenHeader := r.Header.Get("Authorization")
		if tokenHeader == "" {
			s.writeAuthError(w, "missing credentials")
			return
		}

		parts := strings.Split(tokenHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.writeAuthError(w, "invalid token format")
			return
		}

		claims, err := jwt.ParseToken(parts[1], s.config.Auth.JwtSecret)
		if err != nil {
			s.writeAuthError(w, "invalid token")
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), emailContextKey, claims["email"]))
		next(w, r)
	}
}

type contextKey string

const emailContextKey contextKey = "email"

func (s *APIServer) writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// logUnexpected records the internal fault behind an Unexpected result.
// Only the fixed message ever reaches the caller.
func (s *APIServer) logUnexpected(op string, gerr *gateway.Error) {
	if gerr.Kind == gateway.KindUnexpected {
		s.logger.Error("Operation failed", slog.String("op", op), "error", gerr.Unwrap())
	}
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
