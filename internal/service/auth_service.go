package service

import (
	"log/slog"
	"net/http"

	"github.com/governa/governa/internal/auth"
	"github.com/governa/governa/internal/middleware"
	"github.com/governa/governa/internal/models"
	"github.com/governa/governa/internal/storage"
)

// Default credentials the seed action provisions when none are supplied.
const (
	seedAdminEmail    = "admin@governa.com"
	seedAdminName     = "Administrador Governa"
	seedAdminPassword = "admin123"
)

// AuthService implements login, logout, session introspection and the admin
// seed action.
type AuthService struct {
	store         storage.Store
	authenticator auth.Authenticator
	sessions      *auth.SessionManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, sessions *auth.SessionManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:         store,
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger,
	}
}

// Register wires the auth routes onto the mux.
func (s *AuthService) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.logout)
	mux.HandleFunc("GET /api/auth/me", s.currentUser)
	mux.HandleFunc("POST /api/admin/seed", s.seed)
}

// login verifies credentials and sets the session cookie.
func (s *AuthService) login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Credenciales inválidas")
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := s.sessions.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate session", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}

	s.sessions.SetCookie(w, token)
	s.logger.Info("User logged in", "user_id", user.ID, "email", user.Email)
	writeSuccess(w, "Sesión iniciada.")
}

// logout expires the session cookie. Sessions are stateless tokens, so the
// cookie is all there is to clear.
func (s *AuthService) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	s.logger.Info("Logout request")
	writeSuccess(w, "Sesión cerrada.")
}

// currentUser returns the session identity carried by the gate.
func (s *AuthService) currentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.SessionUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Sesión requerida")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// seed upserts the administrator account so a fresh deployment can log in.
func (s *AuthService) seed(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" {
		email = seedAdminEmail
	}
	password := r.FormValue("password")
	if password == "" {
		password = seedAdminPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("Seed hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}

	user := models.NewUser(email, seedAdminName, hash, models.RoleAdmin)
	if err := s.store.UpsertUserByEmail(r.Context(), user); err != nil {
		s.logger.Error("Seed failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "Error de base de datos. Intente nuevamente.")
		return
	}

	s.logger.Info("Admin user seeded", "email", email)
	writeSuccess(w, "Usuario administrador creado.")
}
