package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/example/room-presence-demo/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestService creates an AuthService backed by an in-memory SQLite database.
func setupTestService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewAuthService(NewUserRepository(db), NewPasswordHasher(), NewJWTManager(DefaultJWTConfig()))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{
			name:     "valid username",
			username: "alice",
			wantErr:  nil,
		},
		{
			name:     "max length username",
			username: strings.Repeat("a", MaxUsernameLength),
			wantErr:  nil,
		},
		{
			name:     "empty username",
			username: "",
			wantErr:  ErrUsernameEmpty,
		},
		{
			name:     "too long username",
			username: strings.Repeat("a", MaxUsernameLength+1),
			wantErr:  ErrUsernameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateUsername(tt.username); err != tt.wantErr {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "8 characters exactly",
			password: "12345678",
			wantErr:  nil,
		},
		{
			name:     "72 characters exactly",
			password: strings.Repeat("x", 72),
			wantErr:  nil,
		},
		{
			name:     "7 characters",
			password: "1234567",
			wantErr:  ErrWeakPassword,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  ErrWeakPassword,
		},
		{
			name:     "73 characters",
			password: strings.Repeat("x", 73),
			wantErr:  ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); err != tt.wantErr {
				t.Errorf("ValidatePassword() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "alice", "password123", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Register() did not assign a user ID")
	}
	if user.Username != "alice" {
		t.Errorf("user.Username = %q, want %q", user.Username, "alice")
	}
	if user.Nickname != "Alice" {
		t.Errorf("user.Nickname = %q, want %q", user.Nickname, "Alice")
	}
	if user.PasswordHash == "password123" {
		t.Error("Register() stored the plaintext password")
	}

	// Duplicate username is rejected
	_, err = service.Register(ctx, "alice", "password456", "Other Alice")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Register() duplicate error = %v, want ErrUserExists", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, "bob", "password123", "Bob"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		user, tokens, err := service.Login(ctx, "bob", "password123")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if user.Username != "bob" {
			t.Errorf("user.Username = %q, want %q", user.Username, "bob")
		}
		if tokens.AccessToken == "" || tokens.RefreshToken == "" {
			t.Error("Login() returned empty tokens")
		}
		if tokens.TokenType != "Bearer" {
			t.Errorf("tokens.TokenType = %q, want %q", tokens.TokenType, "Bearer")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Login(ctx, "bob", "wrongpassword")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := service.Login(ctx, "nobody", "password123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "carol", "password123", "Carol")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, tokens, err := service.Login(ctx, "carol", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	claims, err := service.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %d, want %d", claims.UserID, user.ID)
	}
	if claims.Username != "carol" {
		t.Errorf("claims.Username = %q, want %q", claims.Username, "carol")
	}

	// Refresh token is not accepted as an access token
	if _, err := service.ValidateToken(ctx, tokens.RefreshToken); err == nil {
		t.Error("ValidateToken() should reject a refresh token")
	}

	if _, err := service.ValidateToken(ctx, "garbage"); err == nil {
		t.Error("ValidateToken() should reject a malformed token")
	}
}

func TestAuthService_RefreshTokens(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, "dave", "password123", "Dave"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, tokens, err := service.Login(ctx, "dave", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Error("RefreshTokens() returned empty tokens")
	}

	// Access token cannot be used for refresh
	if _, err := service.RefreshTokens(ctx, tokens.AccessToken); err == nil {
		t.Error("RefreshTokens() should reject an access token")
	}
}
