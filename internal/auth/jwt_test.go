package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 44-character base64 string, as produced by `openssl rand -base64 32`
const testSecret = "wJ6Qk8Qn1v9Qw1Zb2l8Qk9J3p6Qk8Qn1v9Qw1Zb2l8Qk="

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	tests := []struct {
		name       string
		adminID    string
		role       string
		locationID string
		wantErr    bool
	}{
		{
			name:       "valid access token",
			adminID:    "admin-123",
			role:       "DISTRICT_ADMIN",
			locationID: "loc-1",
			wantErr:    false,
		},
		{
			name:    "empty adminID",
			adminID: "",
			role:    "DISTRICT_ADMIN",
			wantErr: true,
		},
		{
			name:    "global admin without location",
			adminID: "admin-123",
			role:    "SUPER_ADMIN",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.GenerateAccessToken(tt.adminID, tt.role, tt.locationID)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateAccessToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && token == "" {
				t.Error("GenerateAccessToken() returned empty token")
			}
		})
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	if _, err := svc.GenerateRefreshToken(""); err != ErrEmptyAdminID {
		t.Errorf("Expected ErrEmptyAdminID, got %v", err)
	}
	token, err := svc.GenerateRefreshToken("admin-123")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateRefreshToken() returned empty token")
	}
}

func TestValidateAccessToken(t *testing.T) {
	svc := NewJWTService(testSecret)

	validToken, err := svc.GenerateAccessToken("admin-123", "DISTRICT_ADMIN", "loc-1")
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid access token", token: validToken},
		{name: "invalid token format", token: "not-a-valid-token", wantErr: ErrInvalidToken},
		{name: "empty token", token: "", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ValidateToken() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateToken() unexpected error = %v", err)
			}
			if claims.Subject != "admin-123" {
				t.Errorf("ValidateToken() Subject = %v, want admin-123", claims.Subject)
			}
			if claims.Role != "DISTRICT_ADMIN" {
				t.Errorf("ValidateToken() Role = %v, want DISTRICT_ADMIN", claims.Role)
			}
			if claims.AssignedLocationID != "loc-1" {
				t.Errorf("ValidateToken() AssignedLocationID = %v, want loc-1", claims.AssignedLocationID)
			}
			if claims.Type != TokenTypeAccess {
				t.Errorf("ValidateToken() Type = %v, want access", claims.Type)
			}
		})
	}
}

func TestValidateRefreshToken_CarriesNoRole(t *testing.T) {
	svc := NewJWTService(testSecret)

	token, err := svc.GenerateRefreshToken("admin-123")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Role != "" || claims.AssignedLocationID != "" {
		t.Error("Refresh tokens must not carry role or location claims")
	}
	if claims.Type != TokenTypeRefresh {
		t.Errorf("Expected typ refresh, got %q", claims.Type)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTServiceWithRotationAndLeeway(testSecret, "", 0)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Minute)),
		},
		Type: TokenTypeAccess,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := svc.ValidateToken(signed); err != ErrExpiredToken {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateToken_WrongAlgorithmRejected(t *testing.T) {
	svc := NewJWTService(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-123"},
		Type:             TokenTypeAccess,
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := svc.ValidateToken(signed); err == nil {
		t.Error("Tokens signed with a different algorithm must be rejected")
	}
}

func TestValidateToken_Rotation(t *testing.T) {
	oldSecret := "old-secret-value-old-secret-value!"
	oldSvc := NewJWTService(oldSecret)
	token, err := oldSvc.GenerateAccessToken("admin-123", "STATE_ADMIN", "loc-9")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	// After rotation the retired secret still validates.
	rotated := NewJWTServiceWithRotation(testSecret, oldSecret)
	claims, err := rotated.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() with previous secret error = %v", err)
	}
	if claims.Subject != "admin-123" {
		t.Errorf("Expected subject admin-123, got %q", claims.Subject)
	}

	// Without the previous secret the token is rejected.
	plain := NewJWTService(testSecret)
	if _, err := plain.ValidateToken(token); err == nil {
		t.Error("Token signed with a retired secret must be rejected without rotation")
	}
}

func TestTokenStructure(t *testing.T) {
	svc := NewJWTService(testSecret)
	token, err := svc.GenerateAccessToken("admin-123", "VILLAGE_ADMIN", "loc-2")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("Expected 3 JWT segments, got %d", len(parts))
	}
}
