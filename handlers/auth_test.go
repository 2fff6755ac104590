package handlers

import (
	"testing"

	"bughunt/config"
	"bughunt/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestMemberTokenSignedWithConfiguredSecret(t *testing.T) {
	secret := "configured-secret-not-from-the-environment"
	Init(config.Config{JWTSecret: secret}, nil, nil, nil, nil, nil)
	t.Setenv("JWT_SECRET", "stale-environment-secret")

	member := &models.TeamMember{ID: 7, TeamID: 3, Username: "alice"}
	tokenString, err := generateMemberToken(member)
	if err != nil {
		t.Fatalf("generateMemberToken: %v", err)
	}

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify against the configured secret: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["username"] != "alice" {
		t.Fatalf("username claim = %v", claims["username"])
	}
	if teamID, _ := claims["team_id"].(float64); uint(teamID) != 3 {
		t.Fatalf("team_id claim = %v", claims["team_id"])
	}
}
