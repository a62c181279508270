package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"main/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("GO_ENV", "test")
	utils.InitJWT()
	os.Exit(m.Run())
}

func TestVerifyAccessToken(t *testing.T) {
	token, err := GenerateToken("user-1")
	if err != nil {
		t.Fatal(err)
	}

	verifier := NewJWTVerifier(nil)
	identity, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("user id = %q", identity.UserID)
	}
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatal(err)
	}

	verifier := NewJWTVerifier(nil)
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier := NewJWTVerifier(nil)
	if _, err := verifier.Verify(context.Background(), "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := VerifyPassword(hash, "hunter22")
	if err != nil || !ok {
		t.Errorf("correct password rejected: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword(hash, "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("no-separator", "pw"); err == nil {
		t.Error("malformed hash accepted")
	}
}
