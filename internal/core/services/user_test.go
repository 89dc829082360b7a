package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
)

func newUserService(s *fakeStore) *UserService {
	return NewUserService(testLogger(), &fakeUserRepo{s: s}, bcrypt.MinCost)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(newFakeStore())

	created, err := svc.Register(ctx, RegisterInput{
		Email:     "  Aigerim@Example.com ",
		Password:  "password1",
		FirstName: "Aigerim",
		LastName:  "Bekova",
		Role:      domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created.Email != "aigerim@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.PasswordHash == "password1" {
		t.Fatal("password stored in the clear")
	}

	user, err := svc.Login(ctx, "aigerim@example.com", "password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != created.ID {
		t.Error("login resolved a different account")
	}

	if _, err := svc.Login(ctx, "aigerim@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(newFakeStore())

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "password1", FirstName: "A", LastName: "B", Role: domain.RoleUser}},
		{"short password", RegisterInput{Email: "a@b.com", Password: "123", FirstName: "A", LastName: "B", Role: domain.RoleUser}},
		{"missing name", RegisterInput{Email: "a@b.com", Password: "password1", Role: domain.RoleUser}},
		{"admin role", RegisterInput{Email: "a@b.com", Password: "password1", FirstName: "A", LastName: "B", Role: domain.RoleAdmin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(newFakeStore())

	in := RegisterInput{Email: "dup@example.com", Password: "password1", FirstName: "A", LastName: "B", Role: domain.RoleUser}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, in); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}
