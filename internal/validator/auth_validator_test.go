package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/validator"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in validator tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	panic("not used in validator tests")
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	panic("not used in validator tests")
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used in validator tests")
}

var _ repository.UserRepository = (*UserRepoMock)(nil)

func TestValidateRegister_OK(t *testing.T) {
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "new@example.com").Return((*model.User)(nil), nil)

	v := validator.NewAuthValidator(users)
	err := v.ValidateRegister(context.Background(), "new@example.com", "password123")
	assert.NoError(t, err)
}

func TestValidateRegister_InvalidInput(t *testing.T) {
	v := validator.NewAuthValidator(new(UserRepoMock))
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "password123"},
		{"empty password", "a@example.com", ""},
		{"not an email", "not-an-email", "password123"},
		{"email with space", "a b@example.com", "password123"},
		{"short password", "a@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateRegister(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, validator.ErrInvalidInput)
		})
	}
}

func TestValidateRegister_EmailAlreadyUsed(t *testing.T) {
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "used@example.com").
		Return(&model.User{ID: 1, Email: "used@example.com"}, nil)

	v := validator.NewAuthValidator(users)
	err := v.ValidateRegister(context.Background(), "used@example.com", "password123")
	assert.ErrorIs(t, err, validator.ErrEmailAlreadyUsed)
}

func TestValidateRefresh_EmptyToken(t *testing.T) {
	v := validator.NewAuthValidator(new(UserRepoMock))

	err := v.ValidateRefresh(context.Background(), "  ", "ua")
	assert.ErrorIs(t, err, validator.ErrInvalidRefresh)
}

func TestValidateForceLogout_BadID(t *testing.T) {
	v := validator.NewAuthValidator(new(UserRepoMock))

	assert.ErrorIs(t, v.ValidateForceLogout(context.Background(), 0), validator.ErrInvalidInput)
	assert.NoError(t, v.ValidateForceLogout(context.Background(), 5))
}
