package service_test

import (
	"context"
	"testing"
	"time"

	"time-capsule/internal/domain"
	"time-capsule/internal/repository"
	"time-capsule/internal/repository/mocks"
	"time-capsule/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "very-secret-key"

func newAuthService(t *testing.T, userRepo *mocks.UserRepository) *service.AuthService {
	t.Helper()
	authService, err := service.NewAuthService(userRepo, testJWTSecret, 1)
	require.NoError(t, err, "创建 AuthService 不应失败")
	return authService
}

// --- 测试 Register 方法 ---

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := newAuthService(t, mockUserRepo)

	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"
	email := "newbie@example.com"

	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		assert.Equal(t, username, user.Username)
		assert.Equal(t, email, user.Email)
		// 验证密码已被正确哈希
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)), "密码应被正确哈希")
		return true
	})).
		Run(func(args mock.Arguments) { // 模拟数据库填充字段
			userArg := args.Get(1).(*domain.User)
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
			userArg.UpdatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()

	// Act
	registeredUser, err := authService.Register(ctx, username, password, email)

	// Assert
	assert.NoError(t, err, "成功注册时不应有错误")
	require.NotNil(t, registeredUser, "成功注册时应返回用户对象")
	assert.Equal(t, uint(5), registeredUser.ID)
	assert.Equal(t, username, registeredUser.Username)
	assert.Empty(t, registeredUser.Password, "返回的用户密码哈希应被清空")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := newAuthService(t, mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Return(repository.ErrDuplicateEntry).
		Once()

	// Act
	registeredUser, err := authService.Register(ctx, "taken", "password123", "taken@example.com")

	// Assert
	assert.ErrorIs(t, err, service.ErrRegistrationFailed, "用户名已存在时应返回业务错误")
	assert.Nil(t, registeredUser)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmptyInput(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService := newAuthService(t, mockUserRepo)

	_, err := authService.Register(context.Background(), "", "", "")

	assert.Error(t, err, "用户名和密码为空时应报错")
	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 Login 方法 ---

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService := newAuthService(t, mockUserRepo)
	ctx := context.Background()

	password := "StrongPass123"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &domain.User{ID: 5, Username: "newbie", Password: string(hashed)}
	mockUserRepo.On("FindByUsername", ctx, "newbie").Return(user, nil).Once()

	// Act
	tokenStr, err := authService.Login(ctx, "newbie", password)

	// Assert
	assert.NoError(t, err, "成功登录时不应有错误")
	require.NotEmpty(t, tokenStr, "登录成功应返回 token")

	// 验证 token 可以用同一密钥解析且携带正确的 user_id
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(5), claims["user_id"], "token 应携带正确的 user_id")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService := newAuthService(t, mockUserRepo)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &domain.User{ID: 5, Username: "newbie", Password: string(hashed)}
	mockUserRepo.On("FindByUsername", ctx, "newbie").Return(user, nil).Once()

	token, err := authService.Login(ctx, "newbie", "wrong-password")

	assert.ErrorIs(t, err, service.ErrAuthenticationFailed, "密码错误应返回统一的认证失败")
	assert.Empty(t, token)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService := newAuthService(t, mockUserRepo)
	ctx := context.Background()

	mockUserRepo.On("FindByUsername", ctx, "ghost").
		Return(nil, repository.ErrUserNotFound).
		Once()

	token, err := authService.Login(ctx, "ghost", "whatever")

	// 用户不存在和密码错误对客户端不可区分
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	assert.Empty(t, token)
	mockUserRepo.AssertExpectations(t)
}

func TestNewAuthService_EmptySecret(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)

	_, err := service.NewAuthService(mockUserRepo, "", 1)

	assert.Error(t, err, "空的 JWT 密钥应在构造时报错")
}
