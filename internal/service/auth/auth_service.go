package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/repository"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("insufficient priority level")
)

// Claims JWT 载荷，字段名沿用前端既有约定
type Claims struct {
	UserID        string `json:"user_id"` // 工号
	UserName      string `json:"user_name"`
	PriorityLevel int    `json:"priority_level"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo            *repository.UserRepository
	jwtSecret       []byte
	tokenExpiration time.Duration
}

func NewAuthService(repo *repository.UserRepository, jwtSecret string, expirationHours int) *AuthService {
	key := []byte(jwtSecret)
	if len(key) == 0 {
		// 开发环境兜底，生产必须配置 JWT_SECRET
		key = []byte("routininspection-dev-secret-change-me")
		logger.Warnf("JWT secret is not configured, using insecure development default")
	}
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &AuthService{
		repo:            repo,
		jwtSecret:       key,
		tokenExpiration: time.Duration(expirationHours) * time.Hour,
	}
}

// Register 新建用户，工号唯一
func (s *AuthService) Register(req *model.RegisterRequest) (*model.SysUser, error) {
	if _, err := s.repo.FindUserByUserID(req.UserID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check user id: %w", err)
		}
	} else {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.SysUser{
		UserName:      req.UserName,
		UserID:        req.UserID,
		EngName:       req.EngName,
		Email:         req.Email,
		Password:      string(hashed),
		PriorityLevel: req.PriorityLevel,
		Position:      req.Position,
		Shift:         req.Shift,
		Department:    req.Department,
		Remark:        req.Remark,
		Shifts:        req.Shifts,
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Infof("registered user %s (%s)", user.UserID, user.UserName)
	return user, nil
}

// Login 校验密码并签发令牌，成功后记录登录并标记在岗
func (s *AuthService) Login(userID, password, clientIP, userAgent string) (string, *model.SysUser, error) {
	user, err := s.repo.FindUserByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}

	user.IsAtWork = 1
	if err := s.repo.UpdateUser(user); err != nil {
		logger.Warnf("failed to mark user %s at work: %v", user.UserID, err)
	}

	record := &model.LoginRecord{
		ID:        uuid.New().String(),
		UserID:    user.UserID,
		UserName:  user.UserName,
		LoginIP:   clientIP,
		UserAgent: userAgent,
		LoginTime: time.Now(),
	}
	if err := s.repo.CreateLoginRecord(record); err != nil {
		logger.Warnf("failed to record login for %s: %v", user.UserID, err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return token, user, nil
}

// Logout 标记离岗
func (s *AuthService) Logout(id int64) error {
	user, err := s.repo.FindUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	user.IsAtWork = 0
	return s.repo.UpdateUser(user)
}

// ChangePassword 本人修改密码，旧密码校验失败返回 ErrInvalidCredentials
func (s *AuthService) ChangePassword(user *model.SysUser, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.Password = string(hashed)
	if err := s.repo.UpdateUser(user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logger.Infof("user %s changed password", user.UserID)
	return nil
}

// GenerateToken 签发 HS256 令牌
func (s *AuthService) GenerateToken(user *model.SysUser) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:        user.UserID,
		UserName:      user.UserName,
		PriorityLevel: user.PriorityLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken 解析并校验令牌
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// GetUserByUserID 按工号查用户
func (s *AuthService) GetUserByUserID(userID string) (*model.SysUser, error) {
	user, err := s.repo.FindUserByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers 按操作者权限过滤的用户列表：
// 级别 3 以上看全部，级别 1 和 2 只看部门前三码相同的用户和自己
func (s *AuthService) ListUsers(operator *model.SysUser, page, limit int, search string) ([]model.SysUser, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	if operator.PriorityLevel >= 3 {
		return s.repo.ListUsers(page, limit, search)
	}
	return s.repo.ListUsersScoped(page, limit, search, deptPrefix(operator.Department), operator.ID)
}

// CreateUser 管理员新增用户：限同部门前三码，默认密码为工号后六位
func (s *AuthService) CreateUser(operator *model.SysUser, req *model.RegisterRequest) (*model.SysUser, error) {
	if operator.PriorityLevel < 3 && deptPrefix(req.Department) != deptPrefix(operator.Department) {
		return nil, fmt.Errorf("%w: can only create users with department prefix %s",
			ErrForbidden, deptPrefix(operator.Department))
	}

	if req.Password == "" {
		req.Password = DefaultPassword(req.UserID)
	}
	return s.Register(req)
}

// UpdateUser 更新用户资料，零值字段保持不变
func (s *AuthService) UpdateUser(operator *model.SysUser, id int64, req *model.UserUpdateRequest) (*model.SysUser, error) {
	user, err := s.repo.FindUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if operator.PriorityLevel < 3 && user.ID != operator.ID &&
		deptPrefix(user.Department) != deptPrefix(operator.Department) {
		return nil, fmt.Errorf("%w: can only update users with department prefix %s",
			ErrForbidden, deptPrefix(operator.Department))
	}

	if req.UserName != "" {
		user.UserName = req.UserName
	}
	if req.EngName != "" {
		user.EngName = req.EngName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Position != "" {
		user.Position = req.Position
	}
	if req.Shift != "" {
		user.Shift = req.Shift
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.Remark != "" {
		user.Remark = req.Remark
	}
	if req.Shifts != "" {
		user.Shifts = req.Shifts
	}
	if req.PriorityLevel != nil {
		user.PriorityLevel = *req.PriorityLevel
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser 删除用户
func (s *AuthService) DeleteUser(id int64) error {
	if _, err := s.repo.FindUserByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.repo.DeleteUser(id)
}

// DefaultPassword 批量导入和管理员建号的默认密码：工号后六位
func DefaultPassword(userID string) string {
	if len(userID) >= 6 {
		return userID[len(userID)-6:]
	}
	return userID
}

// deptPrefix 部门前三码，部门权限判断的单位。按字符取，部门名可能含中文
func deptPrefix(department string) string {
	runes := []rune(strings.TrimSpace(department))
	if len(runes) >= 3 {
		return string(runes[:3])
	}
	return string(runes)
}
