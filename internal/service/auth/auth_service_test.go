package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/repository"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/config"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	if err := logger.Init(&config.LoggingConfig{Level: "error", Output: "console"}); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.SysUser{}, &model.LoginRecord{}); err != nil {
		t.Fatalf("迁移用户表失败: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return NewAuthService(repository.NewUserRepository(db), "test-secret-for-unit-tests", 24)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(&model.RegisterRequest{
		UserName:      "张三",
		UserID:        "A1234567",
		Password:      "secret-pass",
		PriorityLevel: 2,
		Department:    "MFG一厂",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("注册后应有数据库 ID")
	}
	if user.Password == "secret-pass" {
		t.Error("密码必须以哈希形式存储")
	}

	t.Run("重复工号拒绝", func(t *testing.T) {
		_, err := svc.Register(&model.RegisterRequest{
			UserName: "李四", UserID: "A1234567", Password: "x",
		})
		if !errors.Is(err, ErrUserExists) {
			t.Errorf("期望 ErrUserExists, got %v", err)
		}
	})

	t.Run("正确密码登录成功", func(t *testing.T) {
		token, logged, err := svc.Login("A1234567", "secret-pass", "127.0.0.1", "go-test")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if token == "" {
			t.Fatal("应签发令牌")
		}
		if logged.IsAtWork != 1 {
			t.Error("登录后应标记在岗")
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			t.Fatalf("ValidateToken() error = %v", err)
		}
		if claims.UserID != "A1234567" || claims.UserName != "张三" || claims.PriorityLevel != 2 {
			t.Errorf("令牌载荷不符: %+v", claims)
		}
	})

	t.Run("错误密码拒绝", func(t *testing.T) {
		_, _, err := svc.Login("A1234567", "wrong", "127.0.0.1", "go-test")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("期望 ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("不存在的工号拒绝", func(t *testing.T) {
		_, _, err := svc.Login("NOBODY", "x", "127.0.0.1", "go-test")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("期望 ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("伪造令牌拒绝", func(t *testing.T) {
		other := NewAuthService(nil, "different-secret", 24)
		forged, err := other.GenerateToken(user)
		if err != nil {
			t.Fatalf("生成伪造令牌失败: %v", err)
		}
		if _, err := svc.ValidateToken(forged); err == nil {
			t.Error("不同密钥签发的令牌应被拒绝")
		}
	})
}

func TestChangePassword(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(&model.RegisterRequest{
		UserName: "李四",
		UserID:   "B7654321",
		Password: "old-pass",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := svc.ChangePassword(user, "wrong-pass", "new-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码错误应返回 ErrInvalidCredentials，实际 %v", err)
	}

	if err := svc.ChangePassword(user, "old-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, _, err := svc.Login("B7654321", "old-pass", "127.0.0.1", "test"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码应失效，实际 %v", err)
	}
	if _, _, err := svc.Login("B7654321", "new-pass", "127.0.0.1", "test"); err != nil {
		t.Errorf("新密码登录失败: %v", err)
	}
}

func TestDefaultPassword(t *testing.T) {
	tests := []struct {
		userID string
		want   string
	}{
		{"A1234567", "234567"},
		{"123456", "123456"},
		{"12345", "12345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DefaultPassword(tt.userID); got != tt.want {
			t.Errorf("DefaultPassword(%q) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}

func TestCreateUserDepartmentBoundary(t *testing.T) {
	svc := newTestAuthService(t)

	operator := &model.SysUser{ID: 1, UserID: "OP1", PriorityLevel: 2, Department: "MFG一厂"}

	t.Run("同部门前三码允许", func(t *testing.T) {
		u, err := svc.CreateUser(operator, &model.RegisterRequest{
			UserName: "王五", UserID: "B7654321", Department: "MFG二厂", PriorityLevel: 1,
		})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		// 未提供密码时使用工号后六位
		if _, _, err := svc.Login("B7654321", "654321", "", ""); err != nil {
			t.Errorf("默认密码登录失败: %v", err)
		}
		_ = u
	})

	t.Run("跨部门拒绝", func(t *testing.T) {
		_, err := svc.CreateUser(operator, &model.RegisterRequest{
			UserName: "赵六", UserID: "C0000001", Department: "QA一课", PriorityLevel: 1,
		})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("期望 ErrForbidden, got %v", err)
		}
	})

	t.Run("高优先级不受部门限制", func(t *testing.T) {
		admin := &model.SysUser{ID: 2, UserID: "ADM", PriorityLevel: 4, Department: "总务"}
		_, err := svc.CreateUser(admin, &model.RegisterRequest{
			UserName: "钱七", UserID: "D0000001", Department: "QA一课", PriorityLevel: 1,
		})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	})
}

func TestListUsersVisibility(t *testing.T) {
	svc := newTestAuthService(t)

	seed := []model.RegisterRequest{
		{UserName: "甲", UserID: "U001", Password: "x", Department: "MFG一厂", PriorityLevel: 1},
		{UserName: "乙", UserID: "U002", Password: "x", Department: "MFG二厂", PriorityLevel: 2},
		{UserName: "丙", UserID: "U003", Password: "x", Department: "QA一课", PriorityLevel: 1},
	}
	var users []*model.SysUser
	for i := range seed {
		u, err := svc.Register(&seed[i])
		if err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
		users = append(users, u)
	}

	t.Run("低优先级只见同部门", func(t *testing.T) {
		got, _, err := svc.ListUsers(users[0], 1, 50, "")
		if err != nil {
			t.Fatalf("ListUsers() error = %v", err)
		}
		for _, u := range got {
			if u.UserID == "U003" {
				t.Error("跨部门用户不应可见")
			}
		}
		if len(got) != 2 {
			t.Errorf("应见 2 个用户, got %d", len(got))
		}
	})

	t.Run("高优先级见全部", func(t *testing.T) {
		admin := &model.SysUser{ID: 99, PriorityLevel: 3, Department: "总务"}
		got, total, err := svc.ListUsers(admin, 1, 50, "")
		if err != nil {
			t.Fatalf("ListUsers() error = %v", err)
		}
		if len(got) != 3 || total != 3 {
			t.Errorf("应见 3 个用户, got %d (total %d)", len(got), total)
		}
	})
}

func bulkCSVRow(name, id, dept, position, priority string) string {
	cols := make([]string, 23)
	cols[0] = name
	cols[1] = id
	cols[18] = dept
	cols[20] = position
	cols[22] = priority
	return strings.Join(cols, ",")
}

func TestListUsersPagination(t *testing.T) {
	svc := newTestAuthService(t)

	operator, err := svc.Register(&model.RegisterRequest{
		UserName: "组长", UserID: "OP00001", Password: "x",
		Department: "MFG一厂", PriorityLevel: 2,
	})
	if err != nil {
		t.Fatalf("准备数据失败: %v", err)
	}

	seed := []model.RegisterRequest{
		{UserName: "甲", UserID: "P001", Password: "x", Department: "MFG一厂", PriorityLevel: 1},
		{UserName: "乙", UserID: "P002", Password: "x", Department: "MFG二厂", PriorityLevel: 1},
		{UserName: "丙", UserID: "P003", Password: "x", Department: "MFG三厂", PriorityLevel: 2},
		{UserName: "丁", UserID: "P004", Password: "x", Department: "MFG一厂", PriorityLevel: 1},
		{UserName: "戊", UserID: "Q001", Password: "x", Department: "QA一课", PriorityLevel: 1},
		{UserName: "己", UserID: "Q002", Password: "x", Department: "QA二课", PriorityLevel: 1},
	}
	for i := range seed {
		if _, err := svc.Register(&seed[i]); err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
	}

	// 可见集合 = 操作者本人 + 4 个 MFG 前缀用户，共 5 人
	t.Run("total 是可见总数而非当页数量", func(t *testing.T) {
		got, total, err := svc.ListUsers(operator, 1, 2, "")
		if err != nil {
			t.Fatalf("ListUsers() error = %v", err)
		}
		if total != 5 {
			t.Errorf("total = %d, want 5", total)
		}
		if len(got) != 2 {
			t.Errorf("当页应有 2 个用户, got %d", len(got))
		}
	})

	t.Run("翻页不丢可见用户", func(t *testing.T) {
		ids := map[string]bool{}
		for page := 1; page <= 3; page++ {
			got, total, err := svc.ListUsers(operator, page, 2, "")
			if err != nil {
				t.Fatalf("ListUsers(page=%d) error = %v", page, err)
			}
			if total != 5 {
				t.Errorf("page=%d total = %d, want 5", page, total)
			}
			for _, u := range got {
				if deptPrefix(u.Department) != "MFG" && u.ID != operator.ID {
					t.Errorf("跨部门用户 %s 不应可见", u.UserID)
				}
				ids[u.UserID] = true
			}
		}
		if len(ids) != 5 {
			t.Errorf("三页合计应覆盖 5 个用户, got %d: %v", len(ids), ids)
		}
	})

	t.Run("高优先级分页见全部", func(t *testing.T) {
		admin := &model.SysUser{ID: 999, PriorityLevel: 3, Department: "总务"}
		got, total, err := svc.ListUsers(admin, 1, 4, "")
		if err != nil {
			t.Fatalf("ListUsers() error = %v", err)
		}
		if total != 7 {
			t.Errorf("total = %d, want 7", total)
		}
		if len(got) != 4 {
			t.Errorf("当页应有 4 个用户, got %d", len(got))
		}
	})
}

func TestUpdateUserSetsUpdateDate(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(&model.RegisterRequest{
		UserName: "庚", UserID: "T0000001", Password: "x", Department: "MFG一厂",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	admin := &model.SysUser{ID: 999, PriorityLevel: 4, Department: "总务"}
	updated, err := svc.UpdateUser(admin, user.ID, &model.UserUpdateRequest{Position: "线长"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.UpdateDate == nil {
		t.Error("更新后 UpdateDate 应有值")
	}
	if updated.CreateDate == nil {
		t.Error("CreateDate 不应被清掉")
	}
}

func TestBulkImportUsers(t *testing.T) {
	svc := newTestAuthService(t)

	operator := &model.SysUser{ID: 1, UserID: "OP1", PriorityLevel: 2, Department: "MFG一厂"}
	header := strings.Join(make([]string, 23), ",")

	t.Run("混合行逐行处理", func(t *testing.T) {
		csvData := strings.Join([]string{
			header,
			bulkCSVRow("张三", "E0000001", "MFG一厂", "技术员", "1"),
			bulkCSVRow("", "E0000002", "MFG一厂", "", "1"),        // 缺姓名
			bulkCSVRow("李四", "E0000003", "QA一课", "", "1"),       // 跨部门
			bulkCSVRow("王五", "E0000004", "MFG二厂", "班长", "2"),    // 前三码相同
			bulkCSVRow("赵六", "E0000005", "MFG一厂", "", "3"),      // 级别超限
			bulkCSVRow("钱七", "E0000001", "MFG一厂", "", "1"),      // 重复工号
		}, "\n")

		result, err := svc.BulkImportUsers(operator, strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("BulkImportUsers() error = %v", err)
		}
		if len(result.Imported) != 2 {
			t.Errorf("应成功导入 2 个, got %v", result.Imported)
		}
		if len(result.Errors) != 4 {
			t.Errorf("应有 4 条错误, got %v", result.Errors)
		}

		// 默认密码是工号后六位
		if _, _, err := svc.Login("E0000001", "000001", "", ""); err != nil {
			t.Errorf("导入用户默认密码登录失败: %v", err)
		}
	})

	t.Run("带 BOM 的文件可解析", func(t *testing.T) {
		csvData := "\xEF\xBB\xBF" + header + "\n" + bulkCSVRow("孙八", "F0000001", "MFG三厂", "", "1")
		result, err := svc.BulkImportUsers(operator, strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("BulkImportUsers() error = %v", err)
		}
		if len(result.Imported) != 1 {
			t.Errorf("BOM 文件应正常导入, got %+v", result)
		}
	})

	t.Run("高优先级操作者拒绝", func(t *testing.T) {
		admin := &model.SysUser{ID: 2, PriorityLevel: 3, Department: "总务"}
		_, err := svc.BulkImportUsers(admin, strings.NewReader(header))
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("期望 ErrForbidden, got %v", err)
		}
	})

	t.Run("列数不足的文件拒绝", func(t *testing.T) {
		_, err := svc.BulkImportUsers(operator, strings.NewReader("a,b,c\n1,2,3"))
		if err == nil {
			t.Error("列数不足应报错")
		}
	})
}
