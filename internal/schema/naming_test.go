package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{"裸标识符加前缀", "foo", "user_foo"},
		{"已有前缀保持不变", "user_foo", "user_foo"},
		{"幂等", "user_user_foo", "user_user_foo"},
		{"去除首尾空白", "  foo  ", "user_foo"},
		{"空白加已有前缀", "  user_bar ", "user_bar"},
		{"空字符串只剩前缀", "", "user_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.identifier); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.identifier, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"合法小写", "user_insp_01", false},
		{"合法大写和数字", "User_Table9", false},
		{"空字符串非法", "", true},
		{"连字符非法", "user-table", true},
		{"空格非法", "user table", true},
		{"SQL 注入片段非法", "user_x; DROP TABLE users", true},
		{"引号非法", `user_"x"`, true},
		{"中文字符非法", "user_表单", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SanitizeIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("错误应属于 ErrValidation, got %v", err)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	initTestLogger(t)
	db := newTestDB(t)

	t.Run("无冲突时返回 _old1", func(t *testing.T) {
		got, err := ArchiveName(db, "user_fresh")
		if err != nil {
			t.Fatalf("ArchiveName() error = %v", err)
		}
		if got != "user_fresh_old1" {
			t.Errorf("ArchiveName() = %q, want user_fresh_old1", got)
		}
	})

	t.Run("跳过目录中已占用的名字", func(t *testing.T) {
		row := model.TableManager{TableName: "user_cat_old1", DisplayName: "已归档"}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("插入目录行失败: %v", err)
		}

		got, err := ArchiveName(db, "user_cat")
		if err != nil {
			t.Fatalf("ArchiveName() error = %v", err)
		}
		if got != "user_cat_old2" {
			t.Errorf("ArchiveName() = %q, want user_cat_old2", got)
		}
	})

	t.Run("跳过物理上已存在的表", func(t *testing.T) {
		if err := db.Exec(`CREATE TABLE "user_phys_old1" (id INTEGER)`).Error; err != nil {
			t.Fatalf("建表失败: %v", err)
		}

		got, err := ArchiveName(db, "user_phys")
		if err != nil {
			t.Fatalf("ArchiveName() error = %v", err)
		}
		if got != "user_phys_old2" {
			t.Errorf("ArchiveName() = %q, want user_phys_old2", got)
		}
	})

	t.Run("连续两次归档得到不同名字", func(t *testing.T) {
		first, err := ArchiveName(db, "user_seq")
		if err != nil {
			t.Fatalf("第一次 ArchiveName() error = %v", err)
		}
		// 模拟第一次删除落库
		row := model.TableManager{TableName: first, DisplayName: "第一次", TestMode: model.TestModeArchived}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("插入目录行失败: %v", err)
		}

		second, err := ArchiveName(db, "user_seq")
		if err != nil {
			t.Fatalf("第二次 ArchiveName() error = %v", err)
		}
		if first == second {
			t.Errorf("两次归档名不应相同: %q", first)
		}
		if first != "user_seq_old1" || second != "user_seq_old2" {
			t.Errorf("got %q, %q, want user_seq_old1, user_seq_old2", first, second)
		}
	})

	t.Run("候选名耗尽返回 ErrExhausted", func(t *testing.T) {
		// 批量插入目录行占满所有候选名
		rows := make([]model.TableManager, 0, maxArchiveAttempts)
		for n := 1; n <= maxArchiveAttempts; n++ {
			rows = append(rows, model.TableManager{
				TableName: fmt.Sprintf("user_full_old%d", n),
				TestMode:  model.TestModeArchived,
			})
		}
		if err := db.CreateInBatches(rows, 500).Error; err != nil {
			t.Fatalf("批量插入失败: %v", err)
		}

		_, err := ArchiveName(db, "user_full")
		if !errors.Is(err, ErrExhausted) {
			t.Errorf("期望 ErrExhausted, got %v", err)
		}
	})
}
