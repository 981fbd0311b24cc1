package route

import (
	"errors"
	"testing"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/repository"
	"github.com/IkNhayatk/RoutinInspection-backend/internal/schema"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/config"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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

	if err := db.AutoMigrate(&model.Route{}, &model.TableManager{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return NewService(repository.NewRouteRepository(db), repository.NewCatalogRepository(db)), db
}

func TestRouteCRUD(t *testing.T) {
	svc, db := newTestService(t)

	// 准备一条可绑定的目录行
	entry := model.TableManager{TableName: "user_insp_01", DisplayName: "MFG1 日常巡检"}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("准备目录行失败: %v", err)
	}

	created, err := svc.CreateRoute(&model.RouteRequest{
		RouteName:      "一号线巡检",
		BindingTableID: &entry.ID,
	})
	if err != nil {
		t.Fatalf("CreateRoute() error = %v", err)
	}
	if created.BindingTableName == nil || *created.BindingTableName != "user_insp_01" {
		t.Errorf("绑定表名应自动补全, got %v", created.BindingTableName)
	}

	t.Run("查单条", func(t *testing.T) {
		got, err := svc.GetRoute(created.RouteID)
		if err != nil {
			t.Fatalf("GetRoute() error = %v", err)
		}
		if got.RouteName != "一号线巡检" {
			t.Errorf("RouteName = %q", got.RouteName)
		}
	})

	t.Run("绑定不存在的表拒绝", func(t *testing.T) {
		ghost := int64(9999)
		_, err := svc.CreateRoute(&model.RouteRequest{RouteName: "坏绑定", BindingTableID: &ghost})
		if !errors.Is(err, schema.ErrNotFound) {
			t.Errorf("期望 ErrNotFound, got %v", err)
		}
	})

	t.Run("绑定已归档的表拒绝", func(t *testing.T) {
		archived := model.TableManager{TableName: "user_gone_old1", DisplayName: "旧表", TestMode: model.TestModeArchived}
		if err := db.Create(&archived).Error; err != nil {
			t.Fatalf("准备归档行失败: %v", err)
		}
		_, err := svc.CreateRoute(&model.RouteRequest{RouteName: "归档绑定", BindingTableID: &archived.ID})
		if !errors.Is(err, schema.ErrNotFound) {
			t.Errorf("期望 ErrNotFound, got %v", err)
		}
	})

	t.Run("更新解除绑定", func(t *testing.T) {
		got, err := svc.UpdateRoute(created.RouteID, &model.RouteRequest{RouteName: "一号线巡检v2"})
		if err != nil {
			t.Fatalf("UpdateRoute() error = %v", err)
		}
		if got.BindingTableID != nil || got.BindingTableName != nil {
			t.Error("未指定绑定时应解除绑定")
		}
	})

	t.Run("删除后查不到", func(t *testing.T) {
		if err := svc.DeleteRoute(created.RouteID); err != nil {
			t.Fatalf("DeleteRoute() error = %v", err)
		}
		if _, err := svc.GetRoute(created.RouteID); !errors.Is(err, schema.ErrNotFound) {
			t.Errorf("期望 ErrNotFound, got %v", err)
		}
		if err := svc.DeleteRoute(created.RouteID); !errors.Is(err, schema.ErrNotFound) {
			t.Errorf("重复删除期望 ErrNotFound, got %v", err)
		}
	})
}

func TestListRoutes(t *testing.T) {
	svc, db := newTestService(t)

	entry := model.TableManager{TableName: "user_line_a", DisplayName: "A 线"}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("准备目录行失败: %v", err)
	}

	if _, err := svc.CreateRoute(&model.RouteRequest{RouteName: "A 线白班", BindingTableID: &entry.ID}); err != nil {
		t.Fatalf("CreateRoute() error = %v", err)
	}
	if _, err := svc.CreateRoute(&model.RouteRequest{RouteName: "B 线夜班"}); err != nil {
		t.Fatalf("CreateRoute() error = %v", err)
	}

	tests := []struct {
		name   string
		search string
		mode   string
		want   int
	}{
		{"全部", "", "", 2},
		{"只要已绑定", "", "1", 1},
		{"只要未绑定", "", "0", 1},
		{"按路线名搜索", "夜班", "", 1},
		{"按绑定表名搜索", "line_a", "", 1},
		{"搜索无结果", "不存在", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ListRoutes(1, 10, tt.search, tt.mode)
			if err != nil {
				t.Fatalf("ListRoutes() error = %v", err)
			}
			if len(result.Routes) != tt.want {
				t.Errorf("结果数 = %d, want %d", len(result.Routes), tt.want)
			}
		})
	}
}
