package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Server Metrics

	// APIRequestsTotal API请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration API请求处理时长
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Schema Engine Metrics

	// SchemaOperationsTotal 动态表 DDL 操作总数
	SchemaOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_operations_total",
			Help: "Total number of dynamic table DDL operations",
		},
		[]string{"operation", "result"}, // operation: create, sync, rename, archive
	)

	// SchemaOperationDuration DDL 操作时长
	SchemaOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schema_operation_duration_seconds",
			Help:    "Dynamic table DDL operation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// SchemaColumnsAdded 增量同步新增的列数
	SchemaColumnsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schema_columns_added_total",
			Help: "Total number of columns added by schema sync",
		},
	)

	// ManagedTables 当前活跃的动态巡检表数量
	ManagedTables = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "managed_tables_total",
			Help: "Number of active dynamic inspection tables",
		},
	)

	// ArchivedTables 已归档（软删除）的动态表数量
	ArchivedTables = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "archived_tables_total",
			Help: "Number of archived dynamic inspection tables",
		},
	)

	// Auth Metrics

	// LoginAttemptsTotal 登录尝试总数
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // result: success, failure
	)

	// BulkImportedUsers 批量导入的用户总数
	BulkImportedUsers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bulk_imported_users_total",
			Help: "Total number of users created via bulk import",
		},
	)
)
