package model

import "encoding/json"

// FormCreateRequest 新建表单定义请求
type FormCreateRequest struct {
	FormIdentifier  string          `json:"formIdentifier" binding:"required"`
	FormDisplayName string          `json:"formDisplayName" binding:"required"`
	FormJSON        json.RawMessage `json:"formJson" binding:"required"`
	ItemsCnt        int             `json:"itemsCnt"`
}

// FormUpdateRequest 更新表单定义请求
// FormIdentifier 可与原值不同，表示重命名
type FormUpdateRequest struct {
	FormIdentifier  string          `json:"formIdentifier" binding:"required"`
	FormDisplayName string          `json:"formDisplayName" binding:"required"`
	FormJSON        json.RawMessage `json:"formJson" binding:"required"`
	ItemsCnt        int             `json:"itemsCnt"`
}

// FormModeRequest 切换表单模式请求（仅允许 0/1）
type FormModeRequest struct {
	TestMode *int `json:"testMode" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	UserID   string `json:"UserID" binding:"required"`
	Password string `json:"Password" binding:"required"`
}

// RegisterRequest 注册 / 新增用户请求
type RegisterRequest struct {
	UserName      string `json:"UserName" binding:"required"`
	UserID        string `json:"UserID" binding:"required"`
	EngName       string `json:"EngName"`
	Email         string `json:"Email"`
	Password      string `json:"Password" binding:"required"`
	PriorityLevel int    `json:"PriorityLevel"`
	Position      string `json:"Position"`
	Shift         string `json:"Shift"`
	Department    string `json:"Department"`
	Remark        string `json:"Remark"`
	Shifts        string `json:"Shifts"`
}

// UserUpdateRequest 更新用户请求（零值字段不更新，密码单独处理）
type UserUpdateRequest struct {
	UserName      string `json:"UserName"`
	EngName       string `json:"EngName"`
	Email         string `json:"Email"`
	Password      string `json:"Password"`
	PriorityLevel *int   `json:"PriorityLevel"`
	Position      string `json:"Position"`
	Shift         string `json:"Shift"`
	Department    string `json:"Department"`
	Remark        string `json:"Remark"`
	Shifts        string `json:"Shifts"`
}

// ChangePasswordRequest 修改密码请求，字段名沿用前端既有约定
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// RouteRequest 新建或更新巡检路线请求
type RouteRequest struct {
	RouteName        string  `json:"RouteName" binding:"required"`
	BindingTableID   *int64  `json:"BindingTableId"`
	BindingTableName *string `json:"BindingTableName"`
}
