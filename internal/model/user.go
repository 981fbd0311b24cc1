package model

import (
	"time"
)

// SysUser 系统用户
type SysUser struct {
	ID            int64      `json:"ID" gorm:"primaryKey;autoIncrement"`
	UserName      string     `json:"UserName" gorm:"type:varchar(100);not null"`
	UserID        string     `json:"UserID" gorm:"type:varchar(50);uniqueIndex;not null"` // 工号
	EngName       string     `json:"EngName,omitempty" gorm:"type:varchar(100)"`
	Email         string     `json:"Email,omitempty" gorm:"type:varchar(100)"`
	Password      string     `json:"-" gorm:"type:varchar(255)"` // bcrypt哈希，不在JSON中暴露
	PriorityLevel int        `json:"PriorityLevel" gorm:"default:0;index"`
	Position      string     `json:"Position,omitempty" gorm:"type:varchar(100)"`
	Shift         string     `json:"Shift,omitempty" gorm:"type:varchar(50)"`
	Department    string     `json:"Department,omitempty" gorm:"type:varchar(100)"`
	Remark        string     `json:"Remark,omitempty" gorm:"type:varchar(255)"`
	Shifts        string     `json:"Shifts,omitempty" gorm:"type:varchar(50)"`
	IsAtWork      int        `json:"IsAtWork" gorm:"default:0"`
	CreateDate    *time.Time `json:"CreateDate,omitempty" gorm:"autoCreateTime"`
	UpdateDate    *time.Time `json:"UpdateDate,omitempty" gorm:"autoUpdateTime"`
}

func (SysUser) TableName() string {
	return "sys_user"
}

// LoginRecord 登录记录
type LoginRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(50);not null;index"`
	UserName  string    `json:"userName" gorm:"type:varchar(100);not null"`
	LoginIP   string    `json:"loginIp" gorm:"type:varchar(45)"`
	UserAgent string    `json:"userAgent" gorm:"type:varchar(255)"`
	LoginTime time.Time `json:"loginTime" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (LoginRecord) TableName() string {
	return "login_records"
}
