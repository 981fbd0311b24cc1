package model

// Route 巡检路线，可绑定一张巡检表
type Route struct {
	RouteID          int64   `json:"RouteId" gorm:"primaryKey;autoIncrement"`
	RouteName        string  `json:"RouteName" gorm:"type:varchar(200);not null"`
	BindingTableID   *int64  `json:"BindingTableId"` // NULL 表示未绑定
	BindingTableName *string `json:"BindingTableName" gorm:"type:varchar(200)"`
}

func (Route) TableName() string {
	return "routes"
}
