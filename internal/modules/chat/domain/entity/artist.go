package entity

// Artist 只读取通知路由需要的字段
type Artist struct {
	Id        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	UserId    int64  `gorm:"column:user_id;not null;index"`
	Name      string `gorm:"column:name;type:varchar(128);not null;default:''"`
	AvatarUrl string `gorm:"column:avatar_url;type:varchar(512);not null;default:''"`
}

func (Artist) TableName() string {
	return "artists"
}
