package initial

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"MediaHub/internal/config"
	chatEntity "MediaHub/internal/modules/chat/domain/entity"
	deviceEntity "MediaHub/internal/modules/device/domain/entity"
	notificationEntity "MediaHub/internal/modules/notification/domain/entity"
	presenceEntity "MediaHub/internal/modules/presence/domain/entity"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models 需要自动迁移的全部关系表
func Models() []interface{} {
	return []interface{}{
		&deviceEntity.Device{},
		&deviceEntity.UserDevice{},
		&presenceEntity.UserPresence{},
		&notificationEntity.UserNotification{},
		&notificationEntity.PushNotificationLog{},
		&chatEntity.ChatMessage{},
		&chatEntity.Artist{},
	}
}

func mysqlDSN(conf config.MysqlConfig, appName string) string {
	dbName := strings.TrimSpace(conf.DatabaseName)
	if dbName == "" {
		dbName = appName
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User, conf.Password, conf.Host, conf.Port, dbName)
}

// NewGormDB 连接 MySQL 并自动迁移，migrate 为 false 时只建立连接
func NewGormDB(conf *config.Config, migrate bool) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(mysql.Open(mysqlDSN(conf.MysqlConfig, conf.AppName)), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if !migrate {
		return db, nil
	}
	// 自动迁移，如果没有建表，会自动创建对应的表
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}
