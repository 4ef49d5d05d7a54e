package util

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// CreateDatabaseInstance 打开数据库连接。组成员数据量小，
// 默认使用纯 Go 的 sqlite 驱动；dsn 为空时退化为内存库。
func CreateDatabaseInstance(cfg *gorm.Config, dsn string) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	if dsn == "" {
		dsn = "file::memory:"
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}
