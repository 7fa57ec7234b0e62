// Package model 定义证书记录模型，SQL 后端（gorm）与 MongoDB 后端共用.
package model

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"
)

// Certificate 一条证书记录：参与者姓名与其 PDF 的公开路径.
// Name 仅建普通索引，不加唯一约束；按名字的去重由写入方的 upsert 完成.
type Certificate struct {
	ID        string    `gorm:"primaryKey;size:26"  json:"id"        bson:"_id"`
	Name      string    `gorm:"size:512;index"      json:"name"      bson:"name"`
	FilePath  string    `gorm:"size:1024"           json:"filePath"  bson:"filePath"`
	CreatedAt time.Time `json:"createdAt"           bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"           bson:"updatedAt"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(crand.Reader, 0)
)

// NewID 生成按时间有序的 ULID.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// BeforeCreate 为新记录分配 ID.
func (c *Certificate) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID(time.Now())
	}

	return nil
}
