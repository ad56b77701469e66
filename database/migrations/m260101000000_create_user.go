package migrations

import (
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/demoapp/pkg/migration"
)

func init() {
	migration.Register(Namespace, "M260101000000_create_user", &CreateUserTable{})
}

type user struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Login        string `gorm:"uniqueIndex;size:48;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (user) TableName() string { return "user" }

type CreateUserTable struct{}

func (m *CreateUserTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&user{})
}

func (m *CreateUserTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("user")
}
