package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite database with every table
// migrated. Each call gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if utils.InfoLogger == nil {
		utils.InitLogger()
	}

	db, err := config.InitDB(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func IntPtr(v int) *int { return &v }

func UintPtr(v uint) *uint { return &v }

func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// CreateUser stores a user with a bcrypt hashed password.
func CreateUser(t *testing.T, db *gorm.DB, username, password, role string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Username: username, Password: string(hashed), Name: username, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateTable(t *testing.T, db *gorm.DB, number int) models.Table {
	t.Helper()
	table := models.Table{Number: number, Capacity: 4, Type: "Standard", Status: models.TableAvailable}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return table
}

// CreateMenuItem stores an item directly; stock nil means untracked. A
// tracked item gets a matching INITIAL ledger entry so the ledger balances.
func CreateMenuItem(t *testing.T, db *gorm.DB, name, category, price string, stock *int, userID uint) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:          name,
		Category:      category,
		Price:         Dec(price),
		CostPrice:     Dec(price).Div(decimal.NewFromInt(2)),
		StockQuantity: stock,
		MinStock:      5,
		Unit:          "un",
		IsAvailable:   true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create menu item: %v", err)
	}
	if stock != nil && *stock != 0 {
		movement := models.StockMovement{
			MenuItemID: item.ID,
			Quantity:   *stock,
			Type:       models.MovementInitial,
			Reason:     "fixture",
			UserID:     userID,
		}
		if err := db.Omit("MenuItem", "Supplier").Create(&movement).Error; err != nil {
			t.Fatalf("create initial movement: %v", err)
		}
	}
	return item
}
