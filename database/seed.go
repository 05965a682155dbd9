package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	username, password, name, role string
}

type seedTable struct {
	number, capacity int
	kind, location   string
}

type seedMenuItem struct {
	name, description, category string
	price, cost                 int64
	stock                       int
}

var (
	seedLocations = []models.Location{
		{Name: "Salão Principal", Description: "Área interna com ar condicionado"},
		{Name: "Esplanada", Description: "Área externa para fumantes"},
	}

	seedTables = []seedTable{
		{1, 2, "BAR_COUNTER", "Salão Principal"},
		{2, 4, "TABLE_4", "Salão Principal"},
		{3, 4, "TABLE_4", "Salão Principal"},
		{4, 6, "TABLE_6", "Esplanada"},
		{5, 2, "TABLE_2", "Esplanada"},
		{6, 4, "TABLE_4", "Esplanada"},
	}

	seedUsers = []seedUser{
		{"admin", "admin123", "Administrador", models.RoleAdmin},
		{"trial", "trial123", "Usuário Demo", models.RoleAdmin},
	}

	seedMenu = []seedMenuItem{
		{"Café Expresso", "Café forte e curto", "Bebidas", 60, 20, 100},
		{"Cappuccino", "Café com espuma de leite", "Bebidas", 120, 40, 50},
		{"Croissant Simples", "Massa folhada", "Comida", 80, 30, 20},
		{"Sanduíche Misto", "Fiambre e Queijo", "Comida", 150, 60, 30},
		{"Água Mineral", "500ml", "Bebidas", 40, 15, 200},
	}
)

// Seed loads demo locations, tables, users and menu items. Rows are matched
// by their natural key so running it twice changes nothing.
func Seed(ctx context.Context, db *gorm.DB, menu *services.MenuService) error {
	db = db.WithContext(ctx)

	locationIDs := map[string]uint{}
	for _, l := range seedLocations {
		loc := l
		if err := db.Where(models.Location{Name: loc.Name}).FirstOrCreate(&loc).Error; err != nil {
			return fmt.Errorf("seed location %s: %w", loc.Name, err)
		}
		locationIDs[loc.Name] = loc.ID
	}

	for _, t := range seedTables {
		locID := locationIDs[t.location]
		table := models.Table{
			Number:     t.number,
			Capacity:   t.capacity,
			Type:       t.kind,
			LocationID: &locID,
			Status:     models.TableAvailable,
		}
		if err := db.Where(models.Table{Number: t.number}).FirstOrCreate(&table).Error; err != nil {
			return fmt.Errorf("seed table %d: %w", t.number, err)
		}
	}

	var adminID uint
	for _, u := range seedUsers {
		var user models.User
		err := db.Where("username = ?", u.username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashed, herr := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if herr != nil {
				return herr
			}
			user = models.User{Username: u.username, Password: string(hashed), Name: u.name, Role: u.role}
			err = db.Create(&user).Error
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
		if u.username == "admin" {
			adminID = user.ID
		}
	}

	created := 0
	for _, m := range seedMenu {
		var n int64
		if err := db.Model(&models.MenuItem{}).Unscoped().Where("name = ?", m.name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}

		cost := decimal.NewFromInt(m.cost)
		stock := m.stock
		_, err := menu.CreateMenuItem(ctx, services.CreateMenuItemRequest{
			Name:          m.name,
			Description:   m.description,
			Category:      m.category,
			Price:         decimal.NewFromInt(m.price),
			CostPrice:     &cost,
			StockQuantity: &stock,
			UserID:        adminID,
		})
		if err != nil {
			return fmt.Errorf("seed menu item %s: %w", m.name, err)
		}
		created++
	}

	utils.InfoLogger.Infof("Seed completed: %d menu items created", created)
	return nil
}
