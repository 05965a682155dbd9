package services

import (
	"context"

	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

// CatalogService manages the reference data around the menu: seating
// locations, suppliers and brands.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&locations).Error; err != nil {
		return nil, apperrors.NewInternal("list locations", err)
	}
	return locations, nil
}

func (s *CatalogService) CreateLocation(ctx context.Context, name, description string) (*models.Location, error) {
	if name == "" {
		return nil, apperrors.NewValidation("location name is required")
	}
	location := models.Location{Name: name, Description: description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureLocationNameFree(tx, name, 0); err != nil {
			return err
		}
		return tx.Create(&location).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "create location")
	}
	utils.InfoLogger.Printf("Location created: %s", location.Name)
	return &location, nil
}

func (s *CatalogService) UpdateLocation(ctx context.Context, id uint, name, description *string) (*models.Location, error) {
	var location models.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&location, id).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewNotFound("location", id)
			}
			return err
		}
		updates := map[string]interface{}{}
		if name != nil {
			if *name == "" {
				return apperrors.NewValidation("location name must not be empty")
			}
			if err := ensureLocationNameFree(tx, *name, id); err != nil {
				return err
			}
			updates["name"] = *name
		}
		if description != nil {
			updates["description"] = *description
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&location).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&location, id).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "update location")
	}
	return &location, nil
}

// DeleteLocation refuses to remove a location that still has tables.
func (s *CatalogService) DeleteLocation(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Table{}).Where("location_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewConflict("location %d still has %d tables", id, count)
		}
		res := tx.Delete(&models.Location{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("location", id)
		}
		return nil
	})
	return apperrors.Wrap(err, "delete location")
}

func ensureLocationNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Location{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("a location named %q already exists", name)
	}
	return nil
}

func (s *CatalogService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, apperrors.NewInternal("list suppliers", err)
	}
	return suppliers, nil
}

func (s *CatalogService) CreateSupplier(ctx context.Context, supplier models.Supplier) (*models.Supplier, error) {
	if supplier.Name == "" {
		return nil, apperrors.NewValidation("supplier name is required")
	}
	supplier.ID = 0
	if err := s.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, apperrors.NewInternal("create supplier", err)
	}
	utils.InfoLogger.Printf("Supplier created: %s", supplier.Name)
	return &supplier, nil
}

// DeleteSupplier refuses to remove a supplier referenced by the menu or the
// stock ledger.
func (s *CatalogService) DeleteSupplier(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items, movements int64
		if err := tx.Model(&models.MenuItem{}).Unscoped().Where("supplier_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.StockMovement{}).Where("supplier_id = ?", id).Count(&movements).Error; err != nil {
			return err
		}
		if items+movements > 0 {
			return apperrors.NewConflict("supplier %d is referenced by menu items or purchases", id)
		}
		res := tx.Delete(&models.Supplier{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("supplier", id)
		}
		return nil
	})
	return apperrors.Wrap(err, "delete supplier")
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, apperrors.NewInternal("list brands", err)
	}
	return brands, nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	if name == "" {
		return nil, apperrors.NewValidation("brand name is required")
	}
	brand := models.Brand{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Brand{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewConflict("a brand named %q already exists", name)
		}
		return tx.Create(&brand).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "create brand")
	}
	utils.InfoLogger.Printf("Brand created: %s", brand.Name)
	return &brand, nil
}

// DeleteBrand refuses to remove a brand still assigned to a menu item,
// including removed ones.
func (s *CatalogService) DeleteBrand(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items int64
		if err := tx.Model(&models.MenuItem{}).Unscoped().Where("brand_id = ?", id).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return apperrors.NewConflict("brand %d is assigned to %d menu items", id, items)
		}
		res := tx.Delete(&models.Brand{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("brand", id)
		}
		return nil
	})
	return apperrors.Wrap(err, "delete brand")
}
