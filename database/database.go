package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bizcore/auth"
	"bizcore/models"
)

// InitDB opens the database, runs migrations and seeds the permission
// catalog.
func InitDB(databaseURL string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Team{},
		&models.Employee{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RefreshToken{},
		&models.Opportunity{},
		&models.OpportunityNote{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := SeedInitialData(db); err != nil {
		return nil, fmt.Errorf("failed to seed initial data: %w", err)
	}
	return db, nil
}

// SeedInitialData provisions the permission catalog, default roles and an
// initial admin account. Idempotent: existing rows are left alone.
func SeedInitialData(db *gorm.DB) error {
	permissions := []models.Permission{
		{Name: "opportunity:create", Description: "Create sales opportunities"},
		{Name: "opportunity:read:all", Description: "Read any opportunity"},
		{Name: "opportunity:read:team", Description: "Read opportunities of own team"},
		{Name: "opportunity:read:assigned", Description: "Read opportunities one is assigned to"},
		{Name: "opportunity:read:own", Description: "Read opportunities one created"},
		{Name: "opportunity:update:all", Description: "Update any opportunity"},
		{Name: "opportunity:update:team", Description: "Update opportunities of own team"},
		{Name: "opportunity:update:assigned", Description: "Update opportunities one is assigned to"},
		{Name: "opportunity:update:own", Description: "Update opportunities one created"},
		{Name: "opportunity-note:read:all", Description: "Read any opportunity note"},
		{Name: "opportunity-note:read:assigned", Description: "Read notes on assigned opportunities"},
		{Name: "opportunity-note:read:own", Description: "Read own opportunity notes"},
		{Name: "contract:read:all", Description: "Read any contract"},
		{Name: "contract:read:team", Description: "Read contracts of own team"},
		{Name: "contract:read:own", Description: "Read contracts one created"},
		{Name: "employee:read:all", Description: "Read any employee record"},
		{Name: "employee:read:team", Description: "Read employee records of own team"},
		{Name: "roles:manage", Description: "Manage roles and permissions"},
	}

	for _, p := range permissions {
		var existing models.Permission
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&p).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", p.Name, err)
			}
		} else if err != nil {
			return err
		}
	}

	roles := []struct {
		Role        models.Role
		Permissions []string
	}{
		{
			Role: models.Role{Name: "admin", Description: "Administrator with unrestricted access"},
			Permissions: []string{
				"opportunity:create", "opportunity:read:all", "opportunity:update:all",
				"opportunity-note:read:all", "contract:read:all", "employee:read:all",
				"roles:manage",
			},
		},
		{
			Role: models.Role{Name: "sales-manager", Description: "Team-wide visibility for sales leads"},
			Permissions: []string{
				"opportunity:create", "opportunity:read:team", "opportunity:update:team",
				"opportunity-note:read:assigned", "contract:read:team", "employee:read:team",
			},
		},
		{
			Role: models.Role{Name: "sales-rep", Description: "Assigned and own records only"},
			Permissions: []string{
				"opportunity:create", "opportunity:read:assigned", "opportunity:update:own",
				"opportunity-note:read:own", "contract:read:own",
			},
		},
	}

	for _, rData := range roles {
		var role models.Role
		err := db.Where("name = ?", rData.Role.Name).First(&role).Error
		if err == gorm.ErrRecordNotFound {
			role = rData.Role
			if err := db.Create(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
		} else if err != nil {
			return err
		}

		var perms []models.Permission
		if err := db.Where("name IN ?", rData.Permissions).Find(&perms).Error; err != nil {
			return fmt.Errorf("find permissions for role %s: %w", role.Name, err)
		}
		if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("associate permissions with role %s: %w", role.Name, err)
		}
	}

	// Initial admin account, created only if absent.
	var adminUser models.User
	if err := db.Where("username = ?", "admin").First(&adminUser).Error; err == gorm.ErrRecordNotFound {
		hashed, err := auth.HashPassword("adminpassword")
		if err != nil {
			return err
		}
		adminUser = models.User{
			Username: "admin",
			Password: hashed,
			Email:    "admin@example.com",
			Enabled:  true,
		}
		if err := db.Create(&adminUser).Error; err != nil {
			return fmt.Errorf("create initial admin user: %w", err)
		}
		var adminRole models.Role
		if err := db.Where("name = ?", "admin").First(&adminRole).Error; err == nil {
			if err := db.Model(&adminUser).Association("Roles").Append(&adminRole); err != nil {
				return fmt.Errorf("assign admin role: %w", err)
			}
		}
	} else if err != nil {
		return err
	}

	return nil
}
