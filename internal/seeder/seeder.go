package seeders

import (
	"time"

	"github.com/shamsfin/shamsi/internal/repository"
)

const defaultTimeout = 5 * time.Second

type Seeder struct {
	DB repository.Database

	// AdminEmail and AdminPassword come from the environment so no
	// credential ever lives in the codebase.
	AdminEmail    string
	AdminPassword string
}

func New(DB repository.Database, adminEmail, adminPassword string) *Seeder {
	return &Seeder{
		DB:            DB,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}
}

func (seeder *Seeder) Run() {
	seeder.seedDocumentRequirements()
	seeder.seedProductCatalog()

	if seeder.AdminEmail != "" && seeder.AdminPassword != "" {
		seeder.seedAdminAccount()
	}
}
