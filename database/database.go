package database

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"orgdash/levels"
	"orgdash/models"
)

var DB *gorm.DB

// MemoryDSN selects the in-memory repository instead of postgres.
const MemoryDSN = "memory"

// Open returns the repository for dsn and seeds the default organization and
// admin when they are missing.
func Open(dsn string, log *logrus.Logger) (Repository, error) {
	var repo Repository
	if strings.TrimSpace(dsn) == MemoryDSN {
		log.Warn("using in-memory repository, data is lost on restart")
		repo = NewMemoryRepository()
	} else {
		if err := Init(dsn); err != nil {
			return nil, err
		}
		repo = NewGormRepository(DB)
	}
	if err := seedDefaultAdmin(repo, log); err != nil {
		return nil, err
	}
	return repo, nil
}

func Init(dsn string) error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return errors.Wrap(err, "open postgres")
	}

	err = DB.AutoMigrate(
		&models.Organization{},
		&models.Department{},
		&models.User{},
		&models.Team{},
		&models.Task{},
		&models.TaskComment{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

func seedDefaultAdmin(repo Repository, log *logrus.Logger) error {
	if _, err := repo.GetUserByUsername("admin"); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	org := &models.Organization{Name: "Default"}
	if err := repo.CreateOrganization(org); err != nil {
		return errors.Wrap(err, "seed organization")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		OrganizationID:   org.ID,
		Username:         "admin",
		FullName:         "Administrator",
		PasswordHash:     string(hashedPassword),
		Role:             models.RoleAdmin,
		SupervisoryLevel: levels.Overall,
		Active:           true,
	}
	if err := repo.CreateUser(&admin); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	log.WithField("organization_id", org.ID).Info("default admin user created (username: admin, password: admin)")
	return nil
}
