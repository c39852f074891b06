package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/address"
	"github.com/bukcare/bukcare-api/internal/domain/invitation"
	"github.com/bukcare/bukcare-api/internal/domain/otp"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"auth", "geo", "audit"} // logical namespaces
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&address.Province{},
		&address.CityMunicipality{},
		&address.Address{},
		&domain.User{},
		&domain.SystemActivity{},
		&otp.Verification{},
		&invitation.Invitation{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	createIndexes(db, log)

	// The user->address reference must null out, not cascade, when an address
	// row is removed.
	_ = db.Exec(`ALTER TABLE auth.users DROP CONSTRAINT IF EXISTS fk_users_address`).Error
	_ = db.Exec(`ALTER TABLE auth.users ADD CONSTRAINT fk_users_address
		FOREIGN KEY (address_id) REFERENCES geo.addresses(id) ON DELETE SET NULL`).Error

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// createIndexes is best-effort: a failed index (for example pg_trgm missing on
// a restricted instance) degrades query plans, not correctness.
func createIndexes(db *gorm.DB, log *zap.Logger) {
	_ = db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error

	indexes := []struct {
		name  string
		query string
	}{
		// Verification scans only ever touch the live rows per email.
		{
			name:  "idx_otp_live_lookup",
			query: `CREATE INDEX IF NOT EXISTS idx_otp_live_lookup ON auth.otp_verifications (email, created_at DESC) WHERE is_used = false`,
		},
		{
			name:  "idx_invitations_pending",
			query: `CREATE INDEX IF NOT EXISTS idx_invitations_pending ON auth.user_invitations (created_at DESC) WHERE status = 'pending'`,
		},
		// Dashboard user search on names and email
		{
			name:  "idx_users_name_trgm",
			query: `CREATE INDEX IF NOT EXISTS idx_users_name_trgm ON auth.users USING gin ((first_name || ' ' || last_name || ' ' || email) gin_trgm_ops)`,
		},
		{
			name:  "idx_activities_feed",
			query: `CREATE INDEX IF NOT EXISTS idx_activities_feed ON audit.system_activities (created_at DESC)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			log.Warn("failed to create index", zap.String("index", idx.name), zap.Error(err))
		}
	}
}
