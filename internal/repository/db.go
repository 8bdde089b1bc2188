package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/shamsfin/shamsi/assets"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Contractor() ContractorRepository
	Session() SessionRepository
	VerificationToken() VerificationTokenRepository
	Requirement() RequirementRepository
	KycDocument() KycDocumentRepository
	Product() ProductRepository
	Quote() QuoteRepository
	Audit() AuditRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db                    *sqlx.DB
	userRepo              UserRepository
	contractorRepo        ContractorRepository
	sessionRepo           SessionRepository
	verificationTokenRepo VerificationTokenRepository
	requirementRepo       RequirementRepository
	kycDocumentRepo       KycDocumentRepository
	productRepo           ProductRepository
	quoteRepo             QuoteRepository
	auditRepo             AuditRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Contractor() ContractorRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.contractorRepo == nil {
		d.contractorRepo = NewContractorRepository(d.db)
	}
	return d.contractorRepo
}

func (d *DatabaseImpl) Session() SessionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sessionRepo == nil {
		d.sessionRepo = NewSessionRepository(d.db)
	}
	return d.sessionRepo
}

func (d *DatabaseImpl) VerificationToken() VerificationTokenRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.verificationTokenRepo == nil {
		d.verificationTokenRepo = NewVerificationTokenRepository(d.db)
	}
	return d.verificationTokenRepo
}

func (d *DatabaseImpl) Requirement() RequirementRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.requirementRepo == nil {
		d.requirementRepo = NewRequirementRepository(d.db)
	}
	return d.requirementRepo
}

func (d *DatabaseImpl) KycDocument() KycDocumentRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.kycDocumentRepo == nil {
		d.kycDocumentRepo = NewKycDocumentRepository(d.db)
	}
	return d.kycDocumentRepo
}

func (d *DatabaseImpl) Product() ProductRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.productRepo == nil {
		d.productRepo = NewProductRepository(d.db)
	}
	return d.productRepo
}

func (d *DatabaseImpl) Quote() QuoteRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.quoteRepo == nil {
		d.quoteRepo = NewQuoteRepository(d.db)
	}
	return d.quoteRepo
}

func (d *DatabaseImpl) Audit() AuditRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.auditRepo == nil {
		d.auditRepo = NewAuditRepository(d.db)
	}
	return d.auditRepo
}
