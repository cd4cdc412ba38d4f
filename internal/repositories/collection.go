package repositories

import (
	"fmt"

	"go.uber.org/zap"

	"greenlens/internal/database"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	Product   ProductRepository
	Scan      ScanRepository
	User      UserRepository
	Challenge ChallengeRepository
	Badge     BadgeRepository

	Tx Transactor
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	collection := &Collection{
		Product:   NewProductRepository(db, logger),
		Scan:      NewScanRepository(db, logger),
		User:      NewUserRepository(db, logger),
		Challenge: NewChallengeRepository(db, logger),
		Badge:     NewBadgeRepository(db, logger),
		Tx:        db,
	}

	logger.Info("Repository collection initialized successfully")
	return collection, nil
}
