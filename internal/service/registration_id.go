package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

const (
	defaultRegistrationAttempts = 10
	registrationIDConstraint    = "users_registration_id_key"
	registrationSerialMax       = 9999
)

type registrationIDChecker interface {
	RegistrationIDExists(ctx context.Context, registrationID string) (bool, error)
}

// RegistrationIDGenerator issues IDs of the form {PREFIX}{YYYY}{NNNN}, e.g. STA20240137.
type RegistrationIDGenerator struct {
	checker     registrationIDChecker
	maxAttempts int
	clock       Clock
	serial      func() (int, error)
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewRegistrationIDGenerator constructs a generator bounded to maxAttempts candidates per registration.
func NewRegistrationIDGenerator(checker registrationIDChecker, maxAttempts int, metrics *MetricsService, logger *zap.Logger) *RegistrationIDGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultRegistrationAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationIDGenerator{
		checker:     checker,
		maxAttempts: maxAttempts,
		clock:       SystemClock,
		serial:      randomSerial,
		metrics:     metrics,
		logger:      logger,
	}
}

func randomSerial() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(registrationSerialMax))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 1, nil
}

// Candidate formats one registration ID for the role without checking uniqueness.
func (g *RegistrationIDGenerator) Candidate(role models.Role) (string, error) {
	prefix, ok := role.RegistrationPrefix()
	if !ok {
		return "", fmt.Errorf("role %s does not carry a registration id", role)
	}
	n, err := g.serial()
	if err != nil {
		return "", fmt.Errorf("draw registration serial: %w", err)
	}
	year := time.Now().Year()
	if g.clock != nil {
		year = g.clock().Year()
	}
	return fmt.Sprintf("%s%04d%04d", prefix, year, n), nil
}

// Assign draws candidates until insert accepts one. A candidate already present in the
// store, or rejected by insert with a registration ID unique violation, counts as a
// collision. After maxAttempts collisions it fails with REGISTRATION_ID_EXHAUSTED.
func (g *RegistrationIDGenerator) Assign(ctx context.Context, role models.Role, insert func(registrationID string) error) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate, err := g.Candidate(role)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate registration id")
		}
		exists, err := g.checker.RegistrationIDExists(ctx, candidate)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration id")
		}
		if exists {
			g.collision(role, candidate, attempt)
			continue
		}
		if err := insert(candidate); err != nil {
			if database.IsUniqueViolation(err, registrationIDConstraint) {
				g.collision(role, candidate, attempt)
				continue
			}
			return "", err
		}
		return candidate, nil
	}
	g.logger.Error("registration id attempts exhausted", zap.String("role", string(role)), zap.Int("attempts", g.maxAttempts))
	return "", appErrors.Clone(appErrors.ErrRegistrationIDExhausted, "")
}

func (g *RegistrationIDGenerator) collision(role models.Role, candidate string, attempt int) {
	g.metrics.RecordRegistrationCollision(string(role))
	g.logger.Warn("registration id collision", zap.String("role", string(role)), zap.String("candidate", candidate), zap.Int("attempt", attempt))
}
