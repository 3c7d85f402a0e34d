package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lavanderia/ops-console/internal/core/domain"
)

const accountCollection = "console_accounts"

// AccountRepository stores operator accounts for the local login collaborator.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type mongoAccount struct {
	ID           primitive.ObjectID         `bson:"_id,omitempty"`
	Name         string                     `bson:"name"`
	Email        string                     `bson:"email"`
	Phone        string                     `bson:"phone,omitempty"`
	PasswordHash string                     `bson:"password_hash"`
	Role         string                     `bson:"role"`
	IsActive     bool                       `bson:"is_active"`
	Capabilities map[string]map[string]bool `bson:"capabilities,omitempty"`
	CreatedAt    int64                      `bson:"created_at"`
	UpdatedAt    int64                      `bson:"updated_at"`
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create account index: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	doc := mongoAccount{
		Name:         account.Name,
		Email:        normalizeEmail(account.Email),
		Phone:        account.Phone,
		PasswordHash: account.PasswordHash,
		Role:         string(account.Role),
		IsActive:     account.IsActive,
		Capabilities: account.Payload().Capabilities,
		CreatedAt:    account.CreatedAt.Unix(),
		UpdatedAt:    account.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return toDomain(doc)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return toDomain(doc)
}

func toDomain(doc mongoAccount) (*domain.Account, error) {
	role, err := domain.ParseRole(doc.Role)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", doc.ID.Hex(), err)
	}
	return &domain.Account{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		Phone:        doc.Phone,
		PasswordHash: doc.PasswordHash,
		Role:         role,
		IsActive:     doc.IsActive,
		Capabilities: domain.ParseCapabilityMatrix(doc.Capabilities),
		CreatedAt:    unixToTime(doc.CreatedAt),
		UpdatedAt:    unixToTime(doc.UpdatedAt),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
