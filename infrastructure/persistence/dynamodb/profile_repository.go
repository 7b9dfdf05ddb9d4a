package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

type profileRecord struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	EntityType string    `dynamodbav:"EntityType"`
	UserID     string    `dynamodbav:"userId"`
	Username   string    `dynamodbav:"username,omitempty"`
	Email      string    `dynamodbav:"email,omitempty"`
	Role       string    `dynamodbav:"role"`
	UpdatedAt  time.Time `dynamodbav:"updatedAt"`
}

// ProfileRepository implements ports.UserProfileRepository
type ProfileRepository struct {
	table
}

var _ ports.UserProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(client API, cfg Config, collector *observability.Collector) *ProfileRepository {
	return &ProfileRepository{table: newTable(client, cfg, collector)}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (profile *entities.UserProfile, err error) {
	defer r.observe("profile_get", time.Now(), &err)

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.name),
		Key:       primaryKey(BuildUserPK(userID), skProfile),
	})
	if err != nil {
		return nil, classifyError("get profile", err, nil)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("user profile")
	}

	var rec profileRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	role, err := valueobjects.ParseRole(rec.Role)
	if err != nil {
		role = valueobjects.RoleUser
	}
	return &entities.UserProfile{
		UserID:    rec.UserID,
		Username:  rec.Username,
		Email:     rec.Email,
		Role:      role,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r *ProfileRepository) SaveProfile(ctx context.Context, profile *entities.UserProfile) (err error) {
	defer r.observe("profile_save", time.Now(), &err)

	if profile == nil || profile.UserID == "" {
		return pkgerrors.NewValidationError("profile user id is required")
	}
	role := profile.Role
	if role.IsZero() {
		role = valueobjects.RoleUser
	}
	updated := profile.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	av, err := attributevalue.MarshalMap(profileRecord{
		PK:         BuildUserPK(profile.UserID),
		SK:         skProfile,
		EntityType: entityProfile,
		UserID:     profile.UserID,
		Username:   profile.Username,
		Email:      profile.Email,
		Role:       role.String(),
		UpdatedAt:  updated,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.name), Item: av})
	return classifyError("save profile", err, nil)
}
