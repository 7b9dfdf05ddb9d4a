package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// maxTransactItems is the DynamoDB limit for one TransactWriteItems call
const maxTransactItems = 100

type teamRecord struct {
	PK          string    `dynamodbav:"PK"`
	SK          string    `dynamodbav:"SK"`
	EntityType  string    `dynamodbav:"EntityType"`
	TeamID      string    `dynamodbav:"teamId"`
	Name        string    `dynamodbav:"name"`
	Description string    `dynamodbav:"description,omitempty"`
	OwnerID     string    `dynamodbav:"ownerId"`
	MemberIDs   []string  `dynamodbav:"memberIds"`
	AdminIDs    []string  `dynamodbav:"adminIds"`
	Active      bool      `dynamodbav:"active"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
	UpdatedAt   time.Time `dynamodbav:"updatedAt"`
}

// membershipRecord lets ListByMember find a user's teams with one query
type membershipRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	TeamID     string `dynamodbav:"teamId"`
	UserID     string `dynamodbav:"userId"`
}

func (r teamRecord) toEntity() (*entities.Team, error) {
	return entities.ReconstructTeam(r.TeamID, r.Name, r.Description, r.OwnerID, r.MemberIDs, r.AdminIDs, r.Active, r.CreatedAt, r.UpdatedAt)
}

// TeamRepository implements ports.TeamRepository
type TeamRepository struct {
	table
	logger *zap.Logger
}

var _ ports.TeamRepository = (*TeamRepository)(nil)

// NewTeamRepository creates a new team repository
func NewTeamRepository(client API, cfg Config, collector *observability.Collector, logger *zap.Logger) *TeamRepository {
	return &TeamRepository{table: newTable(client, cfg, collector), logger: logger}
}

// Save writes the team record and reconciles the membership index rows
func (r *TeamRepository) Save(ctx context.Context, team *entities.Team) (err error) {
	defer r.observe("team_save", time.Now(), &err)

	previous := map[string]struct{}{}
	existing, err := r.GetByID(ctx, team.ID())
	switch {
	case err == nil:
		for _, uid := range existing.AllUserIDs() {
			previous[uid] = struct{}{}
		}
	case pkgerrors.IsNotFound(err):
	default:
		return err
	}

	av, err := attributevalue.MarshalMap(teamRecord{
		PK:          BuildTeamPK(team.ID()),
		SK:          skMetadata,
		EntityType:  entityTeam,
		TeamID:      team.ID(),
		Name:        team.Name(),
		Description: team.Description(),
		OwnerID:     team.OwnerID(),
		MemberIDs:   team.MemberIDs(),
		AdminIDs:    team.AdminIDs(),
		Active:      team.IsActive(),
		CreatedAt:   team.CreatedAt(),
		UpdatedAt:   team.UpdatedAt(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal team: %w", err)
	}

	writes := []types.TransactWriteItem{{Put: &types.Put{TableName: aws.String(r.name), Item: av}}}
	for _, uid := range team.AllUserIDs() {
		delete(previous, uid)
		row, err := attributevalue.MarshalMap(membershipRecord{
			PK:         BuildUserPK(uid),
			SK:         BuildTeamPK(team.ID()),
			EntityType: entityMember,
			TeamID:     team.ID(),
			UserID:     uid,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal membership: %w", err)
		}
		writes = append(writes, types.TransactWriteItem{Put: &types.Put{TableName: aws.String(r.name), Item: row}})
	}
	for uid := range previous {
		writes = append(writes, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.name),
			Key:       primaryKey(BuildUserPK(uid), BuildTeamPK(team.ID())),
		}})
	}

	// large teams span several transactions; the team record goes first
	for start := 0; start < len(writes); start += maxTransactItems {
		end := start + maxTransactItems
		if end > len(writes) {
			end = len(writes)
		}
		_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes[start:end]})
		if err != nil {
			return classifyError("save team", err, nil)
		}
	}

	r.logger.Debug("Team saved", zap.String("teamID", team.ID()), zap.Int("writes", len(writes)))
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team *entities.Team, err error) {
	defer r.observe("team_get", time.Now(), &err)

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.name),
		Key:       primaryKey(BuildTeamPK(teamID), skMetadata),
	})
	if err != nil {
		return nil, classifyError("get team", err, nil)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("team")
	}

	var rec teamRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team: %w", err)
	}
	return rec.toEntity()
}

// ListByMember reads the user's membership rows, then each team. Rows whose
// team is gone or no longer lists the user are skipped.
func (r *TeamRepository) ListByMember(ctx context.Context, userID string) (teams []*entities.Team, err error) {
	defer r.observe("team_list_member", time.Now(), &err)

	input, err := NewQueryBuilder(r.name).
		WithPartition(attrPK, BuildUserPK(userID)).
		WithSortKeyBeginsWith(attrSK, prefixTeam).
		Build()
	if err != nil {
		return nil, err
	}

	raw, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, classifyError("query memberships", err, nil)
	}
	var rows []membershipRecord
	if err := attributevalue.UnmarshalListOfMaps(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memberships: %w", err)
	}

	for _, row := range rows {
		team, err := r.GetByID(ctx, row.TeamID)
		if pkgerrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !team.CanUserAccess(userID) {
			r.logger.Warn("Stale team membership row", zap.String("userID", userID), zap.String("teamID", row.TeamID))
			continue
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (r *TeamRepository) ListAll(ctx context.Context) (teams []*entities.Team, err error) {
	defer r.observe("team_scan", time.Now(), &err)

	input, err := NewScanBuilder(r.name).WithEntityTypeFilter(entityTeam).Build()
	if err != nil {
		return nil, err
	}
	raw, err := scanAll(ctx, r.client, input)
	if err != nil {
		return nil, classifyError("scan teams", err, nil)
	}

	var records []teamRecord
	if err := attributevalue.UnmarshalListOfMaps(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teams: %w", err)
	}
	for _, rec := range records {
		team, err := rec.toEntity()
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}
