package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/spigell/strengths-agent/internal/logger"
	"github.com/spigell/strengths-agent/internal/strengths"
)

const (
	DefaultRegion    = "us-east-1"
	DefaultTable     = "profiles"
	DefaultNameIndex = "name-index"

	keyEmail     = "email_address"
	keyFirstName = "first_name"
	keyLastName  = "last_name"
)

// API is the part of the DynamoDB client used by the store.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Config describes where the profiles table lives.
type Config struct {
	Region    string `mapstructure:"region"`
	Profile   string `mapstructure:"profile"`
	Table     string `mapstructure:"table"`
	NameIndex string `mapstructure:"name-index"`
	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
}

// WriteResult reports the outcome of a write.
type WriteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LookupResult reports the outcome of a read.
type LookupResult struct {
	Success  bool                `json:"success"`
	Count    int                 `json:"count"`
	Message  string              `json:"message"`
	Profiles []strengths.Profile `json:"profiles"`
}

// Store keeps profiles in a DynamoDB table keyed by email address, with a
// secondary index on first and last name.
type Store struct {
	api       API
	table     string
	nameIndex string
	logger    *zap.Logger
}

// New creates a Store on top of an existing DynamoDB client.
func New(api API, table, nameIndex string, log *zap.Logger) *Store {
	if table = strings.TrimSpace(table); table == "" {
		table = DefaultTable
	}
	if nameIndex = strings.TrimSpace(nameIndex); nameIndex == "" {
		nameIndex = DefaultNameIndex
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{
		api:       api,
		table:     table,
		nameIndex: nameIndex,
		logger:    log.With(zap.String("table", table)),
	}
}

// NewFromConfig loads the AWS configuration and builds a Store backed by a real DynamoDB client.
func NewFromConfig(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile := strings.TrimSpace(cfg.Profile); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return New(client, cfg.Table, cfg.NameIndex, log), nil
}

// Put stores p, replacing any profile with the same email address.
func (s *Store) Put(ctx context.Context, p strengths.Profile) WriteResult {
	if strings.TrimSpace(p.EmailAddress) == "" {
		return WriteResult{Message: "Error storing profile: email address is required"}
	}

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return s.writeFailure(p, fmt.Errorf("marshal profile: %w", err))
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return s.writeFailure(p, err)
	}

	s.logger.Debug("profile stored", logger.Email(p.EmailAddress), zap.Int("strengths", len(p.Strengths)))

	return WriteResult{
		Success: true,
		Message: fmt.Sprintf("Profile stored successfully for %s %s (%s)", p.FirstName, p.LastName, p.EmailAddress),
	}
}

// FindByName returns every profile with the given first and last name.
func (s *Store) FindByName(ctx context.Context, firstName, lastName string) LookupResult {
	keyCond := expression.Key(keyFirstName).Equal(expression.Value(firstName)).
		And(expression.Key(keyLastName).Equal(expression.Value(lastName)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return s.lookupFailure("Error retrieving profile", fmt.Errorf("build key condition: %w", err))
	}

	paginator := dynamodb.NewQueryPaginator(s.api, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(s.nameIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return s.lookupFailure("Error retrieving profile", err)
		}
		items = append(items, page.Items...)
	}

	profiles, err := decode(items)
	if err != nil {
		return s.lookupFailure("Error retrieving profile", err)
	}

	name := strings.TrimSpace(firstName + " " + lastName)
	if len(profiles) == 0 {
		return LookupResult{
			Success:  true,
			Message:  fmt.Sprintf("No profile found for %s", name),
			Profiles: profiles,
		}
	}

	return LookupResult{
		Success:  true,
		Count:    len(profiles),
		Message:  fmt.Sprintf("Found %d profile(s) for %s", len(profiles), name),
		Profiles: profiles,
	}
}

// FindByEmail returns the profile stored under email, if any.
func (s *Store) FindByEmail(ctx context.Context, email string) LookupResult {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			keyEmail: &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return s.lookupFailure("Error retrieving profile", err)
	}

	if out == nil || len(out.Item) == 0 {
		return LookupResult{
			Success:  true,
			Message:  fmt.Sprintf("No profile found for %s", email),
			Profiles: []strengths.Profile{},
		}
	}

	profiles, err := decode([]map[string]types.AttributeValue{out.Item})
	if err != nil {
		return s.lookupFailure("Error retrieving profile", err)
	}

	return LookupResult{
		Success:  true,
		Count:    1,
		Message:  fmt.Sprintf("Found 1 profile(s) for %s", email),
		Profiles: profiles,
	}
}

// All returns every stored profile, reading the table page by page.
func (s *Store) All(ctx context.Context) LookupResult {
	paginator := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	var items []map[string]types.AttributeValue
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return s.lookupFailure("Error retrieving profiles", err)
		}
		pages++
		items = append(items, page.Items...)
	}

	profiles, err := decode(items)
	if err != nil {
		return s.lookupFailure("Error retrieving profiles", err)
	}

	s.logger.Debug("scanned profiles", zap.Int("pages", pages), zap.Int("count", len(profiles)))

	return LookupResult{
		Success:  true,
		Count:    len(profiles),
		Message:  fmt.Sprintf("Retrieved %d profile(s) from the database", len(profiles)),
		Profiles: profiles,
	}
}

func decode(items []map[string]types.AttributeValue) ([]strengths.Profile, error) {
	profiles := make([]strengths.Profile, 0, len(items))
	if len(items) == 0 {
		return profiles, nil
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &profiles); err != nil {
		return nil, fmt.Errorf("unmarshal profiles: %w", err)
	}
	return profiles, nil
}

func (s *Store) writeFailure(p strengths.Profile, err error) WriteResult {
	s.logger.Error("storing profile", logger.Email(p.EmailAddress), zap.Error(err))
	return WriteResult{Message: fmt.Sprintf("Error storing profile: %s", cause(err))}
}

func (s *Store) lookupFailure(prefix string, err error) LookupResult {
	s.logger.Error(strings.ToLower(prefix), zap.Error(err))
	return LookupResult{
		Message:  fmt.Sprintf("%s: %s", prefix, cause(err)),
		Profiles: []strengths.Profile{},
	}
}

// cause prefers the service message of an AWS API error.
func cause(err error) string {
	var apiErr interface{ ErrorMessage() string }
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	return err.Error()
}
