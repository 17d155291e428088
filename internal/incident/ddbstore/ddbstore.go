// Package ddbstore provides a DynamoDB implementation of incident.Store.
//
// One table holds both record kinds: partition key incidentKey, sort key
// observedAt. The canonical status record uses the reserved sort key 0, so
// window scans over real firing times never touch it. Retention is the
// table's native TTL on the expiresAt attribute.
package ddbstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Store persists incident records in a single DynamoDB table.
type Store struct {
	db    *dynamodb.Client
	table string
}

// New creates a Store over an existing DynamoDB client and table. The table
// must have incidentKey (S) as partition key and observedAt (N) as sort key.
func New(db *dynamodb.Client, table string) *Store {
	return &Store{db: db, table: table}
}

// item is the DynamoDB shape of incident.Record.
type item struct {
	Key        string `dynamodbav:"incidentKey"`
	ObservedAt int64  `dynamodbav:"observedAt"`
	Status     string `dynamodbav:"status"`
	AlarmName  string `dynamodbav:"alarmName,omitempty"`
	AlarmState string `dynamodbav:"alarmState,omitempty"`
	Region     string `dynamodbav:"region,omitempty"`
	Account    string `dynamodbav:"account,omitempty"`
	RawEvent   string `dynamodbav:"rawEvent,omitempty"`
	Payload    string `dynamodbav:"payload,omitempty"`
	CreatedAt  string `dynamodbav:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt,omitempty"`
	ExpiresAt  int64  `dynamodbav:"expiresAt"`
}

// SeenSince queries for any sighting of key at or after since. A single-item
// limit is enough: the check is existence-only.
func (s *Store) SeenSince(ctx context.Context, key string, since time.Time) (bool, error) {
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("incidentKey = :k AND observedAt >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k":     &types.AttributeValueMemberS{Value: key},
			":since": &types.AttributeValueMemberN{Value: strconv.FormatInt(since.UnixMilli(), 10)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("query sightings: %w", err)
	}
	return len(out.Items) > 0, nil
}

// RecordSighting inserts a history record for an accepted firing.
func (s *Store) RecordSighting(ctx context.Context, rec *incident.Record) error {
	av, err := attributevalue.MarshalMap(item{
		Key:        rec.Key,
		ObservedAt: rec.ObservedAt,
		Status:     string(rec.Status),
		AlarmName:  rec.AlarmName,
		AlarmState: rec.AlarmState,
		Region:     rec.Region,
		Account:    rec.Account,
		RawEvent:   string(rec.RawEvent),
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		ExpiresAt:  rec.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal sighting: %w", err)
	}

	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put sighting: %w", err)
	}
	return nil
}

// SetStatus overwrites the canonical record (sort key 0) for key.
// Last-writer-wins by design; no condition expression.
func (s *Store) SetStatus(ctx context.Context, key string, status incident.Status, payload json.RawMessage) error {
	now := time.Now().UTC()

	// "status" is a DynamoDB reserved word, hence the name placeholder.
	update := "SET #st = :st, updatedAt = :u, expiresAt = :ttl"
	values := map[string]types.AttributeValue{
		":st":  &types.AttributeValueMemberS{Value: string(status)},
		":u":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(incident.DefaultRetention).Unix(), 10)},
	}
	if payload != nil {
		update += ", payload = :p"
		values[":p"] = &types.AttributeValueMemberS{Value: string(payload)}
	}

	if _, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"incidentKey": &types.AttributeValueMemberS{Value: key},
			"observedAt":  &types.AttributeValueMemberN{Value: strconv.FormatInt(incident.SentinelObservedAt, 10)},
		},
		UpdateExpression:          aws.String(update),
		ExpressionAttributeNames:  map[string]string{"#st": "status"},
		ExpressionAttributeValues: values,
	}); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// GetCanonical fetches the sentinel record for key.
func (s *Store) GetCanonical(ctx context.Context, key string) (*incident.Record, bool, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"incidentKey": &types.AttributeValueMemberS{Value: key},
			"observedAt":  &types.AttributeValueMemberN{Value: strconv.FormatInt(incident.SentinelObservedAt, 10)},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("get canonical: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, false, fmt.Errorf("unmarshal canonical: %w", err)
	}

	rec := &incident.Record{
		Key:        it.Key,
		ObservedAt: it.ObservedAt,
		Status:     incident.Status(it.Status),
		AlarmName:  it.AlarmName,
		AlarmState: it.AlarmState,
		Region:     it.Region,
		Account:    it.Account,
		ExpiresAt:  it.ExpiresAt,
	}
	if it.RawEvent != "" {
		rec.RawEvent = json.RawMessage(it.RawEvent)
	}
	if it.Payload != "" {
		rec.Payload = json.RawMessage(it.Payload)
	}
	if it.CreatedAt != "" {
		rec.CreatedAt, _ = time.Parse(time.RFC3339, it.CreatedAt)
	}
	if it.UpdatedAt != "" {
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, it.UpdatedAt)
	}
	return rec, true, nil
}
