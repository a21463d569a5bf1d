package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jonboulle/clockwork"
)

// Attribute names of the view table. The table's partition key is pk and its
// TTL attribute is expires_at.
const (
	attrPK        = "pk"
	attrVideoID   = "video_id"
	attrViewer    = "viewer"
	attrViewedAt  = "viewed_at"
	attrExpiresAt = "expires_at"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoLedger stores view records in a DynamoDB table. Inserts are
// conditional puts; DynamoDB TTL deletes expired items lazily, so reads and
// the put condition compare expires_at against the clock themselves.
type DynamoLedger struct {
	client    dynamoAPI
	table     string
	counter   ViewCounter
	retention time.Duration
	clock     clockwork.Clock
}

// NewDynamoLedger creates a ledger using the default AWS credential chain.
func NewDynamoLedger(ctx context.Context, table string, counter ViewCounter, retention time.Duration, clock clockwork.Clock) (*DynamoLedger, error) {
	if table == "" {
		return nil, fmt.Errorf("DynamoDB table name cannot be empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newDynamoLedger(dynamodb.NewFromConfig(cfg), table, counter, retention, clock), nil
}

func newDynamoLedger(client dynamoAPI, table string, counter ViewCounter, retention time.Duration, clock clockwork.Clock) *DynamoLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DynamoLedger{client: client, table: table, counter: counter, retention: retention, clock: clock}
}

func dynamoKey(videoID, viewer string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: videoID + "#" + viewer},
	}
}

func unixAttr(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}

// Name implements Ledger.
func (l *DynamoLedger) Name() string { return "dynamodb" }

// Seen implements Ledger.
func (l *DynamoLedger) Seen(ctx context.Context, videoID, viewer string) (bool, error) {
	defer observeLedger(l.Name(), "seen", time.Now())

	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.table),
		Key:            dynamoKey(videoID, viewer),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get item: %w", err)
	}
	if out.Item == nil {
		return false, nil
	}

	attr, ok := out.Item[attrExpiresAt].(*types.AttributeValueMemberN)
	if !ok {
		return false, nil
	}
	expires, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed %s %q: %w", attrExpiresAt, attr.Value, err)
	}
	return expires > l.clock.Now().Unix(), nil
}

// Record implements Ledger.
func (l *DynamoLedger) Record(ctx context.Context, videoID, viewer string) (bool, error) {
	defer observeLedger(l.Name(), "record", time.Now())

	now := l.clock.Now()
	item := dynamoKey(videoID, viewer)
	item[attrVideoID] = &types.AttributeValueMemberS{Value: videoID}
	item[attrViewer] = &types.AttributeValueMemberS{Value: viewer}
	item[attrViewedAt] = unixAttr(now)
	item[attrExpiresAt] = unixAttr(now.Add(l.retention))

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk) OR #exp <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#pk":  attrPK,
			"#exp": attrExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": unixAttr(now),
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("failed to put item: %w", err)
	}

	if err := l.counter.IncrementViews(ctx, videoID); err != nil {
		_, delErr := l.client.DeleteItem(context.WithoutCancel(ctx), &dynamodb.DeleteItemInput{
			TableName: aws.String(l.table),
			Key:       dynamoKey(videoID, viewer),
		})
		if delErr != nil {
			log.Warn("failed to roll back view item %s/%s: %v", videoID, viewer, delErr)
		}
		return false, err
	}
	return true, nil
}

// Close implements Ledger; the SDK client holds no connection to release.
func (l *DynamoLedger) Close() error { return nil }
