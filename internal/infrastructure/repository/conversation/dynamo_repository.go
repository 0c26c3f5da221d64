package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/config"
	domain "doubtit/support-api/internal/domain/conversation"
)

// DynamoAPI is the subset of the DynamoDB client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// maxMutationAttempts bounds ApplyMutation retries after a concurrent last_active bump.
const maxMutationAttempts = 3

// DynamoTables names the table and its secondary indexes.
type DynamoTables struct {
	Table       string
	StatusIndex string
	ThreadIndex string
}

// NewDynamoClient builds a DynamoDB client from service configuration.
// Static credentials and a custom endpoint are optional (local DynamoDB).
func NewDynamoClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.AWSEndpointURL); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// DynamoRepository persists conversations in a single DynamoDB table.
type DynamoRepository struct {
	client DynamoAPI
	tables DynamoTables
	log    zerolog.Logger
}

// NewDynamoRepository creates a repository over client.
func NewDynamoRepository(client DynamoAPI, tables DynamoTables, log zerolog.Logger) *DynamoRepository {
	return &DynamoRepository{
		client: client,
		tables: tables,
		log:    log.With().Str("component", "dynamo-conversation-repository").Logger(),
	}
}

// CreateConversation writes the header together with a per-thread guard
// item in one transaction, so only one conversation can own a thread.
func (r *DynamoRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	header, err := attributevalue.MarshalMap(newHeaderItem(conv))
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	guard, err := attributevalue.MarshalMap(threadGuardItem{
		PK:             threadGuardPK(conv.ThreadID),
		SK:             threadGuardSK,
		Type:           itemTypeThreadGuard,
		ConversationID: conv.ID,
	})
	if err != nil {
		return fmt.Errorf("marshal thread guard: %w", err)
	}

	notExists := aws.String("attribute_not_exists(pk)")
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tables.Table), Item: guard, ConditionExpression: notExists}},
			{Put: &types.Put{TableName: aws.String(r.tables.Table), Item: header, ConditionExpression: notExists}},
		},
	})
	if err != nil {
		if cancelledByCondition(err, 0) || cancelledByCondition(err, 1) {
			return domain.ErrAlreadyExists
		}
		return r.wrap(err, "create conversation")
	}
	return nil
}

func (r *DynamoRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tables.Table),
		Key:            itemKey(conversationPK(id), headerSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, r.wrap(err, "get conversation")
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}

	var item headerItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return item.toDomain(), nil
}

// FindByThreadID reads the thread guard first, which is strongly
// consistent, and falls back to the thread index for headers written
// without a guard.
func (r *DynamoRepository) FindByThreadID(ctx context.Context, threadID string) (*domain.Conversation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tables.Table),
		Key:            itemKey(threadGuardPK(threadID), threadGuardSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, r.wrap(err, "get thread guard")
	}
	if len(out.Item) > 0 {
		var guard threadGuardItem
		if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
			return nil, fmt.Errorf("unmarshal thread guard: %w", err)
		}
		return r.GetConversation(ctx, guard.ConversationID)
	}

	keyCond := expression.Key(attrGSI3PK).Equal(expression.Value(threadPK(threadID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build thread query: %w", err)
	}

	res, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Table),
		IndexName:                 aws.String(r.tables.ThreadIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, r.wrap(err, "query thread index")
	}

	var items []headerItem
	if err := attributevalue.UnmarshalListOfMaps(res.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal thread matches: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	if len(items) > 1 {
		r.log.Warn().Str("thread_id", threadID).Int("matches", len(items)).Msg("duplicate conversations for thread; using the earliest")
		sort.Slice(items, func(i, j int) bool { return items[i].StartedAt < items[j].StartedAt })
	}
	return items[0].toDomain(), nil
}

// InsertMessage checks the parent header and puts the message in one
// transaction; the last_active bump is a separate later write.
func (r *DynamoRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	item, err := attributevalue.MarshalMap(newMessageItem(msg))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{ConditionCheck: &types.ConditionCheck{
				TableName:           aws.String(r.tables.Table),
				Key:                 itemKey(conversationPK(msg.ConversationID), headerSK),
				ConditionExpression: aws.String("attribute_exists(pk)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tables.Table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(sk)"),
			}},
		},
	})
	if err != nil {
		switch {
		case cancelledByCondition(err, 0):
			return domain.ErrNotFound
		case cancelledByCondition(err, 1):
			return domain.ErrAlreadyExists
		}
		return r.wrap(err, "insert message")
	}
	return nil
}

func (r *DynamoRepository) TouchConversation(ctx context.Context, id string, at time.Time) error {
	stamp := formatTime(at)
	update := expression.Set(expression.Name("last_active"), expression.Value(stamp)).
		Set(expression.Name(attrGSI1SK), expression.Value(stamp))
	cond := expression.AttributeExists(expression.Name(attrPK)).
		And(expression.Name("last_active").LessThan(expression.Value(stamp)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build touch expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tables.Table),
		Key:                       itemKey(conversationPK(id), headerSK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return r.wrap(err, "touch conversation")
	}
	return nil
}

// ApplyMutation writes the header conditionally. When only the forward-only
// last_active check fails, the write is retried with last_active raised to the
// stored value.
func (r *DynamoRepository) ApplyMutation(ctx context.Context, id string, m domain.Mutation, guard domain.Guard) (*domain.Conversation, error) {
	for attempt := 1; ; attempt++ {
		expr, err := buildMutationExpression(m, guard)
		if err != nil {
			return nil, err
		}

		out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                           aws.String(r.tables.Table),
			Key:                                 itemKey(conversationPK(id), headerSK),
			UpdateExpression:                    expr.Update(),
			ConditionExpression:                 expr.Condition(),
			ExpressionAttributeNames:            expr.Names(),
			ExpressionAttributeValues:           expr.Values(),
			ReturnValues:                        types.ReturnValueAllNew,
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		})
		if err == nil {
			var item headerItem
			if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
				return nil, fmt.Errorf("unmarshal conversation: %w", err)
			}
			return item.toDomain(), nil
		}

		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return nil, r.wrap(err, "apply mutation")
		}
		if len(ccf.Item) == 0 {
			return nil, domain.ErrNotFound
		}

		var old headerItem
		if err := attributevalue.UnmarshalMap(ccf.Item, &old); err != nil {
			return nil, fmt.Errorf("unmarshal conversation: %w", err)
		}
		current := old.toDomain()
		at := m.LastActive()
		if attempt == maxMutationAttempts || at.IsZero() || !guard.Allows(current) || !current.LastActive.After(at) {
			return nil, domain.ErrPreconditionFailed
		}
		r.log.Debug().Str("conversation_id", id).Time("stored_last_active", current.LastActive).
			Time("planned_last_active", at).Msg("retrying mutation with stored last_active")
		m = m.NotBefore(current.LastActive)
	}
}

func (r *DynamoRepository) ListByStatus(ctx context.Context, status domain.Status, limit int, pageToken string) (domain.Page[*domain.Conversation], error) {
	keyCond := expression.Key(attrGSI1PK).Equal(expression.Value(statusPK(status)))
	out, err := r.query(ctx, r.tables.StatusIndex, keyCond, limit, pageToken)
	if err != nil {
		return domain.Page[*domain.Conversation]{}, err
	}

	var items []headerItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return domain.Page[*domain.Conversation]{}, fmt.Errorf("unmarshal conversations: %w", err)
	}

	page := domain.Page[*domain.Conversation]{Items: make([]*domain.Conversation, 0, len(items))}
	for _, item := range items {
		page.Items = append(page.Items, item.toDomain())
	}
	page.NextPageToken, err = encodeDynamoCursor(out.LastEvaluatedKey)
	return page, err
}

func (r *DynamoRepository) ListMessages(ctx context.Context, conversationID string, limit int, pageToken string) (domain.Page[*domain.Message], error) {
	keyCond := expression.KeyAnd(
		expression.Key(attrPK).Equal(expression.Value(conversationPK(conversationID))),
		expression.KeyBeginsWith(expression.Key(attrSK), messagePrefix),
	)
	out, err := r.query(ctx, "", keyCond, limit, pageToken)
	if err != nil {
		return domain.Page[*domain.Message]{}, err
	}

	var items []messageItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return domain.Page[*domain.Message]{}, fmt.Errorf("unmarshal messages: %w", err)
	}

	page := domain.Page[*domain.Message]{Items: make([]*domain.Message, 0, len(items))}
	for _, item := range items {
		page.Items = append(page.Items, item.toDomain())
	}
	page.NextPageToken, err = encodeDynamoCursor(out.LastEvaluatedKey)
	return page, err
}

func (r *DynamoRepository) CountByStatus(ctx context.Context, status domain.Status, since time.Time) (int, error) {
	keyCond := expression.Key(attrGSI1PK).Equal(expression.Value(statusPK(status)))
	if !since.IsZero() {
		keyCond = keyCond.And(expression.Key(attrGSI1SK).GreaterThanEqual(expression.Value(formatTime(since))))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tables.Table),
			IndexName:                 aws.String(r.tables.StatusIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, r.wrap(err, "count conversations")
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (r *DynamoRepository) query(ctx context.Context, index string, keyCond expression.KeyConditionBuilder, limit int, pageToken string) (*dynamodb.QueryOutput, error) {
	startKey, err := decodeDynamoCursor(pageToken)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
		ExclusiveStartKey:         startKey,
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, r.wrap(err, "query")
	}
	return out, nil
}

func (r *DynamoRepository) wrap(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("dynamodb %s (%s): %w", op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("dynamodb %s: %w", op, err)
}

// buildMutationExpression renders a transition as SET/REMOVE plus the
// compare-and-swap condition derived from guard.
func buildMutationExpression(m domain.Mutation, guard domain.Guard) (expression.Expression, error) {
	if len(guard.From) == 0 {
		return expression.Expression{}, domain.ErrPreconditionFailed
	}

	set, remove := mutationAttributes(m)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(set[name]))
	}
	for _, name := range remove {
		update = update.Remove(expression.Name(name))
	}

	others := make([]expression.OperandBuilder, 0, len(guard.From)-1)
	for _, s := range guard.From[1:] {
		others = append(others, expression.Value(string(s)))
	}
	cond := expression.Name("status").In(expression.Value(string(guard.From[0])), others...)
	if guard.Owner != "" {
		cond = cond.And(expression.Or(
			expression.Name("status").NotEqual(expression.Value(string(domain.StatusHuman))),
			expression.Name("current_agent_id").Equal(expression.Value(guard.Owner)),
		))
	}
	if at, ok := set["last_active"]; ok {
		cond = cond.And(expression.Name("last_active").LessThanEqual(expression.Value(at)))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build mutation expression: %w", err)
	}
	return expr, nil
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// cancelledByCondition reports whether a transaction was cancelled because
// the condition of item idx failed.
func cancelledByCondition(err error, idx int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) || idx >= len(tce.CancellationReasons) {
		return false
	}
	return aws.ToString(tce.CancellationReasons[idx].Code) == "ConditionalCheckFailed"
}

func encodeDynamoCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var flat map[string]string
	if err := attributevalue.UnmarshalMap(key, &flat); err != nil {
		return "", fmt.Errorf("flatten page key: %w", err)
	}
	return encodePageToken(flat)
}

func decodeDynamoCursor(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	var flat map[string]string
	if err := decodePageToken(token, &flat); err != nil {
		return nil, err
	}
	if flat[attrPK] == "" || flat[attrSK] == "" {
		return nil, fmt.Errorf("%w: missing primary key", domain.ErrInvalidPageToken)
	}
	key, err := attributevalue.MarshalMap(flat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPageToken, err)
	}
	return key, nil
}
