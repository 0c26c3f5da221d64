package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoTableAdmin is the subset of the DynamoDB client used to manage the table.
type DynamoTableAdmin interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureDynamoTable creates the single table with both indexes unless it
// already exists. It reports whether a table was created.
func EnsureDynamoTable(ctx context.Context, client DynamoTableAdmin, tables DynamoTables) (bool, error) {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tables.Table)})
	if err == nil {
		return false, nil
	}
	var missing *types.ResourceNotFoundException
	if !errors.As(err, &missing) {
		return false, fmt.Errorf("describe table %s: %w", tables.Table, err)
	}

	if _, err := client.CreateTable(ctx, dynamoTableInput(tables)); err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, fmt.Errorf("create table %s: %w", tables.Table, err)
	}
	return true, nil
}

func dynamoTableInput(tables DynamoTables) *dynamodb.CreateTableInput {
	stringAttr := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
	}
	index := func(name, pk, sk string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{
			IndexName: aws.String(name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(sk), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
	}

	return &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			stringAttr(attrPK), stringAttr(attrSK),
			stringAttr(attrGSI1PK), stringAttr(attrGSI1SK),
			stringAttr(attrGSI3PK), stringAttr(attrGSI3SK),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			index(tables.StatusIndex, attrGSI1PK, attrGSI1SK),
			index(tables.ThreadIndex, attrGSI3PK, attrGSI3SK),
		},
	}
}
