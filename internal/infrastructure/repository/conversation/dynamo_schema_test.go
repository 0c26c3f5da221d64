package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTableAdmin struct {
	describeErr error
	createErr   error
	created     *dynamodb.CreateTableInput
}

func (f *fakeTableAdmin) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func (f *fakeTableAdmin) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = in
	return &dynamodb.CreateTableOutput{}, nil
}

func TestEnsureDynamoTableExisting(t *testing.T) {
	admin := &fakeTableAdmin{}

	created, err := EnsureDynamoTable(context.Background(), admin, testTables)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, admin.created)
}

func TestEnsureDynamoTableCreatesIndexes(t *testing.T) {
	admin := &fakeTableAdmin{describeErr: &types.ResourceNotFoundException{Message: aws.String("missing")}}

	created, err := EnsureDynamoTable(context.Background(), admin, testTables)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, admin.created)

	in := admin.created
	assert.Equal(t, "support", aws.ToString(in.TableName))
	assert.Equal(t, types.BillingModePayPerRequest, in.BillingMode)
	require.Len(t, in.GlobalSecondaryIndexes, 2)
	assert.Equal(t, "gsi1", aws.ToString(in.GlobalSecondaryIndexes[0].IndexName))
	assert.Equal(t, attrGSI1PK, aws.ToString(in.GlobalSecondaryIndexes[0].KeySchema[0].AttributeName))
	assert.Equal(t, "gsi3", aws.ToString(in.GlobalSecondaryIndexes[1].IndexName))
	assert.Equal(t, attrGSI3SK, aws.ToString(in.GlobalSecondaryIndexes[1].KeySchema[1].AttributeName))
	assert.Len(t, in.AttributeDefinitions, 6)
}

func TestEnsureDynamoTableRace(t *testing.T) {
	admin := &fakeTableAdmin{
		describeErr: &types.ResourceNotFoundException{Message: aws.String("missing")},
		createErr:   &types.ResourceInUseException{Message: aws.String("being created")},
	}

	created, err := EnsureDynamoTable(context.Background(), admin, testTables)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureDynamoTableDescribeFailure(t *testing.T) {
	admin := &fakeTableAdmin{describeErr: errors.New("access denied")}

	_, err := EnsureDynamoTable(context.Background(), admin, testTables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
