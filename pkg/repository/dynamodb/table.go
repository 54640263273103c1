package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/m-mizutani/goerr/v2"
)

// TableSpec describes one table keyed by a single string attribute
type TableSpec struct {
	Name string
	Key  string
}

// Tables returns the tables this backend reads and writes
func (d *DynamoDB) Tables() []TableSpec {
	return []TableSpec{
		{Name: d.token.table, Key: "user_id"},
		{Name: d.message.table, Key: "message_id"},
		{Name: d.event.table, Key: "event_id"},
	}
}

// CreateTables creates missing tables with on-demand billing. It returns the
// names of the tables it created.
func (d *DynamoDB) CreateTables(ctx context.Context) ([]string, error) {
	var created []string
	for _, spec := range d.Tables() {
		_, err := d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName:   aws.String(spec.Name),
			BillingMode: ddbtypes.BillingModePayPerRequest,
			AttributeDefinitions: []ddbtypes.AttributeDefinition{
				{AttributeName: aws.String(spec.Key), AttributeType: ddbtypes.ScalarAttributeTypeS},
			},
			KeySchema: []ddbtypes.KeySchemaElement{
				{AttributeName: aws.String(spec.Key), KeyType: ddbtypes.KeyTypeHash},
			},
		})
		if err != nil {
			var inUse *ddbtypes.ResourceInUseException
			if errors.As(err, &inUse) {
				continue
			}
			return created, goerr.Wrap(err, "failed to create table", goerr.V("table", spec.Name))
		}
		created = append(created, spec.Name)
	}
	return created, nil
}
