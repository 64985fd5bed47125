package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type dynamoPutter interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoLeadItem is the persisted shape of a lead in DynamoDB.
type dynamoLeadItem struct {
	LeadID            string `dynamodbav:"leadId"`
	ReceivedAt        string `dynamodbav:"receivedAt"`
	Email             string `dynamodbav:"email"`
	Name              string `dynamodbav:"name,omitempty"`
	Phone             string `dynamodbav:"phone,omitempty"`
	PropertyAddress   string `dynamodbav:"propertyAddress,omitempty"`
	Situation         string `dynamodbav:"situation,omitempty"`
	UrgencyLevel      string `dynamodbav:"urgencyLevel,omitempty"`
	FormType          string `dynamodbav:"formType,omitempty"`
	Timeline          string `dynamodbav:"timeline,omitempty"`
	ForeclosureStatus string `dynamodbav:"foreclosureStatus,omitempty"`
	PropertyType      string `dynamodbav:"propertyType,omitempty"`
	DesiredPrice      string `dynamodbav:"desiredPrice,omitempty"`
	BestTimeToCall    string `dynamodbav:"bestTime,omitempty"`
	Source            string `dynamodbav:"source,omitempty"`
	SourceIP          string `dynamodbav:"sourceIp,omitempty"`
	Score             int    `dynamodbav:"score"`
	Priority          string `dynamodbav:"priority"`
}

// DynamoRepository writes one item per lead, keyed by leadId.
type DynamoRepository struct {
	client    dynamoPutter
	tableName string
}

// NewDynamoRepository builds a sink backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoPutter, tableName string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoRepository{client: client, tableName: tableName}
}

// Append puts the lead, refusing to overwrite an existing id.
func (r *DynamoRepository) Append(ctx context.Context, lead ScoredLead) error {
	s := lead.Submission
	item, err := attributevalue.MarshalMap(dynamoLeadItem{
		LeadID:            lead.ID,
		ReceivedAt:        s.ReceivedAt.UTC().Format(time.RFC3339Nano),
		Email:             s.Email,
		Name:              s.Name,
		Phone:             s.Phone,
		PropertyAddress:   s.PropertyAddress,
		Situation:         s.Situation,
		UrgencyLevel:      string(s.UrgencyLevel),
		FormType:          string(s.FormType),
		Timeline:          s.Timeline,
		ForeclosureStatus: s.ForeclosureStatus,
		PropertyType:      s.PropertyType,
		DesiredPrice:      s.DesiredPrice,
		BestTimeToCall:    s.BestTimeToCall,
		Source:            s.Source,
		SourceIP:          s.SourceIP,
		Score:             lead.Score,
		Priority:          string(lead.Priority),
	})
	if err != nil {
		return fmt.Errorf("leads: marshal dynamo item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(leadId)"),
	})
	if err != nil {
		return fmt.Errorf("leads: dynamo put: %w", err)
	}
	return nil
}
