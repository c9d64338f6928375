package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const DefaultLeadsCollection = "leads"

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type leadDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Phone       string             `bson:"phone"`
	EnquiryType string             `bson:"enquiry-type"`
	Message     string             `bson:"message,omitempty"`
	SubmittedAt time.Time          `bson:"submittedAt"`
	Status      string             `bson:"status"`
}

type LeadRepository struct {
	coll inserter
}

var _ ports.LeadRepository = (*LeadRepository)(nil)

func NewLeadRepository(db *mongo.Database, collection string) *LeadRepository {
	if collection == "" {
		collection = DefaultLeadsCollection
	}
	return &LeadRepository{coll: db.Collection(collection)}
}

func (r *LeadRepository) Insert(ctx context.Context, lead domain.Lead) (string, error) {
	res, err := r.coll.InsertOne(ctx, leadDocument{
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       lead.Phone,
		EnquiryType: lead.EnquiryType,
		Message:     lead.Message,
		SubmittedAt: lead.SubmittedAt,
		Status:      lead.Status,
	})
	if err != nil {
		return "", fmt.Errorf("insert lead: %w", err)
	}

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return fmt.Sprint(id), nil
	}
}
