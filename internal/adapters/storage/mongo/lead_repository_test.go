package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

type fakeInserter struct {
	got any
	id  any
	err error
}

func (f *fakeInserter) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	f.got = document
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.InsertOneResult{InsertedID: f.id}, nil
}

func TestLeadRepository_InsertMapsFields(t *testing.T) {
	oid := primitive.NewObjectID()
	fake := &fakeInserter{id: oid}
	repo := &LeadRepository{coll: fake}
	submitted := time.Date(2024, time.May, 4, 9, 30, 0, 0, time.UTC)

	id, err := repo.Insert(context.Background(), domain.Lead{
		Name:        "Priya",
		Email:       "priya@example.com",
		Phone:       "+919876543210",
		EnquiryType: "Recording",
		SubmittedAt: submitted,
		Status:      domain.LeadStatusNew,
	})
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), id)

	doc, ok := fake.got.(leadDocument)
	require.True(t, ok)
	assert.True(t, doc.ID.IsZero())
	assert.Equal(t, "Recording", doc.EnquiryType)
	assert.Equal(t, domain.LeadStatusNew, doc.Status)
	assert.Equal(t, submitted, doc.SubmittedAt)
}

func TestLeadRepository_InsertWrapsErrors(t *testing.T) {
	cause := errors.New("server selection timeout")
	repo := &LeadRepository{coll: &fakeInserter{err: cause}}

	_, err := repo.Insert(context.Background(), domain.Lead{Name: "x"})
	assert.ErrorIs(t, err, cause)
}
