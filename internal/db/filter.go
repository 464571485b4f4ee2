package db

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterBuilder helps build MongoDB filters fluently. A malformed value
// (such as a bad ObjectID hex string) poisons the builder: Build
// returns the error instead of a filter missing that constraint.
type FilterBuilder struct {
	filter bson.M
	err    error
}

// NewFilter creates a new FilterBuilder.
func NewFilter() *FilterBuilder {
	return &FilterBuilder{filter: bson.M{}}
}

// Eq adds an equality condition.
func (f *FilterBuilder) Eq(field string, value interface{}) *FilterBuilder {
	f.filter[field] = value
	return f
}

// Ne adds a not-equal condition.
func (f *FilterBuilder) Ne(field string, value interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$ne": value}
	return f
}

// Lte adds a less-than-or-equal condition.
func (f *FilterBuilder) Lte(field string, value interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$lte": value}
	return f
}

// Has requires an array field to contain value.
func (f *FilterBuilder) Has(field string, value interface{}) *FilterBuilder {
	f.filter[field] = value
	return f
}

// Lacks requires an array field to not contain value.
func (f *FilterBuilder) Lacks(field string, value interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$ne": value}
	return f
}

// ObjectID adds an ObjectID filter parsed from a hex string. A string
// that is not valid hex fails the whole build: dropping the field would
// silently widen the filter to documents outside the caller's scope.
func (f *FilterBuilder) ObjectID(field string, id string) *FilterBuilder {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("invalid object id for %s: %w", field, err)
		}
		return f
	}
	f.filter[field] = objectID
	return f
}

// Or combines the given builders' filters with OR. An error in any
// branch poisons this builder too.
func (f *FilterBuilder) Or(branches ...*FilterBuilder) *FilterBuilder {
	if len(branches) == 0 {
		return f
	}

	filters := make([]bson.M, 0, len(branches))
	for _, b := range branches {
		if b.err != nil && f.err == nil {
			f.err = b.err
		}
		filters = append(filters, b.filter)
	}
	f.filter["$or"] = filters
	return f
}

// Build returns the final bson.M filter, or the first error recorded
// while building it.
func (f *FilterBuilder) Build() (bson.M, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filter, nil
}

// UpdateBuilder composes a raw update document out of the atomic array
// operators the delivery-state transitions rely on.
type UpdateBuilder struct {
	update bson.M
}

// NewUpdate creates a new UpdateBuilder.
func NewUpdate() *UpdateBuilder {
	return &UpdateBuilder{update: bson.M{}}
}

// AddToSet appends value to an array field iff not already present.
func (u *UpdateBuilder) AddToSet(field string, value interface{}) *UpdateBuilder {
	u.op("$addToSet")[field] = value
	return u
}

// Pull removes value from an array field.
func (u *UpdateBuilder) Pull(field string, value interface{}) *UpdateBuilder {
	u.op("$pull")[field] = value
	return u
}

// Set assigns a field.
func (u *UpdateBuilder) Set(field string, value interface{}) *UpdateBuilder {
	u.op("$set")[field] = value
	return u
}

// Unset removes a field.
func (u *UpdateBuilder) Unset(fields ...string) *UpdateBuilder {
	for _, field := range fields {
		u.op("$unset")[field] = 1
	}
	return u
}

func (u *UpdateBuilder) op(name string) bson.M {
	if _, ok := u.update[name]; !ok {
		u.update[name] = bson.M{}
	}
	return u.update[name].(bson.M)
}

// Build returns the final update document.
func (u *UpdateBuilder) Build() bson.M {
	return u.update
}
