package connector

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/loykin/j2g/internal/workflow"
)

// ErrNotFound is returned when a conversion id has no row.
var ErrNotFound = errors.New("store: conversion not found")

// Conversion is one row of the conversion history.
type Conversion struct {
	ID         string             `json:"id"`
	SourceName string             `json:"source_name"`
	SHA256     string             `json:"sha256"`
	Profile    string             `json:"profile"`
	YAML       string             `json:"yaml,omitempty"`
	Warnings   []workflow.Warning `json:"warnings,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// TableNames represents database table names
type TableNames struct {
	Conversions string
}

// Connector is implemented by each database backend.
type Connector interface {
	Connect() (*sql.DB, error)
	Validate() error
	Load(config map[string]interface{}) error
	Ensure(ctx context.Context, th TableNames) error
	Insert(ctx context.Context, th TableNames, c Conversion) error
	Get(ctx context.Context, th TableNames, id string) (Conversion, error)
	// List returns the newest conversions first, YAML omitted.
	List(ctx context.Context, th TableNames, limit int) ([]Conversion, error)
	Delete(ctx context.Context, th TableNames, id string) error
	Close() error
}
