package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsSerializationFailure(t *testing.T) {
	ser := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}

	if !isSerializationFailure(ser) {
		t.Error("SQLSTATE 40001 should be retryable")
	}
	if !isSerializationFailure(fmt.Errorf("commit: %w", ser)) {
		t.Error("wrapped 40001 should be retryable")
	}
	if isSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation is not a serialization failure")
	}
	if isSerializationFailure(errors.New("connection refused")) {
		t.Error("plain errors are not serialization failures")
	}
	if isSerializationFailure(nil) {
		t.Error("nil is not a serialization failure")
	}
}
