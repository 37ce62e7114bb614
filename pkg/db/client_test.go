package db

import (
	"context"
	"errors"
	"testing"

	"github.com/localmart-app/localmart-backend/pkg/config"
)

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	if err == nil {
		t.Fatalf("expected error for missing DSN")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil error", nil, "", false},
		{"generic duplicate", errors.New(`duplicate key value violates unique constraint "earnings_records_order_id_key"`), "", true},
		{"named constraint match", errors.New(`duplicate key value violates unique constraint "earnings_records_order_id_key"`), "earnings_records_order_id_key", true},
		{"named constraint miss", errors.New("duplicate key value"), "other_key", false},
		{"unrelated error", errors.New("connection refused"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}
