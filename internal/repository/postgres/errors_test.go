package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/lib/pq"
)

func TestClassifyTransient(t *testing.T) {
	t.Parallel()

	transient := []error{
		context.DeadlineExceeded,
		driver.ErrBadConn,
		&pq.Error{Code: "40001"},
		&pq.Error{Code: "40P01"},
		&pq.Error{Code: "55P03"},
		&pq.Error{Code: "08006"},
		&pq.Error{Code: "57014"},
		fmt.Errorf("wrapped: %w", &pq.Error{Code: "53300"}),
	}
	for _, err := range transient {
		got := classify("op", err)
		if !domain.IsTransient(got) {
			t.Fatalf("classify(%v) = %v, want transient", err, got)
		}
	}
}

func TestClassifyPermanent(t *testing.T) {
	t.Parallel()

	permanent := []error{
		errors.New("syntax"),
		&pq.Error{Code: "23505"},
		&pq.Error{Code: "42P01"},
	}
	for _, err := range permanent {
		got := classify("op", err)
		if domain.IsTransient(got) {
			t.Fatalf("classify(%v) = %v, want permanent", err, got)
		}
		if !errors.Is(got, err) {
			t.Fatalf("classify(%v) lost the cause", err)
		}
	}
	if classify("op", nil) != nil {
		t.Fatal("classify(nil) should be nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	if !isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})) {
		t.Fatal("expected unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign key violation is not unique violation")
	}
}
